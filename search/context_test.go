package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestNilContextIsEmpty(t *testing.T) {
	var c *Context

	c.OnResults("cats", intPtr(1), nil)
	c.OnEngineSetup(strPtr("all"))

	_, ok := c.Term()
	assert.False(t, ok)
	_, ok = c.Profile()
	assert.False(t, ok)
	_, ok = c.ResultCount()
	assert.False(t, ok)
}

func TestOnResultsSumsMatchCounts(t *testing.T) {
	tests := []struct {
		name         string
		titleMatches *int
		textMatches  *int
		want         int
	}{
		{"both present", intPtr(2), intPtr(3), 5},
		{"title only", intPtr(4), nil, 4},
		{"text only", nil, intPtr(7), 7},
		{"neither", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.OnResults("cats", tt.titleMatches, tt.textMatches)

			term, ok := c.Term()
			assert.True(t, ok)
			assert.Equal(t, "cats", term)

			count, ok := c.ResultCount()
			assert.True(t, ok)
			assert.Equal(t, tt.want, count)
		})
	}
}

func TestEventsInEitherOrder(t *testing.T) {
	a := New()
	a.OnResults("dogs", intPtr(1), nil)
	a.OnEngineSetup(strPtr("images"))

	b := New()
	b.OnEngineSetup(strPtr("images"))
	b.OnResults("dogs", intPtr(1), nil)

	assert.Equal(t, a, b)
}

func TestFirstEventWins(t *testing.T) {
	c := New()
	c.OnResults("first", intPtr(1), nil)
	c.OnResults("second", intPtr(9), nil)
	c.OnEngineSetup(strPtr("default"))
	c.OnEngineSetup(strPtr("other"))

	term, _ := c.Term()
	count, _ := c.ResultCount()
	profile, _ := c.Profile()
	assert.Equal(t, "first", term)
	assert.Equal(t, 1, count)
	assert.Equal(t, "default", profile)
}

func TestSetupWithoutProfile(t *testing.T) {
	c := New()
	c.OnEngineSetup(nil)
	c.OnEngineSetup(strPtr("late"))

	_, ok := c.Profile()
	assert.False(t, ok, "a nil profile still consumes the setup event")
}

func TestProfileIsCopied(t *testing.T) {
	p := "default"
	c := New()
	c.OnEngineSetup(&p)
	p = "changed"

	got, _ := c.Profile()
	assert.Equal(t, "default", got)
}
