package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
)

func TestRecordOutcome(t *testing.T) {
	before := testutil.ToFloat64(Outcomes.WithLabelValues("suppressed", "bot"))
	RecordOutcome("suppressed", "bot")
	RecordOutcome("suppressed", "bot")
	assert.Equal(t, before+2, testutil.ToFloat64(Outcomes.WithLabelValues("suppressed", "bot")))
}

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestRelayCause(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{gobreaker.ErrOpenState, "circuit_open"},
		{fmt.Errorf("relay: %w", gobreaker.ErrTooManyRequests), "circuit_open"},
		{fmt.Errorf("relay: %w", timeoutErr{}), "timeout"},
		{errors.New("connection refused"), "error"},
		{context.Canceled, "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relayCause(tt.err), tt.err.Error())
	}
}

func TestRecordRelay(t *testing.T) {
	before := testutil.ToFloat64(RelayFailures.WithLabelValues("error"))

	RecordRelay(10*time.Millisecond, nil)
	assert.Equal(t, before, testutil.ToFloat64(RelayFailures.WithLabelValues("error")))

	RecordRelay(10*time.Millisecond, errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(RelayFailures.WithLabelValues("error")))
}
