package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matomotrack/api/logging"
	"matomotrack/api/models"
	"matomotrack/api/utils"
)

var secret = []byte("shared")

func init() {
	gin.SetMode(gin.TestMode)
}

func identityFor(t *testing.T, secret []byte, mutate func(*http.Request)) models.Identity {
	t.Helper()
	var got models.Identity
	r := gin.New()
	r.Use(Identity(secret))
	r.GET("/", func(c *gin.Context) { got = IdentityFrom(c) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	r.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestIdentityFromBearer(t *testing.T) {
	tok, err := utils.GenerateJWT(secret, "ArchiveBot", []string{"bot"}, time.Hour)
	require.NoError(t, err)

	id := identityFor(t, secret, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) })
	assert.Equal(t, models.Identity{Username: "ArchiveBot", Registered: true, Bot: true}, id)
}

func TestIdentityCookieTakesPrecedence(t *testing.T) {
	cookieTok, err := utils.GenerateJWT(secret, "Alice", nil, time.Hour)
	require.NoError(t, err)
	bearerTok, err := utils.GenerateJWT(secret, "Bob", nil, time.Hour)
	require.NoError(t, err)

	id := identityFor(t, secret, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "jwt_token", Value: cookieTok})
		r.Header.Set("Authorization", "Bearer "+bearerTok)
	})
	assert.Equal(t, "Alice", id.Username)
	assert.False(t, id.Bot)
}

func TestIdentityAnonymous(t *testing.T) {
	tok, err := utils.GenerateJWT(secret, "Alice", nil, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, models.Identity{}, identityFor(t, secret, nil))
	assert.Equal(t, models.Identity{}, identityFor(t, secret, func(r *http.Request) {
		r.Header.Set("Authorization", "Basic abc")
	}))
	assert.Equal(t, models.Identity{}, identityFor(t, nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok)
	}), "tokens are ignored without a configured secret")
}

func TestRequestIDReplacesOversizedHeader(t *testing.T) {
	var fromCtx string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { fromCtx = logging.RequestIDFromContext(c.Request.Context()) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", 200))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	id := w.Header().Get("X-Request-ID")
	assert.Len(t, id, 36)
	assert.Equal(t, id, fromCtx)
}

func TestSearchContextIsPerRequest(t *testing.T) {
	r := gin.New()
	r.Use(SearchContext())
	var terms []bool
	r.GET("/", func(c *gin.Context) {
		sc := SearchFrom(c)
		_, seen := sc.Term()
		terms = append(terms, seen)
		sc.OnResults("cats", nil, nil)
	})

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	assert.Equal(t, []bool{false, false}, terms)
}
