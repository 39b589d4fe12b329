// api/handlers/track_handlers.go
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"matomotrack/api/logging"
	"matomotrack/api/metrics"
	"matomotrack/api/middleware"
	"matomotrack/api/models"
	"matomotrack/api/search"
	"matomotrack/api/tracking"
)

// RelayDispatcher sends a server-side tracking request.
type RelayDispatcher interface {
	Dispatch(ctx context.Context, r *tracking.RelayRequest) error
}

type TrackingHandlers struct {
	Site  tracking.SiteConfig
	Relay RelayDispatcher
	// RelayTimeout bounds the relay call on top of the dispatcher's own client timeout.
	RelayTimeout time.Duration
}

func NewTrackingHandlers(site tracking.SiteConfig, relay RelayDispatcher, relayTimeout time.Duration) *TrackingHandlers {
	return &TrackingHandlers{
		Site:         site,
		Relay:        relay,
		RelayTimeout: relayTimeout,
	}
}

// PageView builds the tracking outcome for one page render described in the body.
// Tracking problems never change the response status.
func (h *TrackingHandlers) PageView(c *gin.Context) {
	var req models.PageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	sc := middleware.SearchFrom(c)
	if req.SearchResults != nil {
		sc.OnResults(req.SearchResults.Term, req.SearchResults.TitleMatches, req.SearchResults.TextMatches)
	}
	if req.SearchSetup != nil {
		sc.OnEngineSetup(req.SearchSetup.Profile)
	}

	outcome := h.track(c, req.Title, sc)

	resp := models.PageViewResponse{Outcome: outcome.Kind()}
	switch o := outcome.(type) {
	case *tracking.Suppressed:
		resp.Reason = o.Reason
		resp.HTML = o.HTML()
	case *tracking.BeaconPayload:
		resp.HTML = o.HTML()
		resp.PixelURL = o.PixelURL
	}
	c.JSON(http.StatusOK, resp)
}

// Footer returns the markup to append to the page, as text/html. Special:Search
// renders pass the search term and counts as query parameters.
func (h *TrackingHandlers) Footer(c *gin.Context) {
	text := c.Query("title")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title query parameter is required"})
		return
	}
	title := tracking.Title{Namespace: c.Query("ns"), Text: text}

	sc := middleware.SearchFrom(c)
	if term, ok := c.GetQuery("search"); ok {
		sc.OnResults(term, queryInt(c, "title_matches"), queryInt(c, "text_matches"))
	}
	if profile, ok := c.GetQuery("profile"); ok {
		sc.OnEngineSetup(&profile)
	}

	var markup string
	switch o := h.track(c, title, sc).(type) {
	case *tracking.Suppressed:
		markup = o.HTML()
	case *tracking.BeaconPayload:
		markup = o.HTML()
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
}

// track builds the outcome and, in relay mode, sends it before returning.
func (h *TrackingHandlers) track(c *gin.Context, title tracking.Title, sc *search.Context) tracking.Outcome {
	outcome := tracking.Build(h.Site, requestContext(c, title), sc)

	log := logging.Ctx(c.Request.Context())
	switch o := outcome.(type) {
	case *tracking.Suppressed:
		metrics.RecordOutcome(o.Kind(), o.Reason)
		log.Debug().Str("reason", o.Reason).Msg("tracking suppressed")
	case *tracking.RelayRequest:
		metrics.RecordOutcome(o.Kind(), "")
		h.relay(c.Request.Context(), o)
	default:
		metrics.RecordOutcome(o.Kind(), "")
	}
	return outcome
}

func (h *TrackingHandlers) relay(ctx context.Context, r *tracking.RelayRequest) {
	if h.Relay == nil {
		return
	}
	if h.RelayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.RelayTimeout)
		defer cancel()
	}
	if err := h.Relay.Dispatch(ctx, r); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("matomo relay failed")
	}
}

func requestContext(c *gin.Context, title tracking.Title) tracking.RequestContext {
	id := middleware.IdentityFrom(c)
	return tracking.RequestContext{
		Title:            title,
		IsBot:            id.Bot,
		IsRegisteredUser: id.Registered,
		Username:         id.Username,
		RequestURI:       c.Request.RequestURI,
		UserAgent:        c.Request.UserAgent(),
		Referer:          c.Request.Referer(),
		IsHTTPS:          c.Request.TLS != nil,
		ForwardedProto:   strings.ToLower(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto"))),
	}
}

// queryInt returns nil when the parameter is absent or not a number.
func queryInt(c *gin.Context, key string) *int {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

// Health reports liveness and, in relay mode, the relay circuit breaker state.
// An open breaker does not fail the check; page renders are still served.
func (h *TrackingHandlers) Health(c *gin.Context) {
	resp := gin.H{"status": "ok", "mode": string(h.Site.Mode)}
	if s, ok := h.Relay.(interface{ State() string }); ok {
		resp["relay"] = s.State()
	}
	c.JSON(http.StatusOK, resp)
}
