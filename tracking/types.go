package tracking

import (
	"net/http"
	"strings"
)

type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
	ProtocolAuto  Protocol = "auto"
)

// Mode selects which dispatch Build produces for a trackable render.
type Mode string

const (
	ModeBeacon Mode = "beacon"
	ModeRelay  Mode = "relay"
)

// RelayEndpoint is the tracking endpoint used for server-side requests,
// regardless of the configured Endpoint.
const RelayEndpoint = "matomo.php"

// SiteConfig is the resolved Matomo configuration for one request.
type SiteConfig struct {
	SiteID         string
	Host           string
	Protocol       Protocol
	Endpoint       string
	IgnoreBots     bool
	UsePageTitle   bool
	ActionName     string
	TrackUsernames bool
	Mode           Mode
}

// Title identifies a wiki page.
type Title struct {
	Namespace string `json:"namespace"`
	Text      string `json:"text" binding:"required"`
}

// PrefixedText returns the namespace-qualified display title, e.g. "Talk:Main Page".
func (t Title) PrefixedText() string {
	text := strings.ReplaceAll(t.Text, "_", " ")
	if t.Namespace == "" {
		return text
	}
	return strings.ReplaceAll(t.Namespace, "_", " ") + ":" + text
}

// RequestContext is what the render host knows about the visitor and the request.
// Empty strings mean the value was not available.
type RequestContext struct {
	Title            Title
	IsBot            bool
	IsRegisteredUser bool
	Username         string
	RequestURI       string
	UserAgent        string
	Referer          string
	IsHTTPS          bool
	ForwardedProto   string
}

// Outcome is the result of Build: *Suppressed, *BeaconPayload or *RelayRequest.
type Outcome interface {
	Kind() string
	isOutcome()
}

const (
	ReasonBot          = "bot"
	ReasonUnconfigured = "unconfigured"
)

// Suppressed means nothing should be tracked for this render.
type Suppressed struct {
	Reason string
}

// BeaconPayload is markup for the page footer. Script fires the tracking
// request from the browser; PixelURL is the same request for clients without scripting.
type BeaconPayload struct {
	Script   string
	PixelURL string
}

// RelayRequest describes a GET the host issues to Matomo on the visitor's behalf.
type RelayRequest struct {
	URL     string
	Header  http.Header
	Referer string
}

func (*Suppressed) Kind() string    { return "suppressed" }
func (*BeaconPayload) Kind() string { return "beacon" }
func (*RelayRequest) Kind() string  { return "relay" }

func (*Suppressed) isOutcome()    {}
func (*BeaconPayload) isOutcome() {}
func (*RelayRequest) isOutcome()  {}
