// Package tracking decides whether a page render is tracked by Matomo and
// describes the tracking request to send.
package tracking

import (
	"net/http"
	"strconv"

	"matomotrack/api/search"
)

// Build maps one render's configuration and context to an Outcome. It does no I/O
// and returns the same Outcome for the same inputs.
func Build(cfg SiteConfig, req RequestContext, sc *search.Context) Outcome {
	if req.IsBot && cfg.IgnoreBots {
		return &Suppressed{Reason: ReasonBot}
	}
	if cfg.SiteID == "" || cfg.Host == "" {
		return &Suppressed{Reason: ReasonUnconfigured}
	}

	protocol := resolveProtocol(cfg.Protocol, req)

	actionName := cfg.ActionName
	if cfg.UsePageTitle {
		actionName += req.Title.PrefixedText()
	}

	q := query{}.
		add("idsite", cfg.SiteID).
		add("rec", "1").
		add("send_image", "0").
		add("action_name", actionName)

	// Anonymous visitors are identified by IP on the Matomo side.
	if cfg.TrackUsernames && req.IsRegisteredUser && req.Username != "" {
		q = q.add("uid", req.Username)
	}

	if term, ok := sc.Term(); ok {
		q = q.add("search", term)
		if profile, ok := sc.Profile(); ok {
			q = q.add("search_cat", profile)
		}
		if count, ok := sc.ResultCount(); ok {
			q = q.add("search_count", strconv.Itoa(count))
		}
	}

	if cfg.Mode == ModeRelay {
		header := http.Header{}
		if req.UserAgent != "" {
			header.Set("User-Agent", req.UserAgent)
		}
		return &RelayRequest{
			URL:     trackerURL(protocol, cfg.Host, RelayEndpoint, q),
			Header:  header,
			Referer: req.Referer,
		}
	}

	u := trackerURL(protocol, cfg.Host, cfg.Endpoint, q)
	return &BeaconPayload{
		Script:   "<script>!(function(){var xhr=new XMLHttpRequest();xhr.open('post'," + scriptLiteral(u) + ");xhr.send()})();</script>",
		PixelURL: u,
	}
}

// resolveProtocol treats anything other than http or https as auto.
func resolveProtocol(p Protocol, req RequestContext) Protocol {
	if p == ProtocolHTTP || p == ProtocolHTTPS {
		return p
	}
	if req.IsHTTPS || req.ForwardedProto == "https" {
		return ProtocolHTTPS
	}
	return ProtocolHTTP
}

func trackerURL(protocol Protocol, host, endpoint string, q query) string {
	return string(protocol) + "://" + host + "/" + endpoint + "?" + q.encode()
}
