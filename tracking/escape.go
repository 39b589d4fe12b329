package tracking

import (
	"html"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// query is an ordered list of URL query parameters.
type query [][2]string

func (q query) add(key, value string) query {
	return append(q, [2]string{key, value})
}

// encode percent-encodes every key and value in insertion order. Spaces
// become '+', as Matomo's PHP front end expects.
func (q query) encode() string {
	var b strings.Builder
	for i, kv := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv[1]))
	}
	return b.String()
}

var jsLineTerminators = strings.NewReplacer("\u2028", `\u2028`, "\u2029", `\u2029`)

// scriptLiteral quotes s as a JavaScript string literal that is safe to place
// inside an HTML <script> element.
func scriptLiteral(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// Marshal of a string cannot fail; keep the script inert if it ever does.
		return `""`
	}
	return jsLineTerminators.Replace(string(b))
}

// attrValue escapes s for use inside a double-quoted HTML attribute.
func attrValue(s string) string {
	return html.EscapeString(s)
}

// HTML renders the footer markup: the script and its <noscript> pixel fallback.
func (p *BeaconPayload) HTML() string {
	return p.Script + "\n" +
		`<noscript><img src="` + attrValue(p.PixelURL) + `" width="1" height="1" alt="" /></noscript>`
}

// HTML renders a comment explaining why nothing was tracked.
func (s *Suppressed) HTML() string {
	switch s.Reason {
	case ReasonBot:
		return "<!-- Matomo extension is disabled for bots -->"
	case ReasonUnconfigured:
		return "<!-- You need to set the settings for Matomo -->"
	default:
		return "<!-- Matomo tracking suppressed -->"
	}
}
