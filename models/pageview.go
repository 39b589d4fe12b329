// api/models/pageview.go
package models

import "matomotrack/api/tracking"

// PageViewRequest is what the wiki skin sends once per page render.
type PageViewRequest struct {
	Title         tracking.Title `json:"title"`
	SearchResults *SearchResults `json:"searchResults,omitempty"`
	SearchSetup   *SearchSetup   `json:"searchSetup,omitempty"`
}

// SearchResults mirrors the Special:Search results event.
type SearchResults struct {
	Term         string `json:"term"`
	TitleMatches *int   `json:"titleMatches"`
	TextMatches  *int   `json:"textMatches"`
}

// SearchSetup mirrors the Special:Search engine setup event.
type SearchSetup struct {
	Profile *string `json:"profile"`
}

type PageViewResponse struct {
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason,omitempty"`
	HTML     string `json:"html,omitempty"`
	PixelURL string `json:"pixelUrl,omitempty"`
}
