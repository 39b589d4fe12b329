// Package search holds what Special:Search reported about the current render.
package search

// Context latches the search term, profile and result count for one page render.
// A nil *Context is valid and reports nothing.
type Context struct {
	term    *string
	profile *string
	count   *int

	resultsSeen bool
	setupSeen   bool
}

// New returns an empty Context for a single render.
func New() *Context {
	return &Context{}
}

// OnResults records the searched term and the number of matching rows.
// A nil match count counts as zero. Only the first call has any effect.
func (c *Context) OnResults(term string, titleMatches, textMatches *int) {
	if c == nil || c.resultsSeen {
		return
	}
	c.resultsSeen = true

	count := 0
	if titleMatches != nil {
		count += *titleMatches
	}
	if textMatches != nil {
		count += *textMatches
	}
	c.term = &term
	c.count = &count
}

// OnEngineSetup records the search profile, which Matomo calls the search category.
// Only the first call has any effect.
func (c *Context) OnEngineSetup(profile *string) {
	if c == nil || c.setupSeen {
		return
	}
	c.setupSeen = true
	if profile != nil {
		p := *profile
		c.profile = &p
	}
}

func (c *Context) Term() (string, bool) {
	if c == nil || c.term == nil {
		return "", false
	}
	return *c.term, true
}

func (c *Context) Profile() (string, bool) {
	if c == nil || c.profile == nil {
		return "", false
	}
	return *c.profile, true
}

func (c *Context) ResultCount() (int, bool) {
	if c == nil || c.count == nil {
		return 0, false
	}
	return *c.count, true
}
