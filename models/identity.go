package models

// Identity is the wiki user behind a request. The zero value is an anonymous visitor.
type Identity struct {
	Username   string
	Registered bool
	Bot        bool
}
