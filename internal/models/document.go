package models

// DocPage is the structured content of a documentation page as served by the
// content API.
type DocPage struct {
	Version string
	Body    string
}

// Revision holds the groups captured from a page's revision meta tag.
type Revision struct {
	ID       string
	Release  string
	Revision string
}
