package types

// Page-type tags carried by navigation events.
const (
	PageHome  = "home-page"
	PageAbout = "about-page"
)

// Well-known routes.
const (
	RouteHome  = "/"
	RouteAbout = "/about"
)

// NavigationEvent is emitted once per completed route change.
type NavigationEvent struct {
	Path     string `json:"path"`               // Resolved path.
	PageType string `json:"page_type,omitempty"` // Optional page-type tag.
}

// IsHome reports whether the event landed on the home page. The page-type
// tag wins; an untagged event is matched by path.
func (e NavigationEvent) IsHome() bool {
	if e.PageType != "" {
		return e.PageType == PageHome
	}
	return e.Path == RouteHome
}

// IsAbout reports whether the event landed on the informational page.
func (e NavigationEvent) IsAbout() bool {
	if e.PageType != "" {
		return e.PageType == PageAbout
	}
	return e.Path == RouteAbout
}
