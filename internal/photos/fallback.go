package photos

import "net/url"

const fallbackBase = "https://source.unsplash.com/800x600/?"

// FallbackURL is the keyword image URL used when a search fails
func FallbackURL(query string) string {
	return fallbackBase + url.QueryEscape(query)
}
