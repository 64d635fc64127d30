package domain

import "strings"

const (
	CanonicalIDPrefix = "gid://"
	OrderGIDPrefix    = "gid://shopify/Order/"
	DraftOrderPrefix  = "gid://shopify/DraftOrder/"
	displayPrefix     = "#"
)

// IsCanonicalID reports whether id has the durable, action-safe shape.
func IsCanonicalID(id string) bool {
	return strings.HasPrefix(strings.TrimSpace(id), CanonicalIDPrefix)
}

func IsDisplayOrderNumber(id string) bool {
	return strings.HasPrefix(strings.TrimSpace(id), displayPrefix)
}

// DisplayOrderNumber prefixes a bare order number with "#". Canonical ids and
// already-prefixed numbers are returned unchanged.
func DisplayOrderNumber(id string) string {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" || IsCanonicalID(trimmed) || IsDisplayOrderNumber(trimmed) {
		return trimmed
	}

	return displayPrefix + trimmed
}
