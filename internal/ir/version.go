package ir

// Version constants for the query document format and the resolver.
const (
	// QueryFormatVersion is the query document format version.
	QueryFormatVersion = "1"

	// ResolverVersion is the snapquery resolver version.
	ResolverVersion = "0.1.0"
)
