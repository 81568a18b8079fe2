package kalc

// Span represents a half-open byte range [Start, End) in source code.
type Span struct {
	Start int
	End   int
}

// Contains reports whether offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return s.Start <= offset && offset < s.End
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Channel separates significant tokens from trivia.
//
// The parser only ever sees ChannelDefault tokens. Whitespace and comments are
// kept in the stream on ChannelHidden so that offsets inside them still map to
// a token.
type Channel int

// Channel constants.
const (
	// ChannelDefault carries identifiers, literals, keywords and punctuation.
	ChannelDefault Channel = iota
	// ChannelHidden carries whitespace and comments.
	ChannelHidden
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelDefault:
		return "default"
	case ChannelHidden:
		return "hidden"
	default:
		return "unknown"
	}
}
