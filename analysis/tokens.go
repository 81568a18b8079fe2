// Package analysis provides cursors over a compiled unit: a token cursor for
// walking the token stream around an offset and a syntax cursor for finding
// the nodes that enclose it.
package analysis

import (
	"errors"
	"sort"

	"github.com/rlch/kalc"
)

// ErrOffsetOutOfRange is returned when an offset lies outside the source.
var ErrOffsetOutOfRange = errors.New("offset out of range")

// TokenCursor is a position in a token stream. Movement and lookaround can be
// restricted to one channel, so hidden whitespace and comments can be skipped.
//
// A cursor is not safe for concurrent use; the stream it reads is never
// modified.
type TokenCursor struct {
	tokens []kalc.Token
	index  int
}

// NewTokenCursor creates a cursor on the first token of a stream produced by
// kalc.Tokenize.
func NewTokenCursor(tokens []kalc.Token) *TokenCursor {
	return &TokenCursor{tokens: tokens}
}

// MoveTo positions the cursor on the token whose span covers offset.
// Offsets outside [0, len(source)) return ErrOffsetOutOfRange and leave the
// cursor where it was.
func (c *TokenCursor) MoveTo(offset int) error {
	if len(c.tokens) == 0 || offset < 0 {
		return ErrOffsetOutOfRange
	}

	end := c.tokens[len(c.tokens)-1].Span.End
	if offset >= end {
		return ErrOffsetOutOfRange
	}

	idx := sort.Search(len(c.tokens), func(i int) bool { return c.tokens[i].Span.End > offset })
	if idx >= len(c.tokens) || !c.tokens[idx].Span.Contains(offset) {
		return ErrOffsetOutOfRange
	}

	c.index = idx

	return nil
}

// Current returns the token under the cursor.
func (c *TokenCursor) Current() kalc.Token {
	return c.tokens[c.index]
}

// Index returns the stream index of the token under the cursor.
func (c *TokenCursor) Index() int {
	return c.index
}

// Back moves the cursor n tokens of channel ch backwards. If there are fewer
// than n such tokens it does not move and returns false.
func (c *TokenCursor) Back(n int, ch kalc.Channel) bool {
	idx, ok := c.seek(-1, n, ch)
	if ok {
		c.index = idx
	}

	return ok
}

// Forward moves the cursor n tokens of channel ch forwards. If there are
// fewer than n such tokens it does not move and returns false.
func (c *TokenCursor) Forward(n int, ch kalc.Channel) bool {
	idx, ok := c.seek(1, n, ch)
	if ok {
		c.index = idx
	}

	return ok
}

// LookBack returns the n-th token of channel ch before the cursor.
func (c *TokenCursor) LookBack(n int, ch kalc.Channel) (kalc.Token, bool) {
	idx, ok := c.seek(-1, n, ch)
	if !ok {
		return kalc.Token{}, false
	}

	return c.tokens[idx], true
}

// LookForward returns the n-th token of channel ch after the cursor.
func (c *TokenCursor) LookForward(n int, ch kalc.Channel) (kalc.Token, bool) {
	idx, ok := c.seek(1, n, ch)
	if !ok {
		return kalc.Token{}, false
	}

	return c.tokens[idx], true
}

// HasPrevious reports whether a token of channel ch precedes the cursor.
func (c *TokenCursor) HasPrevious(ch kalc.Channel) bool {
	_, ok := c.seek(-1, 1, ch)

	return ok
}

// HasNext reports whether a token of channel ch follows the cursor. The EOF
// token counts.
func (c *TokenCursor) HasNext(ch kalc.Channel) bool {
	_, ok := c.seek(1, 1, ch)

	return ok
}

func (c *TokenCursor) seek(step, n int, ch kalc.Channel) (int, bool) {
	if n <= 0 {
		return c.index, n == 0
	}

	for i := c.index + step; i >= 0 && i < len(c.tokens); i += step {
		if c.tokens[i].Channel != ch {
			continue
		}

		n--
		if n == 0 {
			return i, true
		}
	}

	return c.index, false
}
