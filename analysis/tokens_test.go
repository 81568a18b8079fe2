package analysis_test

import (
	"testing"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCursor_MoveTo(t *testing.T) {
	t.Parallel()

	source := "var x = 1; x."
	tokens := kalc.Tokenize(source)

	tests := []struct {
		offset int
		want   string
	}{
		{0, "var"},
		{2, "var"},
		{3, " "},
		{4, "x"},
		{11, "x"},
		{12, "."},
	}

	for _, tt := range tests {
		c := analysis.NewTokenCursor(tokens)
		require.NoError(t, c.MoveTo(tt.offset), "offset %d", tt.offset)
		assert.Equal(t, tt.want, c.Current().Text, "offset %d", tt.offset)
		assert.Equal(t, c.Current().Index, c.Index())
	}
}

func TestTokenCursor_MoveToOutOfRange(t *testing.T) {
	t.Parallel()

	tokens := kalc.Tokenize("abc")

	for _, offset := range []int{-1, 3, 100} {
		c := analysis.NewTokenCursor(tokens)
		assert.ErrorIs(t, c.MoveTo(offset), analysis.ErrOffsetOutOfRange, "offset %d", offset)
	}

	empty := analysis.NewTokenCursor(kalc.Tokenize(""))
	assert.ErrorIs(t, empty.MoveTo(0), analysis.ErrOffsetOutOfRange)
}

func TestTokenCursor_Channels(t *testing.T) {
	t.Parallel()

	tokens := kalc.Tokenize("a // note\n. b")
	c := analysis.NewTokenCursor(tokens)
	require.NoError(t, c.MoveTo(10)) // "."
	require.Equal(t, ".", c.Current().Text)

	prev, ok := c.LookBack(1, kalc.ChannelDefault)
	require.True(t, ok)
	assert.Equal(t, "a", prev.Text)

	hidden, ok := c.LookBack(1, kalc.ChannelHidden)
	require.True(t, ok)
	assert.Equal(t, kalc.TokenWhitespace, hidden.Type)

	comment, ok := c.LookBack(2, kalc.ChannelHidden)
	require.True(t, ok)
	assert.Equal(t, "// note", comment.Text)

	next, ok := c.LookForward(1, kalc.ChannelDefault)
	require.True(t, ok)
	assert.Equal(t, "b", next.Text)

	eof, ok := c.LookForward(2, kalc.ChannelDefault)
	require.True(t, ok)
	assert.True(t, eof.EOF())

	_, ok = c.LookForward(3, kalc.ChannelDefault)
	assert.False(t, ok)

	assert.True(t, c.HasPrevious(kalc.ChannelDefault))
	assert.True(t, c.HasNext(kalc.ChannelDefault))

	require.True(t, c.Back(1, kalc.ChannelDefault))
	assert.Equal(t, "a", c.Current().Text)
	assert.False(t, c.HasPrevious(kalc.ChannelDefault))
	assert.False(t, c.Back(1, kalc.ChannelDefault))
	assert.Equal(t, "a", c.Current().Text, "a failed Back must not move")

	require.True(t, c.Forward(2, kalc.ChannelDefault))
	assert.Equal(t, "b", c.Current().Text)
}

func TestTokenCursor_LookaroundDoesNotMove(t *testing.T) {
	t.Parallel()

	c := analysis.NewTokenCursor(kalc.Tokenize("a.b"))
	require.NoError(t, c.MoveTo(1))

	c.LookBack(1, kalc.ChannelDefault)
	c.LookForward(1, kalc.ChannelDefault)
	c.HasPrevious(kalc.ChannelDefault)

	assert.Equal(t, ".", c.Current().Text)
}
