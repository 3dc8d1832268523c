package strutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChomp(t *testing.T) {
	require.Equal(t, "hello", string(Chomp([]byte("hello\r\n"))))
	require.Equal(t, "hello", string(Chomp([]byte("hello\n"))))
	require.Equal(t, "hello", string(Chomp([]byte("hello\r"))))
	require.Equal(t, "hello\r\n", string(Chomp([]byte("hello\r\n\r\n"))))
	require.Empty(t, string(Chomp([]byte("\r\n"))))
	require.Empty(t, string(Chomp(nil)))
}

func TestTrimLWS(t *testing.T) {
	require.Equal(t, "value", TrimLWS("  \tvalue\t "))
	require.Equal(t, "va  lue", TrimLWS("va  lue"))
	require.Empty(t, TrimLWS(" \t "))
	require.Equal(t, "\r", TrimLWS(" \r "), "only spaces and tabs are linear whitespace")
}

func TestUnfold(t *testing.T) {
	t.Run("continuation joins previous line", func(t *testing.T) {
		got := Unfold([]string{"Key: multi", " line value"})
		require.Equal(t, []string{"Key: multi line value"}, got)
	})

	t.Run("leading tab becomes a space", func(t *testing.T) {
		got := Unfold([]string{"Key: multi", "\tline value"})
		require.Equal(t, []string{"Key: multi line value"}, got)
	})

	t.Run("orphan continuation loses one space", func(t *testing.T) {
		got := Unfold([]string{"  orphan"})
		require.Equal(t, []string{" orphan"}, got)
	})

	t.Run("ordinary lines pass through", func(t *testing.T) {
		lines := []string{"A: b", "C: d"}
		require.Equal(t, lines, Unfold(lines))
	})
}

func TestCutHeader(t *testing.T) {
	value, params := CutHeader("text/html; charset=utf-8")
	require.Equal(t, "text/html", value)
	require.Equal(t, "charset=utf-8", params)

	value, params = CutHeader("text/html")
	require.Equal(t, "text/html", value)
	require.Empty(t, params)
}

func TestUnquote(t *testing.T) {
	require.Equal(t, "boundary", Unquote(`"boundary"`))
	require.Equal(t, "boundary", Unquote("boundary"))
	require.Equal(t, `"`, Unquote(`"`), "a single quote is not a pair")
	require.Equal(t, `"half`, Unquote(`"half`))
}

func TestDecodePath(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		path, ok := DecodePath("/hello/world")
		require.True(t, ok)
		require.Equal(t, "/hello/world", path)
	})

	t.Run("escapes", func(t *testing.T) {
		path, ok := DecodePath("/hello%20world%2Ftest")
		require.True(t, ok)
		require.Equal(t, "/hello world/test", path)
	})

	t.Run("truncated escape", func(t *testing.T) {
		_, ok := DecodePath("/hello%2")
		require.False(t, ok)
	})

	t.Run("bad hex digit", func(t *testing.T) {
		_, ok := DecodePath("/hello%2x")
		require.False(t, ok)
	})
}

func TestNextBoundary(t *testing.T) {
	marker := []byte("--bound")

	t.Run("at buffer start", func(t *testing.T) {
		data := []byte("--bound\r\ncontent")

		b, ok := NextBoundary(data, 0, marker)
		require.True(t, ok)
		require.Equal(t, Boundary{Start: 0, End: 9}, b)
	})

	t.Run("preceded by CRLF extends the match", func(t *testing.T) {
		data := []byte("part one\r\n--bound\r\npart two")

		b, ok := NextBoundary(data, 0, marker)
		require.True(t, ok)
		require.Equal(t, Boundary{Start: 8, End: 19}, b)
	})

	t.Run("start never precedes the search origin", func(t *testing.T) {
		data := []byte("xy\r\n--bound\r\n")

		b, ok := NextBoundary(data, 3, marker)
		require.True(t, ok)
		require.Equal(t, 3, b.Start)
	})

	t.Run("mid-line occurrence is rejected", func(t *testing.T) {
		data := []byte("the --bound marker inline\r\n--bound\r\n")

		b, ok := NextBoundary(data, 0, marker)
		require.True(t, ok)
		require.Equal(t, 25, b.Start)
	})

	t.Run("terminator with trailing whitespace", func(t *testing.T) {
		data := []byte("--bound-- \t\r\n")

		b, ok := NextBoundary(data, 0, marker)
		require.True(t, ok)
		require.True(t, b.Terminator)
		require.Equal(t, len(data), b.End)
	})

	t.Run("terminator at end of buffer needs no CRLF", func(t *testing.T) {
		data := []byte("--bound--")

		b, ok := NextBoundary(data, 0, marker)
		require.True(t, ok)
		require.True(t, b.Terminator)
		require.Equal(t, len(data), b.End)
	})

	t.Run("non-terminator at end of buffer is rejected", func(t *testing.T) {
		_, ok := NextBoundary([]byte("--bound"), 0, marker)
		require.False(t, ok)
	})

	t.Run("garbage after marker is rejected", func(t *testing.T) {
		_, ok := NextBoundary([]byte("--boundary\r\n"), 0, marker)
		require.False(t, ok)
	})

	t.Run("missing marker", func(t *testing.T) {
		_, ok := NextBoundary([]byte("nothing here"), 0, marker)
		require.False(t, ok)
	})
}
