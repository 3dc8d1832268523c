package http1

import (
	"io"
	"testing"

	"github.com/decoy-web/decoy/transport/dummy"
	"github.com/stretchr/testify/require"
)

func TestReader(t *testing.T) {
	t.Run("line includes its break and pushes the rest back", func(t *testing.T) {
		r := reader{client: dummy.NewStringClient("first\r\nsecond\r\n")}

		line, err := r.line()
		require.NoError(t, err)
		require.Equal(t, "first\r\n", string(line))

		line, err = r.line()
		require.NoError(t, err)
		require.Equal(t, "second\r\n", string(line))

		_, err = r.line()
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("line spans pieces", func(t *testing.T) {
		r := reader{client: dummy.NewClient([]byte("hel"), []byte("lo\r"), []byte("\nrest"))}

		line, err := r.line()
		require.NoError(t, err)
		require.Equal(t, "hello\r\n", string(line))
	})

	t.Run("exactly returns the requested count", func(t *testing.T) {
		r := reader{client: dummy.NewClient([]byte("abc"), []byte("defgh"))}

		data, err := r.exactly(5)
		require.NoError(t, err)
		require.Equal(t, "abcde", string(data))

		data, err = r.exactly(3)
		require.NoError(t, err)
		require.Equal(t, "fgh", string(data))
	})

	t.Run("exactly of zero is empty but present", func(t *testing.T) {
		r := reader{client: dummy.NewStringClient("")}

		data, err := r.exactly(0)
		require.NoError(t, err)
		require.NotNil(t, data)
		require.Empty(t, data)
	})

	t.Run("exactly surfaces a short stream as an error", func(t *testing.T) {
		r := reader{client: dummy.NewStringClient("ab")}

		_, err := r.exactly(5)
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("block stops at the blank line", func(t *testing.T) {
		r := reader{client: dummy.NewStringClient("A: 1\r\nB: 2\r\n\r\nleftover")}

		block, err := r.block()
		require.NoError(t, err)
		require.Equal(t, "A: 1\r\nB: 2\r\n", string(block))

		rest, err := r.exactly(8)
		require.NoError(t, err)
		require.Equal(t, "leftover", string(rest))
	})

	t.Run("empty block", func(t *testing.T) {
		r := reader{client: dummy.NewStringClient("\r\n")}

		block, err := r.block()
		require.NoError(t, err)
		require.Empty(t, block)
	})
}
