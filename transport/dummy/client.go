package dummy

import (
	"io"
	"net"

	"github.com/decoy-web/decoy/transport"
)

var _ transport.Client = new(Client)

// Client feeds pre-recorded pieces of data to a connection, one piece per
// read, and captures everything written back. Once the pieces run out, reads
// report io.EOF, as a closed peer would.
type Client struct {
	pieces  [][]byte
	pending []byte
	pointer int
	closed  bool
	// Written accumulates everything the connection wrote back.
	Written []byte
}

func NewClient(pieces ...[]byte) *Client {
	return &Client{pieces: pieces}
}

// NewStringClient is NewClient over a single string payload.
func NewStringClient(data string) *Client {
	return NewClient([]byte(data))
}

func (c *Client) Read() ([]byte, error) {
	if len(c.pending) > 0 {
		pending := c.pending
		c.pending = nil

		return pending, nil
	}

	if c.closed || c.pointer >= len(c.pieces) {
		return nil, io.EOF
	}

	piece := c.pieces[c.pointer]
	c.pointer++

	return piece, nil
}

func (c *Client) Pushback(b []byte) {
	c.pending = b
}

func (c *Client) Write(b []byte) (int, error) {
	c.Written = append(c.Written, b...)
	return len(b), nil
}

func (c *Client) Conn() net.Conn {
	return nil
}

func (c *Client) Remote() net.Addr {
	return nil
}

func (c *Client) Close() error {
	c.closed = true
	return nil
}

// Closed reports whether the connection was torn down.
func (c *Client) Closed() bool {
	return c.closed
}
