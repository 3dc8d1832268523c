package transport

import (
	"net"
)

// Client is the read/write surface a connection's state machine drives. Reads
// block indefinitely: the fixture imposes no deadlines of its own, external
// harnesses force-disconnect instead.
type Client interface {
	Read() ([]byte, error)
	Pushback([]byte)
	Write([]byte) (int, error)
	Conn() net.Conn
	Remote() net.Addr
	Close() error
}

type client struct {
	conn    net.Conn
	buff    []byte
	pending []byte
}

func NewClient(conn net.Conn, buffSize int) Client {
	return &client{
		conn: conn,
		buff: make([]byte, buffSize),
	}
}

// Read returns data preserved via Pushback first, otherwise reads the
// connection into the internal buffer and returns a piece of it.
func (c *client) Read() ([]byte, error) {
	if len(c.pending) > 0 {
		pending := c.pending
		c.pending = nil

		return pending, nil
	}

	n, err := c.conn.Read(c.buff)
	if n > 0 {
		return c.buff[:n], nil
	}

	return nil, err
}

// Pushback preserves a chunk of data from a previous read for the next read.
func (c *client) Pushback(b []byte) {
	c.pending = b
}

// Conn unwraps the underlying net.Conn.
func (c *client) Conn() net.Conn {
	return c.conn
}

// Write writes data into the underlying connection.
func (c *client) Write(b []byte) (int, error) {
	return c.conn.Write(b)
}

// Remote returns the remote address of the connection.
func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the connection.
func (c *client) Close() error {
	return c.conn.Close()
}
