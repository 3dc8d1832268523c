package http1

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/decoy-web/decoy/http"
	"github.com/decoy-web/decoy/http/method"
	"github.com/decoy-web/decoy/http/proto"
	"github.com/decoy-web/decoy/http/status"
	"github.com/decoy-web/decoy/internal/httpchars"
	"github.com/decoy-web/decoy/internal/httpparse"
	"github.com/decoy-web/decoy/internal/strutil"
	"github.com/decoy-web/decoy/kv"
	"github.com/decoy-web/decoy/transport"
	"github.com/indigo-web/utils/uf"
)

// Bodies beyond this are answered 413 without reading the excess.
const maxBodySize = 5 * 1024 * 1024

// Handler produces the response for a completed request. It must not return
// nil.
type Handler func(*http.Request) *http.Response

type connState uint8

const (
	stateRequestLine connState = iota + 1
	// stateRequestLineStrict no longer tolerates a blank line: exactly one
	// leading CRLF per request is forgiven.
	stateRequestLineStrict
	stateHeaders
	stateFixedLengthBody
	stateChunkedBodySize
	stateChunkedBodyData
	stateChunkedBodyTrailer
)

// errDisconnect tears the connection down without writing anything back:
// either the peer is gone or the exchange is simply over.
var errDisconnect = errors.New("peer disconnected")

// Conn serves HTTP/1.x requests off a single connection, one at a time, until
// the peer leaves, a response forbids keep-alive, or a protocol violation is
// answered.
type Conn struct {
	reader     reader
	serializer *Serializer
	client     transport.Client
	handler    Handler

	state   connState
	pending *http.Request
	// body accumulates decoded chunked data; bodyLen is the remaining
	// fixed-length or current chunk size.
	body    []byte
	bodyLen int
	// trailer accumulates raw trailer bytes; scratch carries the bytes that
	// revealed the trailer's existence into the trailer state.
	trailer []byte
	scratch []byte
}

func NewConn(client transport.Client, handler Handler) *Conn {
	return &Conn{
		reader:     reader{client: client},
		serializer: NewSerializer(client),
		client:     client,
		handler:    handler,
	}
}

// Serve drives the state machine until the connection dies. Protocol
// violations are answered with their mapped status and an explicit
// Connection: close; read failures tear down silently.
func (c *Conn) Serve() {
	defer c.client.Close()

	c.state = stateRequestLine

	for {
		if err := c.step(); err != nil {
			var protoErr status.Error
			if errors.As(err, &protoErr) {
				c.respondError(protoErr)
			}

			return
		}
	}
}

func (c *Conn) step() error {
	switch c.state {
	case stateRequestLine, stateRequestLineStrict:
		line, err := c.reader.line()
		if err != nil {
			return errDisconnect
		}

		if len(strutil.Chomp(line)) == 0 {
			if c.state == stateRequestLineStrict {
				return status.ErrBadRequest
			}

			// a single blank line before the request line is forgiven
			c.state = stateRequestLineStrict
			return nil
		}

		return c.requestLine(line)
	case stateHeaders:
		return c.headers()
	case stateFixedLengthBody:
		return c.fixedLengthBody()
	case stateChunkedBodySize:
		return c.chunkSize()
	case stateChunkedBodyData:
		return c.chunkData()
	case stateChunkedBodyTrailer:
		return c.chunkTrailer()
	default:
		panic(fmt.Sprintf("BUG: http1: unknown connection state %d", c.state))
	}
}

// requestLine parses "<method> <target> <version>". Checks run version first,
// then target, then method, so that the most protocol-fundamental violation
// wins when several coincide.
func (c *Conn) requestLine(line []byte) error {
	tokens := strings.Split(string(strutil.Chomp(line)), " ")
	if len(tokens) != 3 {
		return status.ErrBadRequest
	}

	version, ok := proto.Parse(tokens[2])
	if !ok || !version.Supported() {
		return status.ErrUnsupportedVersion
	}

	rawPath, query, _ := strings.Cut(tokens[1], "?")

	path, ok := strutil.DecodePath(rawPath)
	if !ok || len(path) == 0 {
		return status.ErrBadRequest
	}

	token := method.Upper(tokens[0])

	m := method.Parse(token)
	if m == method.Unknown {
		return status.ErrBadRequest
	}

	request := http.NewRequest()
	request.Method = m
	request.MethodToken = token
	request.Path = path
	request.Query = query
	request.Proto = version
	request.Remote = c.client.Remote()
	c.pending = request

	// extension methods are recognized but never served
	if m == method.Other {
		return status.ErrMethodNotAllowed
	}

	c.state = stateHeaders

	return nil
}

func (c *Conn) headers() error {
	raw, err := c.reader.block()
	if err != nil {
		return errDisconnect
	}

	headers := c.pending.Headers
	if err := httpparse.ParseBlock(raw, headers, rejectConflictingContentLength); err != nil {
		return err
	}

	c.pending.Host = headers.Value("Host")

	if encoding, found := headers.Get("Transfer-Encoding"); found {
		if !strutil.CmpFold(strutil.TrimLWS(encoding), "chunked") {
			return status.ErrUnsupportedEncoding
		}

		c.body = []byte{}
		c.state = stateChunkedBodySize

		return nil
	}

	length, found := headers.Get("Content-Length")
	if !found {
		// no body was transmitted at all
		return c.dispatch()
	}

	n, err := strconv.Atoi(strutil.TrimLWS(length))
	if err != nil || n < 0 {
		return status.ErrBadContentLength
	}

	switch {
	case n == 0:
		c.pending.Body = []byte{}
		return c.dispatch()
	case n > maxBodySize:
		return status.ErrEntityTooLarge
	}

	c.bodyLen = n
	c.state = stateFixedLengthBody

	return nil
}

// rejectConflictingContentLength vetoes a repeated Content-Length whose value
// differs from the first one seen. Byte-identical repetitions pass.
func rejectConflictingContentLength(key, value, prev string, hasPrev bool) error {
	if hasPrev && strutil.CmpFold(key, "Content-Length") && value != prev {
		return status.ErrConflictingContentLength
	}

	return nil
}

func (c *Conn) fixedLengthBody() error {
	body, err := c.reader.exactly(c.bodyLen)
	if err != nil {
		// the peer died mid-body; nothing is dispatched
		return errDisconnect
	}

	c.pending.Body = body

	return c.dispatch()
}

// chunkSize parses one "<hex-size>[;ext]CRLF" line. The size run must be
// terminated by ';' or CR; anything else is a syntax violation.
func (c *Conn) chunkSize() error {
	line, err := c.reader.line()
	if err != nil {
		return errDisconnect
	}

	digits := 0
	for digits < len(line) && isHexDigit(line[digits]) {
		digits++
	}

	if digits == 0 || digits == len(line) || (line[digits] != ';' && line[digits] != '\r') {
		return status.ErrBadChunk
	}

	size, err := strconv.ParseUint(uf.B2S(line[:digits]), 16, 32)
	if err != nil {
		return status.ErrBadChunk
	}

	if size == 0 {
		return c.finishChunked()
	}

	if len(c.body)+int(size) > maxBodySize {
		return status.ErrEntityTooLarge
	}

	c.bodyLen = int(size)
	c.state = stateChunkedBodyData

	return nil
}

// finishChunked runs on the terminal zero-size chunk: the accumulated body is
// attached, then the two bytes following the size line decide between "no
// trailers" and a trailer block.
func (c *Conn) finishChunked() error {
	c.pending.Body = c.body

	head, err := c.reader.exactly(2)
	if err != nil {
		return errDisconnect
	}

	if bytes.Equal(head, httpchars.CRLF) {
		return c.dispatch()
	}

	c.scratch = head
	c.state = stateChunkedBodyTrailer

	return nil
}

// chunkData reads the chunk plus its trailing CRLF and drops the latter.
func (c *Conn) chunkData() error {
	data, err := c.reader.exactly(c.bodyLen + 2)
	if err != nil {
		return errDisconnect
	}

	c.body = append(c.body, data[:len(data)-2]...)
	c.state = stateChunkedBodySize

	return nil
}

// chunkTrailer reads the rest of the trailer block and parses the combined
// buffer like an ordinary header block. The stashed bytes sit mid-line, so the
// first line is completed separately before scanning for the blank-line
// terminator.
func (c *Conn) chunkTrailer() error {
	c.trailer = append(c.trailer, c.scratch...)
	c.scratch = nil

	if c.trailer[len(c.trailer)-1] != '\n' {
		line, err := c.reader.line()
		if err != nil {
			return errDisconnect
		}

		c.trailer = append(c.trailer, line...)
	}

	rest, err := c.reader.block()
	if err != nil {
		return errDisconnect
	}

	c.trailer = append(c.trailer, rest...)

	trailers := kv.New()
	if err := httpparse.ParseBlock(c.trailer, trailers, nil); err != nil {
		return err
	}

	c.pending.Trailers = trailers

	return c.dispatch()
}

func (c *Conn) dispatch() error {
	request := c.pending

	response := c.handler(request)
	if response == nil {
		response = http.NewResponse().WithCode(status.InternalServerError)
	}

	keepAlive, err := c.serializer.Write(request, response)
	if err != nil || !keepAlive {
		return errDisconnect
	}

	c.reset()

	return nil
}

func (c *Conn) reset() {
	c.pending = nil
	c.body = nil
	c.bodyLen = 0
	c.trailer = nil
	c.scratch = nil
	c.state = stateRequestLine
}

func (c *Conn) respondError(protoErr status.Error) {
	response := http.NewResponse().
		WithCode(protoErr.Code).
		Header("Connection", "close").
		String(protoErr.Message)

	_, _ = c.serializer.Write(c.pending, response)
}

func isHexDigit(char byte) bool {
	return char >= '0' && char <= '9' ||
		char >= 'a' && char <= 'f' ||
		char >= 'A' && char <= 'F'
}
