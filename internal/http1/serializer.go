package http1

import (
	"log"
	"strconv"

	"github.com/decoy-web/decoy/http"
	"github.com/decoy-web/decoy/http/method"
	"github.com/decoy-web/decoy/http/proto"
	"github.com/decoy-web/decoy/http/status"
	"github.com/decoy-web/decoy/internal/httpchars"
	"github.com/decoy-web/decoy/internal/strutil"
	"github.com/decoy-web/decoy/transport"
)

// Serializer renders responses onto the wire. The buffer is reused across
// responses of the same connection.
type Serializer struct {
	client transport.Client
	buff   []byte
}

func NewSerializer(client transport.Client) *Serializer {
	return &Serializer{client: client}
}

// Write renders the response and reports whether the connection may serve
// another request afterwards. req is nil when the response answers a request
// that never parsed far enough to exist.
func (s *Serializer) Write(req *http.Request, resp *http.Response) (keepAlive bool, err error) {
	defer s.clear()

	resp.Normalize()

	forceClose := false
	if bodyForbidden(req, resp) && len(resp.Body) > 0 {
		log.Printf(
			"a response with status code %d must not carry a body, but one of %d bytes was provided; "+
				"discarding it and closing the connection",
			resp.Code, len(resp.Body),
		)

		resp.Body = nil
		resp.Headers.Delete("Content-Length")
		resp.Headers.Delete("Transfer-Encoding")
		forceClose = true
	}

	s.appendStatusLine(resp.Code)

	for key, value := range resp.Headers.Iter() {
		s.appendHeader(key, value)
	}

	s.crlf()

	// a HEAD response advertises the body via its headers but never sends it
	if req == nil || req.Method != method.HEAD {
		s.buff = append(s.buff, resp.Body...)
	}

	if _, err = s.client.Write(s.buff); err != nil {
		return false, err
	}

	return !forceClose && isKeepAlive(req, resp), nil
}

// Responses to these never carry a body, no matter what Content-Length claims.
func bodyForbidden(req *http.Request, resp *http.Response) bool {
	if status.Informational(resp.Code) || resp.Code == status.NoContent || resp.Code == status.NotModified {
		return true
	}

	return req != nil && req.Method == method.CONNECT && status.Successful(resp.Code)
}

// isKeepAlive decides the connection's fate from the response's Connection
// header and the request's protocol version. Only a single-token Connection
// value is recognized; comma-separated lists are treated as opaque.
func isKeepAlive(req *http.Request, resp *http.Response) bool {
	connection := strutil.TrimLWS(resp.Headers.Value("Connection"))
	if strutil.CmpFold(connection, "close") {
		return false
	}

	if req == nil || req.Proto.Less(proto.HTTP10) {
		return false
	}

	if req.Proto == proto.HTTP10 {
		return strutil.CmpFold(connection, "keep-alive")
	}

	return true
}

func (s *Serializer) appendStatusLine(code status.Code) {
	s.buff = append(s.buff, "HTTP/1.1 "...)
	s.buff = strconv.AppendInt(s.buff, int64(code), 10)
	s.buff = append(s.buff, ' ')
	s.buff = append(s.buff, status.Text(code)...)
	s.crlf()
}

func (s *Serializer) appendHeader(key, value string) {
	s.buff = append(s.buff, key...)
	s.buff = append(s.buff, httpchars.COLONSP...)
	s.buff = append(s.buff, value...)
	s.crlf()
}

func (s *Serializer) crlf() {
	s.buff = append(s.buff, httpchars.CRLF...)
}

func (s *Serializer) clear() {
	s.buff = s.buff[:0]
}
