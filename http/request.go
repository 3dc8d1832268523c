package http

import (
	"net"

	"github.com/decoy-web/decoy/http/method"
	"github.com/decoy-web/decoy/http/proto"
	"github.com/decoy-web/decoy/kv"
)

// Request is a fully parsed inbound request. It is assembled piece by piece as
// parsing advances and must be treated as immutable once handed to callbacks.
type Request struct {
	// Method is the matched request method. Extension methods outside the
	// fixed set are tagged method.Other, with the raw token in MethodToken.
	Method method.Method
	// MethodToken is the uppercased method token exactly as received.
	MethodToken string
	// Path is the percent-decoded request path.
	Path string
	// Query is the raw query string, without the leading question mark.
	Query string
	// Host is the request authority. Populated only when a Host header was
	// present.
	Host string
	// Proto is the request's HTTP version.
	Proto proto.Version
	// Headers holds the header fields with their original casing; lookup is
	// case-insensitive.
	Headers *kv.Storage
	// Trailers holds trailer fields and is non-nil only after a chunked body
	// carrying trailer lines.
	Trailers *kv.Storage
	// Body is the request body. It is nil when no body was transmitted and
	// empty but non-nil when a zero length was explicitly declared.
	Body []byte
	// Remote is the peer address of the connection the request arrived on.
	Remote net.Addr
}

func NewRequest() *Request {
	return &Request{
		Proto:   proto.HTTP11,
		Headers: kv.New(),
	}
}
