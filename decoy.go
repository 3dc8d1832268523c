// Package decoy is an embeddable HTTP/1.x test double. A Server binds a real
// loopback socket the moment it is constructed and answers every request by
// walking its registered callbacks in order; what it is NOT is a general
// purpose web server.
package decoy

import (
	"crypto/tls"
	"net"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/decoy-web/decoy/http"
	"github.com/decoy-web/decoy/http/status"
)

// Callback decides whether to answer a dispatched request. complete must be
// invoked exactly once: with a response to answer the request, or with nil to
// fall through to the next callback in registration order. A second invocation
// panics.
type Callback func(req *http.Request, complete func(*http.Response))

// UnhandledCallback produces the response when no registered callback claimed
// the request. suggested is a ready-made 404 the callback may return as-is,
// modify, or replace. Returning nil falls back to the suggested response.
type UnhandledCallback func(req *http.Request, suggested *http.Response) *http.Response

// Token identifies a single registration for later removal. Only its identity
// matters.
type Token struct{ _ byte }

const readBuffSize = 4 * 1024

type options struct {
	addr       string
	certs      []tls.Certificate
	domains    []string
	selfSigned bool
	autoTLS    bool
}

type Option func(*options)

// WithAddress overrides the default listen address of 127.0.0.1 with an
// ephemeral port.
func WithAddress(addr string) Option {
	return func(o *options) {
		o.addr = addr
	}
}

// WithTLS serves TLS with the passed certificates.
func WithTLS(certs ...tls.Certificate) Option {
	return func(o *options) {
		o.certs = append(o.certs, certs...)
	}
}

// WithSelfSignedTLS serves TLS with a freshly generated in-memory self-signed
// certificate, valid for localhost and the loopback addresses. Clients must
// be configured to trust it or to skip verification.
func WithSelfSignedTLS() Option {
	return func(o *options) {
		o.selfSigned = true
	}
}

// WithAutoTLS serves TLS with ACME-issued certificates for the passed domains.
// Only meaningful on a publicly reachable address.
func WithAutoTLS(domains ...string) Option {
	return func(o *options) {
		o.autoTLS = true
		o.domains = append(o.domains, domains...)
	}
}

// Server is a live test double. Its socket is bound and accepting from the
// moment New returns; Invalidate releases it.
type Server struct {
	listener net.Listener
	host     string
	port     int
	reg      registry
	conns    connTracker
	closed   atomic.Bool
	done     chan struct{}
}

// New binds the socket and starts serving. The default address is
// 127.0.0.1:0, so parallel servers never contend for a port.
func New(opts ...Option) (*Server, error) {
	o := options{addr: "127.0.0.1:0"}
	for _, opt := range opts {
		opt(&o)
	}

	listener, err := listen(o)
	if err != nil {
		return nil, err
	}

	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	s := &Server{
		listener: listener,
		host:     host,
		port:     port,
		done:     make(chan struct{}),
	}
	s.conns.init()

	go s.acceptLoop()

	return s, nil
}

func listen(o options) (net.Listener, error) {
	if o.autoTLS {
		return autoTLSListener(o.addr, o.domains...)
	}

	if o.selfSigned {
		cert, err := selfSignedCertificate()
		if err != nil {
			return nil, err
		}

		o.certs = append(o.certs, cert)
	}

	listener, err := net.Listen("tcp", o.addr)
	if err != nil {
		return nil, err
	}

	if len(o.certs) > 0 {
		listener = tls.NewListener(listener, &tls.Config{Certificates: o.certs})
	}

	return listener, nil
}

// Host returns the IP address the server is bound to.
func (s *Server) Host() string {
	return s.host
}

// Port returns the bound port.
func (s *Server) Port() int {
	return s.port
}

// Addr returns "host:port", or just the host when bound to port 80.
func (s *Server) Addr() string {
	if s.port == 80 {
		return s.host
	}

	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// Register appends the callback to the dispatch chain. Requests in flight
// keep the chain they started with.
func (s *Server) Register(cb Callback) *Token {
	return s.reg.add(cb)
}

// PathOption tunes RegisterPath matching.
type PathOption func(*pathOptions)

type pathOptions struct {
	ignoreTrailingSlash bool
}

// IgnoreTrailingSlash makes "/foo" and "/foo/" interchangeable. The root path
// "/" is never stripped.
func IgnoreTrailingSlash() PathOption {
	return func(o *pathOptions) {
		o.ignoreTrailingSlash = true
	}
}

// RegisterPath registers a callback guarded by an exact match against the
// percent-decoded request path. Non-matching requests fall through as if the
// callback declined them.
func (s *Server) RegisterPath(path string, cb Callback, opts ...PathOption) *Token {
	o := pathOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	return s.Register(func(req *http.Request, complete func(*http.Response)) {
		if !pathMatches(req.Path, path, o.ignoreTrailingSlash) {
			complete(nil)
			return
		}

		cb(req, complete)
	})
}

// Unregister removes the registration behind the token. Unknown tokens are
// ignored.
func (s *Server) Unregister(token *Token) {
	s.reg.remove(token)
}

// Clear drops every registered callback. The unhandled and listen-error
// callbacks stay.
func (s *Server) Clear() {
	s.reg.clear()
}

// SetUnhandled installs the callback answering requests no registered
// callback claimed. Passing nil restores the built-in 404.
func (s *Server) SetUnhandled(cb UnhandledCallback) {
	s.reg.setUnhandled(cb)
}

// Unhandled returns the currently installed unhandled-request callback.
func (s *Server) Unhandled() UnhandledCallback {
	return s.reg.getUnhandled()
}

// SetListenError installs the callback invoked when accepting a connection
// fails for a reason other than teardown.
func (s *Server) SetListenError(cb func(error)) {
	s.reg.setListenError(cb)
}

// ListenError returns the currently installed listen-error callback.
func (s *Server) ListenError() func(error) {
	return s.reg.getListenError()
}

// dispatch walks a snapshot of the callback chain until one of them completes
// with a response. It runs on the connection's goroutine.
func (s *Server) dispatch(req *http.Request) *http.Response {
	callbacks, unhandled := s.reg.snapshot()

	for _, cb := range callbacks {
		if resp := invoke(cb, req); resp != nil {
			return resp
		}
	}

	suggested := http.NewResponse().WithCode(status.NotFound)
	if unhandled != nil {
		if resp := unhandled(req, suggested); resp != nil {
			return resp
		}
	}

	return suggested
}

// invoke runs one callback and waits for its completion, which may arrive
// from any goroutine. Completing twice is a contract violation the test
// author must hear about, hence the panic.
func invoke(cb Callback, req *http.Request) *http.Response {
	result := make(chan *http.Response, 1)
	fired := new(atomic.Bool)

	cb(req, func(resp *http.Response) {
		if fired.Swap(true) {
			panic("decoy: a request completion was invoked twice")
		}

		result <- resp
	})

	return <-result
}

func pathMatches(got, want string, ignoreTrailingSlash bool) bool {
	if got == want {
		return true
	}

	if !ignoreTrailingSlash {
		return false
	}

	return stripTrailingSlash(got) == stripTrailingSlash(want)
}

func stripTrailingSlash(path string) string {
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return path[:len(path)-1]
	}

	return path
}
