package http

import (
	"strconv"
	"time"

	"github.com/decoy-web/decoy/http/status"
	"github.com/decoy-web/decoy/kv"
	json "github.com/json-iterator/go"
)

// why 7? Inherited gut feeling: responses of a test fixture rarely carry more.
const preallocRespHeaders = 7

// Response is a to-be-sent response. Construct it via NewResponse and the
// chainable setters; the Content-Length/Transfer-Encoding/Date invariants are
// applied by Normalize, which serialization re-runs defensively.
type Response struct {
	Code    status.Code
	Headers *kv.Storage
	// Body is the response body. nil means "no body"; an empty non-nil slice
	// is a present, zero-length body.
	Body []byte
}

// NewResponse returns a 200 OK response with a Date header pre-populated.
func NewResponse() *Response {
	resp := &Response{
		Code:    status.OK,
		Headers: kv.NewPrealloc(preallocRespHeaders),
	}
	resp.Headers.Add("Date", time.Now().UTC().Format(dateLayout))

	return resp
}

const dateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// WithCode sets the status code.
func (r *Response) WithCode(code status.Code) *Response {
	r.Code = code
	return r
}

// Header overwrites the header, keeping the position of an existing match, or
// appends it.
func (r *Response) Header(key, value string) *Response {
	r.Headers.Set(key, value)
	return r
}

// AddHeader appends the header even if the key is already present.
func (r *Response) AddHeader(key, value string) *Response {
	r.Headers.Add(key, value)
	return r
}

// String sets a textual body, defaulting Content-Type to text/plain.
func (r *Response) String(body string) *Response {
	if !r.Headers.Has("Content-Type") {
		r.Headers.Add("Content-Type", "text/plain")
	}

	return r.Bytes([]byte(body))
}

// Bytes sets the body to the passed slice WITHOUT COPYING.
func (r *Response) Bytes(body []byte) *Response {
	r.Body = body
	return r.Normalize()
}

// TryJSON encodes the model as the response body with an application/json
// content type.
func (r *Response) TryJSON(model any) (*Response, error) {
	body, err := json.ConfigDefault.Marshal(model)
	if err != nil {
		return r, err
	}

	if !r.Headers.Has("Content-Type") {
		r.Headers.Add("Content-Type", "application/json")
	}

	return r.Bytes(body), nil
}

// JSON does the same as TryJSON, turning an encoding failure into a bare 500.
func (r *Response) JSON(model any) *Response {
	resp, err := r.TryJSON(model)
	if err != nil {
		return resp.WithCode(status.InternalServerError).String(err.Error())
	}

	return resp
}

// Normalize applies the body-presence invariants: a body forces an exact
// Content-Length and strips Transfer-Encoding; no body and neither header
// present defaults Content-Length to zero. A missing Date header is filled in.
func (r *Response) Normalize() *Response {
	if r.Body != nil {
		r.Headers.Delete("Transfer-Encoding")
		r.Headers.Set("Content-Length", strconv.Itoa(len(r.Body)))
	} else if !r.Headers.Has("Content-Length") && !r.Headers.Has("Transfer-Encoding") {
		r.Headers.Set("Content-Length", "0")
	}

	if !r.Headers.Has("Date") {
		r.Headers.Add("Date", time.Now().UTC().Format(dateLayout))
	}

	return r
}
