// Package multipart decodes multipart/* request bodies into their parts. The
// decoder runs over a complete body buffer after the request was received and
// dispatched; its failures are returned to the caller, never written to the
// wire.
package multipart

import (
	"bytes"
	"errors"
	"strings"

	"github.com/decoy-web/decoy/http"
	"github.com/decoy-web/decoy/http/mime"
	"github.com/decoy-web/decoy/internal/httpparse"
	"github.com/decoy-web/decoy/internal/strutil"
	"github.com/decoy-web/decoy/kv"
)

var (
	ErrNotMultipart    = errors.New("content type is not multipart")
	ErrMissingBoundary = errors.New("no boundary parameter in content type")
	ErrMissingBody     = errors.New("request has no body")
	ErrInvalidBoundary = errors.New("boundary contains CR or LF")
	ErrNoFirstBoundary = errors.New("cannot find first boundary")
	ErrNoTerminator    = errors.New("cannot find boundary terminator")
	ErrBadPartHeaders  = errors.New("invalid body part headers")
)

// Body is a decoded multipart payload: the normalized "type/subtype" of the
// envelope plus its parts in discovery order. It is built in one shot; any
// failure aborts the whole decode.
type Body struct {
	ContentType string
	Parts       []Part
}

// Part is a single body part with its own header block.
type Part struct {
	Headers *kv.Storage
	// Disposition is the parsed Content-Disposition, or nil when absent.
	Disposition *mime.ContentDisposition
	// Type is the parsed Content-Type, or nil when absent. Defaulting absent
	// types (to text/plain or otherwise) is the caller's business.
	Type *mime.MediaType
	// Content is the raw part body, excluding the CRLF preceding the next
	// boundary.
	Content []byte
}

// Of decodes the request's body, driven by its Content-Type header.
func Of(req *http.Request) (*Body, error) {
	return Parse(req.Headers.Value("Content-Type"), req.Body)
}

// Parse splits the body buffer at the boundary taken from the content type.
// Anything before the first boundary is a discardable preamble; parts between
// boundaries are decoded in order until the terminator boundary is reached.
func Parse(contentType string, body []byte) (*Body, error) {
	mt, ok := mime.ParseMediaType(contentType)
	if !ok || !strings.HasPrefix(mt.Value, "multipart/") {
		return nil, ErrNotMultipart
	}

	boundary, found := mt.Param("boundary")
	if !found || len(boundary) == 0 {
		return nil, ErrMissingBoundary
	}

	if body == nil {
		return nil, ErrMissingBody
	}

	if strings.ContainsAny(boundary, "\r\n") {
		return nil, ErrInvalidBoundary
	}

	marker := []byte("--" + boundary)

	prev, found := strutil.NextBoundary(body, 0, marker)
	if !found {
		return nil, ErrNoFirstBoundary
	}

	parts := []Part(nil)

	for !prev.Terminator {
		next, found := strutil.NextBoundary(body, prev.End, marker)
		if !found {
			return nil, ErrNoTerminator
		}

		part, err := parsePart(body[prev.End:next.Start])
		if err != nil {
			return nil, err
		}

		parts = append(parts, part)
		prev = next
	}

	return &Body{
		ContentType: mt.Value,
		Parts:       parts,
	}, nil
}

var crlfcrlf = []byte("\r\n\r\n")

func parsePart(content []byte) (Part, error) {
	var rawHeaders, body []byte

	switch {
	case bytes.HasPrefix(content, crlfcrlf[:2]):
		// empty header block
		body = content[2:]
	default:
		end := bytes.Index(content, crlfcrlf)
		if end == -1 {
			return Part{}, ErrBadPartHeaders
		}

		rawHeaders, body = content[:end], content[end+len(crlfcrlf):]
	}

	headers := kv.New()
	if err := httpparse.ParseBlock(rawHeaders, headers, nil); err != nil {
		return Part{}, ErrBadPartHeaders
	}

	part := Part{
		Headers: headers,
		Content: body,
	}

	if raw, found := headers.Get("Content-Disposition"); found {
		cd, ok := mime.ParseContentDisposition(raw)
		if !ok {
			return Part{}, ErrBadPartHeaders
		}

		part.Disposition = &cd
	}

	if raw, found := headers.Get("Content-Type"); found {
		mt, ok := mime.ParseMediaType(raw)
		if !ok {
			return Part{}, ErrBadPartHeaders
		}

		part.Type = &mt
	}

	return part, nil
}
