package http1

import (
	"bytes"

	"github.com/decoy-web/decoy/internal/strutil"
	"github.com/decoy-web/decoy/transport"
)

// reader layers the three read shapes the state machine needs on top of the
// piecewise transport.Client: one line, an exact byte count, or a whole block
// up to a blank-line terminator. Unconsumed bytes are pushed back, so exactly
// one logical read is outstanding at a time.
type reader struct {
	client transport.Client
	buff   []byte
}

// line reads up to and including the next LF. The returned slice is only
// valid until the next call.
func (r *reader) line() ([]byte, error) {
	r.buff = r.buff[:0]

	for {
		data, err := r.client.Read()
		if err != nil {
			return nil, err
		}

		if lf := bytes.IndexByte(data, '\n'); lf != -1 {
			r.buff = append(r.buff, data[:lf+1]...)
			r.client.Pushback(data[lf+1:])

			return r.buff, nil
		}

		r.buff = append(r.buff, data...)
	}
}

// exactly reads exactly n bytes into a fresh buffer. A peer disconnect midway
// surfaces as the read error, never as a short result.
func (r *reader) exactly(n int) ([]byte, error) {
	out := make([]byte, 0, n)

	for len(out) < n {
		data, err := r.client.Read()
		if err != nil {
			return nil, err
		}

		if need := n - len(out); len(data) >= need {
			out = append(out, data[:need]...)
			r.client.Pushback(data[need:])
			break
		}

		out = append(out, data...)
	}

	return out, nil
}

// block reads lines until a blank one and returns everything before it, line
// breaks included.
func (r *reader) block() ([]byte, error) {
	var out []byte

	for {
		line, err := r.line()
		if err != nil {
			return nil, err
		}

		if len(strutil.Chomp(line)) == 0 {
			return out, nil
		}

		out = append(out, line...)
	}
}
