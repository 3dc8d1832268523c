package httpparse

import (
	"strings"

	"github.com/decoy-web/decoy/http/status"
	"github.com/decoy-web/decoy/internal/strutil"
	"github.com/decoy-web/decoy/kv"
	"github.com/indigo-web/utils/uf"
)

// Observer inspects every parsed field line before it is stored. prev carries
// the first previously stored value under the same name, when one exists.
// Returning an error vetoes the whole parse; the caller answers with it.
type Observer func(key, value, prev string, hasPrev bool) error

// ParseBlock decodes a raw header block (everything up to, and excluding, the
// blank-line terminator) into the storage. The block must be ASCII; lines are
// split on line breaks, continuation-unfolded, then split at the first colon
// with linear whitespace trimmed off the value.
func ParseBlock(raw []byte, into *kv.Storage, observe Observer) error {
	if !isASCII(raw) {
		return status.ErrNonASCIIHeaders
	}

	if len(raw) == 0 {
		return nil
	}

	// the stored keys and values alias raw, which callers never reuse
	lines := splitLines(uf.B2S(raw))

	for _, line := range strutil.Unfold(lines) {
		colon := strings.IndexByte(line, ':')
		if colon == -1 {
			return status.ErrBadHeaderSyntax
		}

		key := strutil.TrimLWS(line[:colon])
		if len(key) == 0 {
			return status.ErrBadHeaderSyntax
		}

		value := strutil.TrimLWS(line[colon+1:])

		if observe != nil {
			prev, hasPrev := into.Get(key)
			if err := observe(key, value, prev, hasPrev); err != nil {
				return err
			}
		}

		into.Add(key, value)
	}

	return nil
}

func splitLines(block string) []string {
	lines := strings.Split(block, "\n")
	out := lines[:0]

	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if len(line) == 0 {
			// only the block's own trailing line break produces these
			continue
		}

		out = append(out, line)
	}

	return out
}

func isASCII(raw []byte) bool {
	for _, char := range raw {
		if char >= 0x80 {
			return false
		}
	}

	return true
}
