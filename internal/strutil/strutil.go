package strutil

import (
	"bytes"
	"strings"

	"github.com/indigo-web/utils/strcomp"
)

// CmpFold reports whether two strings are equal under ASCII case folding.
func CmpFold(a, b string) bool {
	return strcomp.EqualFold(a, b)
}

// Chomp drops a single trailing CRLF, CR or LF. Everything else is left intact.
func Chomp(line []byte) []byte {
	if n := len(line); n > 0 {
		switch line[n-1] {
		case '\n':
			line = line[:n-1]
			if n > 1 && line[n-2] == '\r' {
				line = line[:n-2]
			}
		case '\r':
			line = line[:n-1]
		}
	}

	return line
}

// TrimLWS strips leading and trailing linear whitespace (spaces and tabs only).
func TrimLWS(str string) string {
	return lstripLWS(rstripLWS(str))
}

func lstripLWS(str string) string {
	for i := 0; i < len(str); i++ {
		switch str[i] {
		case ' ', '\t':
		default:
			return str[i:]
		}
	}

	return ""
}

func rstripLWS(str string) string {
	for i := len(str); i > 0; i-- {
		switch str[i-1] {
		case ' ', '\t':
		default:
			return str[:i]
		}
	}

	return ""
}

// Unfold performs RFC 822 header line unfolding. A leading tab is replaced by a
// single space first; a line that then begins with a space is a continuation of
// the previous line and is appended to it as-is. A continuation with nothing to
// continue loses its single leading space and is emitted standalone.
func Unfold(lines []string) []string {
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if strings.HasPrefix(line, "\t") {
			line = " " + line[1:]
		}

		if strings.HasPrefix(line, " ") {
			if len(out) == 0 {
				out = append(out, line[1:])
				continue
			}

			out[len(out)-1] += line
			continue
		}

		out = append(out, line)
	}

	return out
}

// CutHeader splits a header value into its primary value and the raw parameter
// string following the first semicolon.
func CutHeader(header string) (value, params string) {
	sep := strings.IndexByte(header, ';')
	if sep == -1 {
		return header, ""
	}

	return header[:sep], lstripLWS(header[sep+1:])
}

// Unquote removes one pair of surrounding double quotes, if present.
func Unquote(str string) string {
	if len(str) > 1 && str[0] == '"' && str[len(str)-1] == '"' {
		return str[1 : len(str)-1]
	}

	return str
}

// DecodePath percent-decodes a request path. Malformed escapes report failure.
func DecodePath(str string) (string, bool) {
	if strings.IndexByte(str, '%') == -1 {
		return str, true
	}

	out := make([]byte, 0, len(str))

	for i := 0; i < len(str); i++ {
		if str[i] != '%' {
			out = append(out, str[i])
			continue
		}

		if i+2 >= len(str) {
			return "", false
		}

		hi, lo := unhex(str[i+1]), unhex(str[i+2])
		if hi == 0xFF || lo == 0xFF {
			return "", false
		}

		out = append(out, hi<<4|lo)
		i += 2
	}

	return string(out), true
}

func unhex(char byte) byte {
	switch {
	case char >= '0' && char <= '9':
		return char - '0'
	case char >= 'a' && char <= 'f':
		return char - 'a' + 10
	case char >= 'A' && char <= 'F':
		return char - 'A' + 10
	}

	return 0xFF
}

// Boundary describes an accepted boundary marker occurrence within a buffer.
type Boundary struct {
	// Start is the first index of the match. When the marker is preceded by
	// CRLF, the match is extended to cover it, clipped to the search start.
	Start int
	// End is the index just past the match, including the trailing CRLF if one
	// was consumed.
	End int
	// Terminator is set when the marker is immediately followed by two dashes.
	Terminator bool
}

// NextBoundary locates the next acceptable occurrence of marker in data[from:].
//
// A candidate is accepted only if it is preceded by CRLF (then the CRLF joins
// the match) or sits at the very beginning of the buffer, and if the marker,
// its optional "--" terminator suffix and any trailing linear whitespace are
// followed by CRLF or, for a terminator, by the end of the buffer. Rejected
// candidates resume the search just past themselves.
func NextBoundary(data []byte, from int, marker []byte) (b Boundary, ok bool) {
	for pos := from; pos <= len(data)-len(marker); {
		idx := indexAt(data, pos, marker)
		if idx == -1 {
			return Boundary{}, false
		}

		start := idx
		switch {
		case idx >= 2 && data[idx-2] == '\r' && data[idx-1] == '\n':
			start = idx - 2
			if start < from {
				start = from
			}
		case idx == 0:
		default:
			pos = idx + 1
			continue
		}

		end := idx + len(marker)
		var terminator bool
		if end+2 <= len(data) && data[end] == '-' && data[end+1] == '-' {
			terminator = true
			end += 2
		}

		for end < len(data) && (data[end] == ' ' || data[end] == '\t') {
			end++
		}

		switch {
		case end+2 <= len(data) && data[end] == '\r' && data[end+1] == '\n':
			end += 2
		case end == len(data) && terminator:
		default:
			pos = idx + 1
			continue
		}

		return Boundary{Start: start, End: end, Terminator: terminator}, true
	}

	return Boundary{}, false
}

func indexAt(data []byte, from int, marker []byte) int {
	if from >= len(data) {
		return -1
	}

	idx := bytes.Index(data[from:], marker)
	if idx == -1 {
		return -1
	}

	return from + idx
}
