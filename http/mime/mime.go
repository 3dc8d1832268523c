package mime

import (
	"strings"

	"github.com/decoy-web/decoy/internal/strutil"
)

// Param is a single header-value parameter. Names compare case-insensitively,
// values case-sensitively.
type Param struct {
	Name, Value string
}

// MediaType is a parsed Content-Type alike value: a primary "type/subtype"
// token plus its parameters in their original order. Parameter order is
// significant for equality, so round-trips stay exact.
type MediaType struct {
	Value  string
	Params []Param
}

// ParseMediaType splits a header value into the primary value and its
// parameter list. The primary value must be non-empty.
func ParseMediaType(raw string) (MediaType, bool) {
	value, params, ok := parseValue(raw)
	return MediaType{Value: value, Params: params}, ok
}

// Type returns the primary type before the slash, e.g. "multipart" for
// "multipart/form-data". The whole value is returned when there's no slash.
func (m MediaType) Type() string {
	if slash := strings.IndexByte(m.Value, '/'); slash != -1 {
		return m.Value[:slash]
	}

	return m.Value
}

// Param looks a parameter up by name, case-insensitively, in order.
func (m MediaType) Param(name string) (string, bool) {
	return lookup(m.Params, name)
}

func (m MediaType) Equal(other MediaType) bool {
	return m.Value == other.Value && equalParams(m.Params, other.Params)
}

func (m MediaType) String() string {
	return render(m.Value, m.Params)
}

// ContentDisposition is a parsed Content-Disposition value, shaped exactly
// like MediaType but kept distinct so the two can't be mixed up.
type ContentDisposition struct {
	Value  string
	Params []Param
}

func ParseContentDisposition(raw string) (ContentDisposition, bool) {
	value, params, ok := parseValue(raw)
	return ContentDisposition{Value: value, Params: params}, ok
}

func (c ContentDisposition) Param(name string) (string, bool) {
	return lookup(c.Params, name)
}

func (c ContentDisposition) Equal(other ContentDisposition) bool {
	return c.Value == other.Value && equalParams(c.Params, other.Params)
}

func (c ContentDisposition) String() string {
	return render(c.Value, c.Params)
}

func parseValue(raw string) (value string, params []Param, ok bool) {
	value, rest := strutil.CutHeader(raw)
	value = strutil.TrimLWS(value)
	if len(value) == 0 {
		return "", nil, false
	}

	for len(rest) > 0 {
		var segment string
		if sep := strings.IndexByte(rest, ';'); sep == -1 {
			segment, rest = rest, ""
		} else {
			segment, rest = rest[:sep], rest[sep+1:]
		}

		segment = strutil.TrimLWS(segment)
		if len(segment) == 0 {
			continue
		}

		name, paramValue, found := strings.Cut(segment, "=")
		name = strutil.TrimLWS(name)
		if !found || len(name) == 0 {
			return "", nil, false
		}

		params = append(params, Param{
			Name:  name,
			Value: strutil.Unquote(strutil.TrimLWS(paramValue)),
		})
	}

	return value, params, true
}

func lookup(params []Param, name string) (string, bool) {
	for _, param := range params {
		if strutil.CmpFold(param.Name, name) {
			return param.Value, true
		}
	}

	return "", false
}

func equalParams(a, b []Param) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !strutil.CmpFold(a[i].Name, b[i].Name) || a[i].Value != b[i].Value {
			return false
		}
	}

	return true
}

func render(value string, params []Param) string {
	var b strings.Builder
	b.WriteString(value)

	for _, param := range params {
		b.WriteString("; ")
		b.WriteString(param.Name)
		b.WriteByte('=')
		b.WriteString(param.Value)
	}

	return b.String()
}
