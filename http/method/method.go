package method

type Method uint8

const (
	Unknown Method = iota
	GET
	HEAD
	POST
	PUT
	DELETE
	CONNECT
	OPTIONS
	TRACE
	PATCH
	// Other is an extension method outside the fixed set above. The raw
	// uppercased token travels separately, as the enum itself carries no payload.
	Other
)

// List contains all the supported HTTP methods, sorted by their integer value.
var List = []Method{GET, HEAD, POST, PUT, DELETE, CONNECT, OPTIONS, TRACE, PATCH}

// Parse matches a raw token against the fixed method set, case-insensitively.
// A well-formed token outside the set yields Other; an empty one yields Unknown.
func Parse(str string) Method {
	str = upper(str)

	switch len(str) {
	case 0:
		return Unknown
	case 3:
		if str == "GET" {
			return GET
		} else if str == "PUT" {
			return PUT
		}
	case 4:
		if str == "POST" {
			return POST
		} else if str == "HEAD" {
			return HEAD
		}
	case 5:
		if str == "PATCH" {
			return PATCH
		} else if str == "TRACE" {
			return TRACE
		}
	case 6:
		if str == "DELETE" {
			return DELETE
		}
	case 7:
		if str == "CONNECT" {
			return CONNECT
		} else if str == "OPTIONS" {
			return OPTIONS
		}
	}

	return Other
}

// Upper uppercases an ASCII method token, leaving non-letter bytes alone.
func Upper(token string) string {
	return upper(token)
}

func upper(str string) string {
	upgraded := []byte(nil)

	for i := 0; i < len(str); i++ {
		if str[i] >= 'a' && str[i] <= 'z' {
			if upgraded == nil {
				upgraded = []byte(str)
			}

			upgraded[i] = str[i] - 'a' + 'A'
		}
	}

	if upgraded == nil {
		return str
	}

	return string(upgraded)
}

func (m Method) String() string {
	switch m {
	case GET:
		return "GET"
	case HEAD:
		return "HEAD"
	case POST:
		return "POST"
	case PUT:
		return "PUT"
	case DELETE:
		return "DELETE"
	case CONNECT:
		return "CONNECT"
	case OPTIONS:
		return "OPTIONS"
	case TRACE:
		return "TRACE"
	case PATCH:
		return "PATCH"
	case Other:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}
