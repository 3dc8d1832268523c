package proto

import "strconv"

// Version is an HTTP protocol version as a (major, minor) pair.
type Version struct {
	Major, Minor uint8
}

var (
	HTTP09 = Version{0, 9}
	HTTP10 = Version{1, 0}
	HTTP11 = Version{1, 1}
)

const (
	tokenLength = len("HTTP/x.x")
	scheme      = "HTTP/"
)

// Parse decodes an "HTTP/<major>.<minor>" token with single-digit components.
func Parse(token string) (Version, bool) {
	if len(token) != tokenLength || token[:len(scheme)] != scheme || token[6] != '.' {
		return Version{}, false
	}

	major, minor := token[5]-'0', token[7]-'0'
	if major > 9 || minor > 9 {
		return Version{}, false
	}

	return Version{major, minor}, true
}

// Supported reports whether the version is one this fixture speaks.
func (v Version) Supported() bool {
	switch v {
	case HTTP09, HTTP10, HTTP11:
		return true
	default:
		return false
	}
}

// Less orders versions lexicographically on (major, minor).
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}

	return v.Minor < other.Minor
}

func (v Version) String() string {
	return scheme + strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor))
}
