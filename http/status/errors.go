package status

// Error is a wire-protocol violation: it maps directly onto the response the
// connection sends before closing.
type Error struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) Error {
	return Error{
		Code:    code,
		Message: message,
	}
}

func (e Error) Error() string {
	return e.Message
}

var (
	ErrBadRequest               = NewError(BadRequest, "Bad Request")
	ErrNonASCIIHeaders          = NewError(BadRequest, "Non-ASCII headers are not supported")
	ErrBadHeaderSyntax          = NewError(BadRequest, "Invalid header syntax")
	ErrConflictingContentLength = NewError(BadRequest, "Conflicting Content-Length headers")
	ErrBadContentLength         = NewError(BadRequest, "Invalid Content-Length")
	ErrBadChunk                 = NewError(BadRequest, "Invalid chunk syntax")
	ErrMethodNotAllowed         = NewError(MethodNotAllowed, "Method Not Allowed")
	ErrEntityTooLarge           = NewError(RequestEntityTooLarge, "Request Entity Too Large")
	ErrInternalServerError      = NewError(InternalServerError, "Internal Server Error")
	ErrUnsupportedEncoding      = NewError(NotImplemented, "Unsupported Transfer-Encoding")
	ErrUnsupportedVersion       = NewError(HTTPVersionNotSupported, "HTTP Version Not Supported")
)
