package registry

// ErrorCode is the stable numeric identifier of a registry domain error.
// Values are part of the public contract and must never be renumbered.
type ErrorCode int

const (
	ErrCodeNotAuthorized   ErrorCode = 100
	ErrCodeAlreadyVerified ErrorCode = 101
	ErrCodeNotVerified     ErrorCode = 102
)

// String returns the snake_case name used in the "error" field of responses.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeNotAuthorized:
		return "not_authorized"
	case ErrCodeAlreadyVerified:
		return "already_verified"
	case ErrCodeNotVerified:
		return "not_verified"
	default:
		return "unknown"
	}
}

// ParseErrorCode maps a response "error" name back to its code.
func ParseErrorCode(name string) (ErrorCode, bool) {
	for _, c := range []ErrorCode{ErrCodeNotAuthorized, ErrCodeAlreadyVerified, ErrCodeNotVerified} {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}
