package models

import contract "studioreg/contracts/registry"

// Error is a registry domain error. Each value carries the stable contract code
// so every layer can report the same number the original contract used.
type Error struct {
	Code    contract.ErrorCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// The three registry failure kinds. All are caller-correctable.
var (
	ErrNotAuthorized   = &Error{Code: contract.ErrCodeNotAuthorized, Message: "caller is not the registry admin"}
	ErrAlreadyVerified = &Error{Code: contract.ErrCodeAlreadyVerified, Message: "studio is already verified"}
	ErrNotVerified     = &Error{Code: contract.ErrCodeNotVerified, Message: "studio is not verified"}
)
