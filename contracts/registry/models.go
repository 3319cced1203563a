// Package registry hosts the stable DTOs and error codes shared between the
// studioreg server and its clients. Keep these independent from the internal
// registry models so the wire shape can be versioned on its own.
package registry

// ContractVersion identifies the contract schema version for compatibility checks.
// Bump on breaking changes to the shapes below.
const ContractVersion = "v1.0.0"

// CallerHeader carries the acting principal on mutating requests.
const CallerHeader = "X-Caller"

// VerifyRequest is the body of POST /registry/verify and POST /registry/revoke.
type VerifyRequest struct {
	Studio string `json:"studio"`
}

// TransferAdminRequest is the body of POST /registry/transfer-admin.
type TransferAdminRequest struct {
	NewAdmin string `json:"new_admin"`
}

// MutationResponse acknowledges a successful mutation.
type MutationResponse struct {
	OK bool `json:"ok"`
}

// VerificationStatus answers GET /registry/is-verified/{studio}.
type VerificationStatus struct {
	Studio   string `json:"studio"`
	Verified bool   `json:"verified"`
}

// AdminResponse answers GET /registry/admin.
type AdminResponse struct {
	Admin string `json:"admin"`
}

// StudiosResponse answers GET /registry/studios.
type StudiosResponse struct {
	Studios []string `json:"studios"`
	Count   int      `json:"count"`
}

// AuditEvent is the read model of one audit trail entry.
type AuditEvent struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Action    string `json:"action"`
	Subject   string `json:"subject"`
	ActorID   string `json:"actor_id,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// AuditResponse answers GET /registry/audit.
type AuditResponse struct {
	Events []AuditEvent `json:"events"`
}

// ErrorResponse is the JSON envelope for every failed request.
// Code is only set for registry domain errors.
type ErrorResponse struct {
	Error       string    `json:"error"`
	Code        ErrorCode `json:"code,omitempty"`
	Description string    `json:"error_description,omitempty"`
}
