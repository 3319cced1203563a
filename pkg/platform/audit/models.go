package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers changes to who is verified. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers privilege changes and refused mutations.
	// These feed into SIEM systems and alerting pipelines.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity. Can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	// Subject is the principal the action applied to (studio or new admin).
	Subject string
	Action  string
	// ActorID is the principal that invoked the operation.
	ActorID   string
	Decision  string
	Reason    string
	RequestID string
	ClientIP  string
	UserAgent string
}

type AuditEvent string

const (
	EventStudioVerified             AuditEvent = "studio_verified"
	EventStudioVerificationRevoked  AuditEvent = "studio_verification_revoked"
	EventRegistryAdminTransferred   AuditEvent = "registry_admin_transferred"
	EventRegistryAccessDenied       AuditEvent = "registry_access_denied"
	EventRegistryAuditTrailAccessed AuditEvent = "registry_audit_trail_accessed"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventStudioVerified:            CategoryCompliance,
	EventStudioVerificationRevoked: CategoryCompliance,

	EventRegistryAdminTransferred: CategorySecurity,
	EventRegistryAccessDenied:     CategorySecurity,

	EventRegistryAuditTrailAccessed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Normalize fills the derived fields (ID, category, timestamp) of an event.
func (e Event) Normalize(now time.Time) Event {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Category == "" {
		e.Category = AuditEvent(e.Action).Category()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	return e
}

// Store persists audit events and serves the recent history.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListRecent returns up to limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Publisher accepts audit events from services.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
