package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"studioreg/internal/registry/metrics"
	"studioreg/internal/registry/models"
	dErrors "studioreg/pkg/domain-errors"
	"studioreg/pkg/platform/audit"
	"studioreg/pkg/requestcontext"
)

const tracerName = "studioreg/internal/registry/service"

// Operation names used for metrics, spans and audit reasons.
const (
	OpVerifyStudio       = "verify_studio"
	OpRevokeVerification = "revoke_verification"
	OpIsVerified         = "is_verified"
	OpTransferAdmin      = "transfer_admin"
	OpAuditTrail         = "audit_trail"
)

const defaultAuditLimit = 100

// Store serializes access to the registry aggregate.
type Store interface {
	Execute(ctx context.Context, fn func(*models.Registry) error) error
	View(ctx context.Context, fn func(*models.Registry)) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AuditReader serves the recent audit history to the registry admin.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Service orchestrates registry operations: input validation, the atomic
// store transaction, metrics, tracing and the audit trail.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	auditReader    AuditReader
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	now            func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithAuditReader(reader AuditReader) Option {
	return func(s *Service) {
		s.auditReader = reader
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithClock overrides the time source used for registry and audit timestamps.
// Without it the request-scoped time is used.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs a Service over the given store.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("registry store is required")
	}
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s, nil
}

// VerifyStudio adds target to the verified set. Only the current admin may call it.
func (s *Service) VerifyStudio(ctx context.Context, caller, target models.Principal) error {
	return s.mutate(ctx, OpVerifyStudio, caller, target, func(r *models.Registry, now time.Time) error {
		return r.VerifyStudio(caller, target, now)
	})
}

// RevokeVerification removes target from the verified set. Only the current admin may call it.
func (s *Service) RevokeVerification(ctx context.Context, caller, target models.Principal) error {
	return s.mutate(ctx, OpRevokeVerification, caller, target, func(r *models.Registry, now time.Time) error {
		return r.RevokeVerification(caller, target, now)
	})
}

// TransferAdmin hands the admin role to newAdmin. Transferring to oneself succeeds.
func (s *Service) TransferAdmin(ctx context.Context, caller, newAdmin models.Principal) error {
	return s.mutate(ctx, OpTransferAdmin, caller, newAdmin, func(r *models.Registry, now time.Time) error {
		return r.TransferAdmin(caller, newAdmin, now)
	})
}

// IsVerified reports whether target is verified. It performs no authorization.
func (s *Service) IsVerified(ctx context.Context, target models.Principal) (bool, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.IsVerified",
		trace.WithAttributes(attribute.String("registry.target", target.String())))
	defer span.End()

	if err := requirePrincipal("studio", target); err != nil {
		s.finish(span, OpIsVerified, start, err)
		return false, err
	}

	var verified bool
	err := s.store.View(ctx, func(r *models.Registry) {
		verified = r.IsVerified(target)
	})
	if err != nil {
		err = translateStoreError(err)
		s.finish(span, OpIsVerified, start, err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("registry.verified", verified))
	s.finish(span, OpIsVerified, start, nil)
	return verified, nil
}

// Admin returns the current admin.
func (s *Service) Admin(ctx context.Context) (models.Principal, error) {
	var admin models.Principal
	err := s.store.View(ctx, func(r *models.Registry) {
		admin = r.Admin()
	})
	if err != nil {
		return "", translateStoreError(err)
	}
	return admin, nil
}

// IsAdmin reports whether p is the current admin.
func (s *Service) IsAdmin(ctx context.Context, p models.Principal) (bool, error) {
	var ok bool
	err := s.store.View(ctx, func(r *models.Registry) {
		ok = r.IsAdmin(p)
	})
	if err != nil {
		return false, translateStoreError(err)
	}
	return ok, nil
}

// ListVerified returns the verified studios in ascending order.
func (s *Service) ListVerified(ctx context.Context) ([]models.Principal, error) {
	var studios []models.Principal
	err := s.store.View(ctx, func(r *models.Registry) {
		studios = r.Verified()
	})
	if err != nil {
		return nil, translateStoreError(err)
	}
	return studios, nil
}

// AuditTrail returns up to limit recent audit events, newest first.
// Only the current admin may read the trail.
func (s *Service) AuditTrail(ctx context.Context, caller models.Principal, limit int) ([]audit.Event, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.AuditTrail",
		trace.WithAttributes(attribute.String("registry.caller", caller.String())))
	defer span.End()

	if err := requirePrincipal("caller", caller); err != nil {
		s.finish(span, OpAuditTrail, start, err)
		return nil, err
	}
	if s.auditReader == nil {
		err := dErrors.New(dErrors.CodeUnavailable, "audit trail is not configured")
		s.finish(span, OpAuditTrail, start, err)
		return nil, err
	}

	isAdmin, err := s.IsAdmin(ctx, caller)
	if err != nil {
		s.finish(span, OpAuditTrail, start, err)
		return nil, err
	}
	if !isAdmin {
		err := dErrors.Wrap(models.ErrNotAuthorized, dErrors.CodeForbidden, "caller is not the registry admin")
		s.emitDenied(ctx, OpAuditTrail, caller, "")
		s.finish(span, OpAuditTrail, start, err)
		return nil, err
	}

	if limit <= 0 {
		limit = defaultAuditLimit
	}
	events, err := s.auditReader.ListRecent(ctx, limit)
	if err != nil {
		err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit trail")
		s.finish(span, OpAuditTrail, start, err)
		return nil, err
	}
	s.emit(ctx, audit.EventRegistryAuditTrailAccessed, caller, caller, "")
	s.finish(span, OpAuditTrail, start, nil)
	return events, nil
}

func (s *Service) mutate(
	ctx context.Context,
	op string,
	caller, subject models.Principal,
	fn func(r *models.Registry, now time.Time) error,
) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry."+op, trace.WithAttributes(
		attribute.String("registry.caller", caller.String()),
		attribute.String("registry.subject", subject.String()),
	))
	defer span.End()

	if err := requirePrincipal("caller", caller); err != nil {
		s.finish(span, op, start, err)
		return err
	}
	subjectField := "studio"
	if op == OpTransferAdmin {
		subjectField = "new_admin"
	}
	if err := requirePrincipal(subjectField, subject); err != nil {
		s.finish(span, op, start, err)
		return err
	}

	now := s.clock(ctx)
	var verifiedCount int
	err := s.store.Execute(ctx, func(r *models.Registry) error {
		if err := fn(r, now); err != nil {
			return err
		}
		verifiedCount = r.VerifiedCount()
		return nil
	})
	if err != nil {
		err = translateRegistryError(err)
		if errors.Is(err, models.ErrNotAuthorized) {
			s.emitDenied(ctx, op, caller, subject)
		}
		s.finish(span, op, start, err)
		return err
	}

	switch op {
	case OpVerifyStudio:
		s.emit(ctx, audit.EventStudioVerified, caller, subject, "")
	case OpRevokeVerification:
		s.emit(ctx, audit.EventStudioVerificationRevoked, caller, subject, "")
	case OpTransferAdmin:
		s.emit(ctx, audit.EventRegistryAdminTransferred, caller, subject, "")
		if s.metrics != nil {
			s.metrics.IncrementAdminTransfers()
		}
	}
	if s.metrics != nil {
		s.metrics.SetVerifiedStudios(verifiedCount)
	}
	s.finish(span, op, start, nil)
	return nil
}

// finish records metrics and the span status for a completed operation.
func (s *Service) finish(span trace.Span, op string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.MessageOf(err))
	}
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, outcomeOf(err), start)
	}
}

func (s *Service) emitDenied(ctx context.Context, op string, caller, subject models.Principal) {
	s.emit(ctx, audit.EventRegistryAccessDenied, caller, subject, op)
}

// emit logs the event and forwards it to the audit publisher. Failures are
// logged and never change the outcome of the operation.
func (s *Service) emit(ctx context.Context, event audit.AuditEvent, actor, subject models.Principal, reason string) {
	requestID := requestcontext.RequestID(ctx)
	decision := "granted"
	if event == audit.EventRegistryAccessDenied {
		decision = "denied"
	}
	if s.logger != nil {
		args := []any{
			"event", string(event),
			"log_type", "audit",
			"actor", actor.String(),
			"subject", subject.String(),
		}
		if reason != "" {
			args = append(args, "reason", reason)
		}
		if requestID != "" {
			args = append(args, "request_id", requestID)
		}
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp: s.clock(ctx),
		Subject:   subject.String(),
		Action:    string(event),
		ActorID:   actor.String(),
		Decision:  decision,
		Reason:    reason,
		RequestID: requestID,
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"event", string(event),
			"error", err,
			"request_id", requestID,
		)
	}
}

func (s *Service) clock(ctx context.Context) time.Time {
	if s.now != nil {
		return s.now()
	}
	return requestcontext.Now(ctx)
}

func requirePrincipal(field string, p models.Principal) error {
	if strings.TrimSpace(p.String()) == "" {
		return dErrors.New(dErrors.CodeBadRequest, field+" is required")
	}
	return nil
}

// translateRegistryError maps registry and store failures to domain errors.
// The registry sentinel stays reachable through errors.Is.
func translateRegistryError(err error) error {
	switch {
	case errors.Is(err, models.ErrNotAuthorized):
		return dErrors.Wrap(err, dErrors.CodeForbidden, "caller is not the registry admin")
	case errors.Is(err, models.ErrAlreadyVerified):
		return dErrors.Wrap(err, dErrors.CodeConflict, "studio is already verified")
	case errors.Is(err, models.ErrNotVerified):
		return dErrors.Wrap(err, dErrors.CodeConflict, "studio is not verified")
	default:
		return translateStoreError(err)
	}
}

func translateStoreError(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "registry operation failed")
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, models.ErrNotAuthorized):
		return metrics.OutcomeNotAuthorized
	case errors.Is(err, models.ErrAlreadyVerified):
		return metrics.OutcomeAlreadyVerified
	case errors.Is(err, models.ErrNotVerified):
		return metrics.OutcomeNotVerified
	case dErrors.HasCode(err, dErrors.CodeBadRequest):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
