package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	contract "studioreg/contracts/registry"
	"studioreg/internal/platform/metrics"
	"studioreg/internal/platform/middleware"
	"studioreg/internal/registry/models"
	dErrors "studioreg/pkg/domain-errors"
	"studioreg/pkg/platform/audit"
	"studioreg/pkg/platform/httputil"
	adminmw "studioreg/pkg/platform/middleware/admin"
	"studioreg/pkg/platform/middleware/metadata"
	"studioreg/pkg/platform/middleware/requesttime"
	"studioreg/pkg/platform/middleware/version"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxBodyBytes          = 1 << 20
	maxAuditLimit         = 1000
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	VerifyStudio(ctx context.Context, caller, target models.Principal) error
	RevokeVerification(ctx context.Context, caller, target models.Principal) error
	IsVerified(ctx context.Context, target models.Principal) (bool, error)
	TransferAdmin(ctx context.Context, caller, newAdmin models.Principal) error
	Admin(ctx context.Context) (models.Principal, error)
	IsAdmin(ctx context.Context, p models.Principal) (bool, error)
	ListVerified(ctx context.Context) ([]models.Principal, error)
	AuditTrail(ctx context.Context, caller models.Principal, limit int) ([]audit.Event, error)
}

// Handler handles registry endpoints.
type Handler struct {
	logger         *slog.Logger
	registry       Service
	metrics        *metrics.Metrics
	requestTimeout time.Duration
}

type Option func(*Handler)

// WithRequestTimeout overrides the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.requestTimeout = d
		}
	}
}

// New creates a new registry Handler.
func New(registry Service, logger *slog.Logger, metrics *metrics.Metrics, opts ...Option) *Handler {
	h := &Handler{
		logger:         logger,
		registry:       registry,
		metrics:        metrics,
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	registryRouter := chi.NewRouter()
	registryRouter.Use(middleware.Recovery(h.logger))
	registryRouter.Use(middleware.RequestID)
	registryRouter.Use(requesttime.Middleware)
	registryRouter.Use(middleware.Logger(h.logger))
	registryRouter.Use(middleware.Timeout(h.requestTimeout))
	registryRouter.Use(middleware.ContentTypeJSON)
	registryRouter.Use(middleware.LatencyMiddleware(h.metrics))
	registryRouter.Use(metadata.ClientMetadata)
	registryRouter.Use(version.Negotiate(contract.ContractVersion, h.logger))

	registryRouter.Get("/registry/is-verified/{studio}", h.handleIsVerified)
	registryRouter.Get("/registry/admin", h.handleAdmin)
	registryRouter.Get("/registry/studios", h.handleListStudios)

	registryRouter.Group(func(mutations chi.Router) {
		mutations.Use(middleware.RequireCaller(h.logger))
		mutations.Post("/registry/verify", h.handleVerify)
		mutations.Post("/registry/revoke", h.handleRevoke)
		mutations.Post("/registry/transfer-admin", h.handleTransferAdmin)
	})

	registryRouter.Group(func(adminOnly chi.Router) {
		adminOnly.Use(middleware.RequireCaller(h.logger))
		adminOnly.Use(adminmw.RequireRegistryAdmin(h.isAdmin, h.logger))
		adminOnly.Get("/registry/audit", h.handleAuditTrail)
	})

	r.Mount("/", registryRouter)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req contract.VerifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := models.Principal(middleware.GetCaller(ctx))
	if err := h.registry.VerifyStudio(ctx, caller, principal(req.Studio)); err != nil {
		h.writeError(ctx, w, "verify studio", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, contract.MutationResponse{OK: true})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req contract.VerifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := models.Principal(middleware.GetCaller(ctx))
	if err := h.registry.RevokeVerification(ctx, caller, principal(req.Studio)); err != nil {
		h.writeError(ctx, w, "revoke verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, contract.MutationResponse{OK: true})
}

func (h *Handler) handleTransferAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req contract.TransferAdminRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller := models.Principal(middleware.GetCaller(ctx))
	if err := h.registry.TransferAdmin(ctx, caller, principal(req.NewAdmin)); err != nil {
		h.writeError(ctx, w, "transfer admin", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, contract.MutationResponse{OK: true})
}

func (h *Handler) handleIsVerified(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, err := pathParam(r, "studio")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid studio in path"))
		return
	}
	studio := principal(raw)
	verified, err := h.registry.IsVerified(ctx, studio)
	if err != nil {
		h.writeError(ctx, w, "is verified", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, contract.VerificationStatus{
		Studio:   studio.String(),
		Verified: verified,
	})
}

// pathParam returns the decoded URL parameter. chi routes on RawPath when the
// request path carried escapes (e.g. %2F), leaving the parameter encoded.
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current, err := h.registry.Admin(ctx)
	if err != nil {
		h.writeError(ctx, w, "get admin", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, contract.AdminResponse{Admin: current.String()})
}

func (h *Handler) handleListStudios(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studios, err := h.registry.ListVerified(ctx)
	if err != nil {
		h.writeError(ctx, w, "list studios", err)
		return
	}
	out := make([]string, 0, len(studios))
	for _, s := range studios {
		out = append(out, s.String())
	}
	httputil.WriteJSON(w, http.StatusOK, contract.StudiosResponse{Studios: out, Count: len(out)})
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAuditLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
				"limit must be between 1 and "+strconv.Itoa(maxAuditLimit)))
			return
		}
		limit = n
	}

	caller := models.Principal(middleware.GetCaller(ctx))
	events, err := h.registry.AuditTrail(ctx, caller, limit)
	if err != nil {
		h.writeError(ctx, w, "audit trail", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditResponse(events))
}

func (h *Handler) isAdmin(ctx context.Context, caller string) (bool, error) {
	return h.registry.IsAdmin(ctx, models.Principal(caller))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		ctx := r.Context()
		h.logger.WarnContext(ctx, "invalid registry request body",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

// writeError renders registry domain errors with their stable contract code and
// falls back to the generic domain error envelope for everything else.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	requestID := middleware.GetRequestID(ctx)

	var regErr *models.Error
	if errors.As(err, &regErr) {
		h.logger.InfoContext(ctx, "registry operation refused",
			"request_id", requestID,
			"operation", op,
			"error", regErr.Code.String(),
		)
		httputil.WriteJSON(w, registryStatus(regErr.Code), contract.ErrorResponse{
			Error:       regErr.Code.String(),
			Code:        regErr.Code,
			Description: regErr.Message,
		})
		return
	}

	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "registry operation failed",
			"request_id", requestID,
			"operation", op,
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "registry request rejected",
			"request_id", requestID,
			"operation", op,
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func registryStatus(code contract.ErrorCode) int {
	if code == contract.ErrCodeNotAuthorized {
		return http.StatusForbidden
	}
	return http.StatusConflict
}

func principal(raw string) models.Principal {
	return models.Principal(strings.TrimSpace(raw))
}
