package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/ports"
	"github.com/trinavo/tenancy/internal/core/tenantctx"
	"github.com/trinavo/tenancy/internal/core/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxJSONBodySize = 1 << 20
	sessionTTL      = 30 * time.Minute
)

type Handler struct {
	tenants     *usecase.TenantService
	provisioner *usecase.Provisioner
	sessions    ports.KeyValueProvider
	channels    ports.TenantLoggers
	logger      *zap.Logger
}

func NewHandler(tenants *usecase.TenantService, provisioner *usecase.Provisioner, sessions ports.KeyValueProvider, channels ports.TenantLoggers, logger *zap.Logger) *Handler {
	return &Handler{
		tenants:     tenants,
		provisioner: provisioner,
		sessions:    sessions,
		channels:    channels,
		logger:      logger,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)

	r.Group(func(tr chi.Router) {
		tr.Use(h.resolveTenant)
		tr.Get("/v1/tenant", h.tenantInfo)
		tr.Post("/v1/tenant/provision", h.provisionTenant)
	})

	return r
}

// resolveTenant switches the request context to the tenant owning the
// request host, exactly once per request. Requests to the main domain pass
// through unbound.
func (h *Handler) resolveTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := h.tenants.SwitchByHost(r.Context(), r.Host)
		if err != nil {
			handleTenantError(w, h.logger, err)
			return
		}

		if binding, ok := tenantctx.From(ctx); ok {
			h.bootstrapSession(w, r, binding)
			if tlog, cerr := h.tenantChannel(binding); cerr == nil {
				tlog.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bootstrapSession issues the tenant-scoped session cookie and records the
// session in the tenant's keyed-store partition. Skipped when no keyed
// store is configured.
func (h *Handler) bootstrapSession(w http.ResponseWriter, r *http.Request, binding tenantctx.Binding) {
	if h.sessions == nil {
		return
	}
	if _, err := r.Cookie(binding.Resources.SessionCookie); err == nil {
		return
	}

	kv, err := h.sessions.ForTenant(binding.Resources)
	if err != nil {
		h.logger.Warn("bind session store", zap.String("slug", binding.Resources.Slug), zap.Error(err))
		return
	}

	sessionID := uuid.NewString()
	if err := kv.Set(r.Context(), "session:"+sessionID, time.Now().UTC().Format(time.RFC3339), sessionTTL); err != nil {
		h.logger.Warn("store session", zap.String("slug", binding.Resources.Slug), zap.Error(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     binding.Resources.SessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

type tenantResponse struct {
	Slug             string `json:"slug"`
	BaseURL          string `json:"base_url"`
	PublicStorageURL string `json:"public_storage_url"`
	DatabasePath     string `json:"database_path"`
	CachePrefix      string `json:"cache_prefix"`
	SessionCookie    string `json:"session_cookie"`
	PartitionIndex   int    `json:"partition_index"`
	Provisioned      bool   `json:"provisioned"`
}

func (h *Handler) tenantInfo(w http.ResponseWriter, r *http.Request) {
	binding, ok := tenantctx.From(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "main domain has no tenant")
		return
	}

	res := binding.Resources
	writeJSON(w, http.StatusOK, tenantResponse{
		Slug:             res.Slug,
		BaseURL:          res.BaseURL,
		PublicStorageURL: res.PublicStorageURL,
		DatabasePath:     res.DatabasePath,
		CachePrefix:      res.CachePrefix,
		SessionCookie:    res.SessionCookie,
		PartitionIndex:   res.PartitionIndex,
		Provisioned:      h.provisioner.IsProvisioned(res),
	})
}

type provisionRequest struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

// provisionTenant initializes the resolved tenant. The owner defaults to
// the registry descriptor; the body may override it.
func (h *Handler) provisionTenant(w http.ResponseWriter, r *http.Request) {
	binding, ok := tenantctx.From(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "main domain has no tenant")
		return
	}

	req := provisionRequest{
		UserName: binding.Descriptor.UserName,
		Email:    binding.Descriptor.UserEmail,
	}
	if r.ContentLength > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.provisioner.Initialize(r.Context(), binding.Descriptor.Slug, req.UserName, req.Email); err != nil {
		handleTenantError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"provisioned": true})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) tenantChannel(binding tenantctx.Binding) (*zap.Logger, error) {
	if h.channels == nil {
		return nil, errors.New("no tenant log channels")
	}
	return h.channels.For(binding.Resources)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func handleTenantError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var notFound *domain.NotFoundError
	var fetchErr *domain.FetchError

	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, "no such site")
	case errors.As(err, &fetchErr):
		logger.Error("tenant registry failure",
			zap.String("domain", fetchErr.Domain),
			zap.String("body", fetchErr.Body),
		)
		writeError(w, http.StatusBadGateway, "tenant lookup temporarily unavailable")
	case errors.Is(err, domain.ErrBindingConflict):
		logger.Error("tenant binding conflict", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	case errors.Is(err, domain.ErrInvalidSlug):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("tenant request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
