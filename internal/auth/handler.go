package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-crm/meridian/internal/access"
	"github.com/meridian-crm/meridian/internal/identity"
	"github.com/meridian-crm/meridian/internal/platform/httpx"
	"github.com/meridian-crm/meridian/internal/session"
	"github.com/meridian-crm/meridian/internal/shared"
)

// WelcomeMailer enqueues the welcome email sent after registration.
type WelcomeMailer interface {
	EnqueueWelcomeEmail(ctx context.Context, email, name string) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	sessions  *shared.SessionManager
	events    *Events
	resolver  *identity.Resolver
	validator *validator.Validate
	mailer    WelcomeMailer
}

// NewHandler constructs a Handler instance. mailer may be nil.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, events *Events, resolver *identity.Resolver, mailer WelcomeMailer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		sessions:  sessions,
		events:    events,
		resolver:  resolver,
		validator: validator.New(),
		mailer:    mailer,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
	r.Get("/stream", h.handleStream)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role"`
}

type principalResponse struct {
	Principal *identity.Principal `json:"principal"`
	IsLoading bool                `json:"is_loading"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Invalid email or password")
		return
	}

	sess.SetUser(user.ID)
	sess.Set(shared.SessionEmailKey, user.Email)

	expiresAt := time.Now().Add(h.sessions.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	h.events.Publish(r.Context(), SessionEvent{
		Token:  sess.ID,
		UserID: user.ID,
		Email:  user.Email,
		Kind:   EventSignedIn,
	})

	principal := h.resolver.Resolve(r.Context(), user.ID, user.Email)
	httpx.JSON(w, http.StatusOK, principalResponse{Principal: &principal})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name, access.Role(req.Role))
	if err != nil {
		if errors.Is(err, shared.ErrEmailTaken) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "An account with this email already exists")
			return
		}
		h.logger.Error("register account", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	if h.mailer != nil {
		if err := h.mailer.EnqueueWelcomeEmail(r.Context(), user.Email, req.Name); err != nil {
			h.logger.Warn("enqueue welcome email", slog.Any("error", err))
		}
	}

	// Registration does not authenticate; the client signs in explicitly.
	httpx.JSON(w, http.StatusCreated, map[string]string{"id": user.ID, "email": user.Email})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.events.Publish(r.Context(), SessionEvent{Token: sess.ID, Kind: EventSignedOut})
		h.sessions.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.JSON(w, http.StatusOK, principalResponse{})
		return
	}
	principal := h.resolver.Resolve(r.Context(), sess.User(), sess.Get(shared.SessionEmailKey))
	httpx.JSON(w, http.StatusOK, principalResponse{Principal: &principal})
}

// handleStream feeds principal-change notifications to the client over SSE.
// A session lifecycle manager bound to this request's token observes the
// event bus and re-resolves the principal on every change.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "streaming unsupported")
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	provider := NewProvider(h.service, h.sessions, h.events, sess.ID, h.logger)
	manager := session.NewManager(provider, h.resolver, h.logger)
	defer manager.Close()

	snapshots := make(chan session.Snapshot, 8)
	unsubscribe := manager.Subscribe(func(snap session.Snapshot) {
		select {
		case snapshots <- snap:
		default:
		}
	})
	defer unsubscribe()

	if err := manager.Start(r.Context()); err != nil {
		h.logger.Error("start session manager", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-snapshots:
			payload, err := json.Marshal(principalResponse{Principal: snap.Principal, IsLoading: snap.IsLoading})
			if err != nil {
				h.logger.Error("marshal snapshot", slog.Any("error", err))
				continue
			}
			if _, err := w.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func validationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldErrs[0].Error()
	}
	return "invalid request"
}
