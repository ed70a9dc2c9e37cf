package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"taskmanager/internal/auth/avatar"
	"taskmanager/internal/auth/models"
	id "taskmanager/pkg/domain"
	dErrors "taskmanager/pkg/domain-errors"
	"taskmanager/pkg/platform/httputil"
	"taskmanager/pkg/requestcontext"
)

// Service is the account surface the handler drives.
type Service interface {
	Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResult, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)
	Logout(ctx context.Context, userID id.UserID, token string) error
	LogoutAll(ctx context.Context, userID id.UserID) error
	Profile(ctx context.Context, userID id.UserID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID id.UserID, raw map[string]json.RawMessage) (*models.User, error)
	DeleteAccount(ctx context.Context, userID id.UserID) (*models.User, error)
	UploadAvatar(ctx context.Context, userID id.UserID, png []byte) error
	DeleteAvatar(ctx context.Context, userID id.UserID) error
	Avatar(ctx context.Context, userID id.UserID) ([]byte, error)
}

// retryAfterSeconds is advertised on 429 responses. It matches the default
// lockout window.
const retryAfterSeconds = 900

// Handler serves the /users routes.
type Handler struct {
	accounts    Service
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

func New(accounts Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{
		accounts:    accounts,
		logger:      logger,
		requireAuth: requireAuth,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.handleSignup)
		r.Post("/login", h.handleLogin)
		r.Get("/{id}/avatar", h.handleGetAvatar)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/logout", h.handleLogout)
			r.Post("/logoutAll", h.handleLogoutAll)
			r.Get("/me", h.handleProfile)
			r.Patch("/me", h.handleUpdateProfile)
			r.Delete("/me", h.handleDeleteAccount)
			r.Post("/me/avatar", h.handleUploadAvatar)
			r.Delete("/me/avatar", h.handleDeleteAvatar)
		})
	})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.SignupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.accounts.Signup(ctx, req)
	if err != nil {
		h.fail(ctx, w, "signup", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.accounts.Login(ctx, req)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeTooManyRequests) {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		}
		h.fail(ctx, w, "login", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.accounts.Logout(ctx, requestcontext.UserID(ctx), requestcontext.Token(ctx)); err != nil {
		h.fail(ctx, w, "logout", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.accounts.LogoutAll(ctx, requestcontext.UserID(ctx)); err != nil {
		h.fail(ctx, w, "logout all", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.accounts.Profile(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.fail(ctx, w, "profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var raw map[string]json.RawMessage
	if err := httputil.DecodeJSON(r, &raw); err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.accounts.UpdateProfile(ctx, requestcontext.UserID(ctx), raw)
	if err != nil {
		h.fail(ctx, w, "update profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.accounts.DeleteAccount(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.fail(ctx, w, "delete account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	png, err := avatar.FromRequest(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected avatar upload",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	if err := h.accounts.UploadAvatar(ctx, requestcontext.UserID(ctx), png); err != nil {
		h.fail(ctx, w, "upload avatar", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleDeleteAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.accounts.DeleteAvatar(ctx, requestcontext.UserID(ctx)); err != nil {
		h.fail(ctx, w, "delete avatar", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleGetAvatar is public. Unknown users, malformed IDs and users without
// an avatar all answer 404.
func (h *Handler) handleGetAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "avatar not found"))
		return
	}
	png, err := h.accounts.Avatar(ctx, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			err = dErrors.New(dErrors.CodeNotFound, "avatar not found")
		}
		h.fail(ctx, w, "get avatar", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
