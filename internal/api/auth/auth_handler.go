package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/multigenqa/internal/api"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

type AuthHandler struct {
	AuthService AuthService
	logger      *slog.Logger
	// exposeVerificationToken echoes the verification token in the
	// register response for local development.
	exposeVerificationToken bool
}

func NewAuthHandler(authService AuthService, logger *slog.Logger, exposeVerificationToken bool) *AuthHandler {
	return &AuthHandler{
		logger:                  logger,
		AuthService:             authService,
		exposeVerificationToken: exposeVerificationToken,
	}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates an unverified account. Does not log the user in.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.RegisterRequest true "Registration details"
// @Success      201 {object} types.RegisterResponse
// @Failure      400 {object} types.ValidationErrorBody
// @Failure      409 {object} types.ValidationErrorBody
// @Failure      500 {object} types.ErrorBody
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))

	var req types.RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.AuthService.Register(ctx, req)
	if err != nil {
		var verr *types.ValidationError
		switch {
		case errors.As(err, &verr):
			api.ValidationErrorResponse(w, r, http.StatusBadRequest, verr)
		case errors.Is(err, types.ErrConflict):
			conflict := types.NewValidationError()
			conflict.Add("email", MsgEmailTaken)
			api.ValidationErrorResponse(w, r, http.StatusConflict, conflict)
		default:
			l.ErrorContext(ctx, "Registration failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, MsgRegistrationError)
		}
		return
	}

	resp := types.RegisterResponse{
		Message: MsgRegistered,
		User:    result.User,
	}
	if h.exposeVerificationToken {
		resp.VerificationToken = result.VerificationToken
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}

// Login godoc
// @Summary      Log in
// @Description  Exchanges email and password for a session token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.LoginRequest true "Credentials"
// @Success      200 {object} types.LoginResponse
// @Failure      400 {object} types.ValidationErrorBody
// @Failure      401 {object} types.ErrorBody
// @Failure      500 {object} types.ErrorBody
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	token, user, err := h.AuthService.Login(ctx, req)
	if err != nil {
		var verr *types.ValidationError
		switch {
		case errors.As(err, &verr):
			api.ValidationErrorResponse(w, r, http.StatusBadRequest, verr)
		case errors.Is(err, types.ErrInvalidCredentials):
			api.ErrorResponse(w, r, http.StatusUnauthorized, MsgInvalidCredentials)
		case errors.Is(err, types.ErrAccountDisabled):
			api.ErrorResponse(w, r, http.StatusUnauthorized, MsgAccountDisabled)
		default:
			l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, MsgLoginError)
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.LoginResponse{
		Message: MsgLoggedIn,
		Token:   token,
		User:    user,
	})
}

// Logout godoc
// @Summary      Log out
// @Description  Always succeeds. Tokens are stateless, so the client discards its own copy.
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} types.MessageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUserFromContext(r.Context())
	h.AuthService.Logout(r.Context(), user)
	api.WriteJSONResponse(w, r, http.StatusOK, types.MessageResponse{Message: MsgLoggedOut})
}

// Me godoc
// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} types.MeResponse
// @Failure      401 {object} types.ErrorBody
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "", MsgAuthorizationRequired)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.MeResponse{User: user})
}

// VerifyEmail godoc
// @Summary      Verify email address
// @Description  Consumes a single-use verification token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.VerifyEmailRequest true "Verification token"
// @Success      200 {object} types.MessageResponse
// @Failure      400 {object} types.ErrorBody
// @Router       /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "VerifyEmail"))

	var req types.VerifyEmailRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if _, err := h.AuthService.VerifyEmail(ctx, req.Token); err != nil {
		var verr *types.ValidationError
		switch {
		case errors.As(err, &verr):
			api.ErrorResponse(w, r, http.StatusBadRequest, MsgVerificationRequired)
		case errors.Is(err, types.ErrInvalidVerificationToken):
			api.ErrorResponse(w, r, http.StatusBadRequest, MsgInvalidVerification)
		default:
			l.ErrorContext(ctx, "Email verification failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, MsgVerifyError)
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.MessageResponse{Message: MsgEmailVerified})
}
