package httpapi

import (
	"errors"
	"net/http"

	"github.com/avolkovs/runbase/internal/common"
	"github.com/avolkovs/runbase/internal/server/accounts"
)

func (s *Server) handleRegistration(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFieldErrors(w, validationErrors(err))
		return
	}
	if req.Password1 != req.Password2 {
		writeFieldErrors(w, FieldErrors{"password2": {msgPasswordMismatch}})
		return
	}

	_, key, err := s.accounts.Register(r.Context(), req.Email, req.Password1, req.FullName)
	if err != nil {
		if errors.Is(err, common.ErrorEmailTaken) {
			writeFieldErrors(w, FieldErrors{"email": {msgEmailTaken}})
			return
		}
		s.internalError(w, r, "registration failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFieldErrors(w, validationErrors(err))
		return
	}

	_, key, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorInvalidCredentials):
			writeNonFieldError(w, msgInvalidCredentials)
		case errors.Is(err, common.ErrorInactiveUser):
			writeNonFieldError(w, msgUserAccountDisabled)
		default:
			s.internalError(w, r, "login failed", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Logout(r.Context(), tokenKeyFromContext(r.Context())); err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			writeDetail(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}
		s.internalError(w, r, "logout failed", err)
		return
	}
	writeDetail(w, http.StatusOK, msgLoggedOut)
}

func (s *Server) handleUserDetail(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserDetailResponse(userFromContext(r.Context())))
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	var req userUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFieldErrors(w, validationErrors(err))
		return
	}

	user := userFromContext(r.Context())
	updated, err := s.accounts.UpdateUser(r.Context(), user.ID, accounts.UpdateParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, common.ErrorEmailTaken) {
			writeFieldErrors(w, FieldErrors{"email": {msgEmailTaken}})
			return
		}
		s.internalError(w, r, "user update failed", err)
		return
	}

	writeJSON(w, http.StatusOK, newUserDetailResponse(updated))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newProfileResponse(userFromContext(r.Context())))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFieldErrors(w, validationErrors(err))
		return
	}
	if req.NewPassword1 != req.NewPassword2 {
		writeNonFieldError(w, msgPasswordMismatch)
		return
	}

	user := userFromContext(r.Context())
	if err := s.accounts.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword1); err != nil {
		if errors.Is(err, common.ErrorPasswordMismatch) {
			writeFieldErrors(w, FieldErrors{"old_password": {msgOldPasswordWrong}})
			return
		}
		s.internalError(w, r, "password change failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": msgPasswordChanged})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStatsResponse(userFromContext(r.Context())))
}

func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFieldErrors(w, validationErrors(err))
		return
	}

	// Unknown addresses get the same response so the endpoint cannot be
	// used to probe which emails are registered.
	if err := s.accounts.RequestPasswordReset(r.Context(), req.Email); err != nil {
		s.internalError(w, r, "password reset request failed", err)
		return
	}

	writeDetail(w, http.StatusOK, msgResetEmailSent)
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFieldErrors(w, validationErrors(err))
		return
	}
	if req.NewPassword1 != req.NewPassword2 {
		writeNonFieldError(w, msgPasswordMismatch)
		return
	}

	err := s.accounts.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword1)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrInvalidToken):
			writeFieldErrors(w, FieldErrors{"token": {msgInvalidToken}})
		case errors.Is(err, common.ErrorNotFound):
			writeFieldErrors(w, FieldErrors{"token": {msgInvalidToken}})
		default:
			s.internalError(w, r, "password reset confirm failed", err)
		}
		return
	}

	writeDetail(w, http.StatusOK, msgResetPasswordSet)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(r.Context(), msg, "error", err)
	writeDetail(w, http.StatusInternalServerError, "Internal server error.")
}
