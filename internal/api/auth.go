package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/medrecord-core/internal/auth"
)

// loginRequest is the request body for POST /login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for a successful login.
type loginResponse struct {
	Message string        `json:"message"`
	Token   string        `json:"token"`
	User    auth.Identity `json:"user"`
}

// changePasswordRequest is the request body for POST /change-password.
type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// meResponse is the response body for GET /auth/me.
type meResponse struct {
	auth.Identity
	Permissions []auth.Permission `json:"permissions"`
}

// handleLogin runs the login state machine and issues a session.
// Unknown users and wrong passwords receive byte-identical 401 responses.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	// Malformed usernames never reach the store or the password hasher.
	details := fieldErrors{}
	switch {
	case req.Username == "":
		details.add("username", "is required")
	case !auth.IsValidUsername(req.Username):
		details.add("username", "must be 1-64 letters, digits, dots, underscores or hyphens")
	}
	if req.Password == "" {
		details.add("password", "is required")
	} else if len(req.Password) > s.auth.Config().MaxPasswordLength {
		details.add("password", "is too long")
	}
	if len(details) > 0 {
		writeValidationError(w, details)
		return
	}

	res, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		var locked *auth.LockedError
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeUnauthorized(w, msgAuthFailed)
		case errors.As(err, &locked):
			w.Header().Set("Retry-After", retryAfterSeconds(locked.Remaining))
			writeError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Account locked. Try again in %d minutes.", locked.RemainingMinutes()))
		default:
			s.logger.Error("login failed", "error", err, "request_id", requestIDFrom(r.Context()))
			writeInternalError(w)
		}
		return
	}

	s.setSessionCookie(w, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   res.Token,
		User:    res.Identity,
	})
}

// handleLogout revokes the presented session, if any, and clears the
// cookie. It always succeeds for well-formed requests.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), s.sessionToken(r)); err != nil {
		s.logger.Error("logout failed", "error", err, "request_id", requestIDFrom(r.Context()))
		writeInternalError(w)
		return
	}

	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// handleChangePassword replaces the caller's password. Every session of the
// caller, including this one, is revoked on success.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	details := fieldErrors{}
	if req.OldPassword == "" {
		details.add("old_password", "is required")
	}
	if req.NewPassword == "" {
		details.add("new_password", "is required")
	}
	if len(details) > 0 {
		writeValidationError(w, details)
		return
	}

	err := s.auth.ChangePassword(r.Context(), identity, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		s.clearSessionCookie(w)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed. Please log in again."})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeValidationError(w, map[string]string{"old_password": "is incorrect"})
	case errors.Is(err, auth.ErrPasswordPolicy):
		writeValidationError(w, map[string]string{"new_password": validationMessage(err)})
	case errors.Is(err, auth.ErrPasswordReused):
		writeValidationError(w, map[string]string{"new_password": "must differ from the current and recent passwords"})
	default:
		s.logger.Error("change password failed",
			"user_id", identity.UserID,
			"error", err,
			"request_id", requestIDFrom(r.Context()),
		)
		writeInternalError(w)
	}
}

// handleMe returns the caller's identity and permissions.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, meResponse{
		Identity:    identity,
		Permissions: auth.PermissionsForRole(identity.Role),
	})
}

// cookieName returns the configured session cookie name.
func (s *Server) cookieName() string {
	if s.secCfg.Session.CookieName == "" {
		return "session_token"
	}
	return s.secCfg.Session.CookieName
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName(),
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(s.auth.Config().SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secCfg.Session.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secCfg.Session.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// isSessionError reports whether err means "no valid session" rather than
// a store failure.
func isSessionError(err error) bool {
	return errors.Is(err, auth.ErrSessionInvalid)
}
