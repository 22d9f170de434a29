package api

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-patchbay/pkg/logging"
)

// handleLogin exchanges credentials for a signed token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.jwtManager == nil || s.users == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Authentication not configured")
		return
	}

	s.NewMethodRouter(w, r).
		Post(func() {
			var req LoginRequest
			rd := s.NewRequestDecoder(w, r).
				DecodeJSON(&req).
				Require("username", req.Username).
				Require("password", req.Password)
			if rd.RespondError() {
				return
			}

			user, err := s.users.GetUserByUsername(req.Username)
			if err != nil || !s.users.VerifyPassword(user, req.Password) {
				// Same response for unknown user and bad password.
				s.logger.Warn("login failed", logging.String("username", req.Username))
				s.respondError(w, http.StatusUnauthorized, "Invalid credentials")
				return
			}

			token, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
			if err != nil {
				s.respondError(w, http.StatusInternalServerError, s.sanitizeError(err, "generate token"))
				return
			}

			s.respondJSON(w, http.StatusOK, LoginResponse{
				Token:     token,
				Role:      user.Role,
				ExpiresAt: time.Now().Add(s.jwtManager.TokenDuration()),
			})
		}).
		NotAllowed()
}

// handleWhoAmI returns the claims of the presented token.
func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	if s.jwtManager == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Authentication not configured")
		return
	}

	s.NewMethodRouter(w, r).
		Get(func() {
			r2, ok := s.authenticate(w, r)
			if !ok {
				return
			}
			s.respondJSON(w, http.StatusOK, claimsFromContext(r2.Context()))
		}).
		NotAllowed()
}
