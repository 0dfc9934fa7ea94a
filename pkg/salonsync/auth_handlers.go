package salonsync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/salonsync/salonsync/pkg/auth"
)

// The auth endpoints keep their historical wire shape: every response
// carries an "ok" boolean and failures explain themselves in "msg". The
// resource endpoints use the plainer {"error": ...} shape instead.

type contextKey string

const claimsKey contextKey = "claims"

// claimsFrom returns the verified token claims requireAuth stored on the
// request context, or nil on an unauthenticated request.
func claimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return h[7:]
	}
	return ""
}

// requireAuth rejects requests without a valid, unrevoked bearer token and
// stores the claims on the request context for downstream handlers.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondAuthError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		claims, err := a.creds.Authenticate(token)
		if err != nil {
			respondAuthError(w, http.StatusUnauthorized, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// handleRegister creates a staff account and signs the caller in, so the
// response carries a bearer token like login's. Registration is open until
// the account cap is reached, after which it always fails.
func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAuthError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	token, user, err := a.creds.Register(r.Context(), req)
	if err != nil {
		respondAuthError(w, authStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"ok":    true,
		"token": token,
		"user":  user,
	})
}

// handleLogin verifies credentials and issues a bearer token. A disabled
// account is rejected even with the correct password.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAuthError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	token, user, err := a.creds.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondAuthError(w, authStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"token": token,
		"user":  user,
	})
}

// handleMe reports the account behind the presented token.
func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"id":       claims.UserID,
		"username": claims.Username,
	})
}

// handleLogout revokes the presented token. It sits behind requireAuth, so
// the token is known valid at this point.
func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.creds.Logout(bearerToken(r))
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":  true,
		"msg": "Logged out",
	})
}

// authStatus maps credential-service errors to HTTP status codes. Bad
// credentials and the account cap are request-level rejections (400); only a
// disabled account gets 403.
func authStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrUserExists),
		errors.Is(err, auth.ErrBadCredentials),
		errors.Is(err, auth.ErrUserLimit):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrDisabled):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func respondAuthError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]any{
		"ok":  false,
		"msg": msg,
	})
}
