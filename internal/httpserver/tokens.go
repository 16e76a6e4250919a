// internal/httpserver/tokens.go
//
// Scorer tokens. Creating a match returns an HS256 JWT whose "match" claim
// names that match; every mutating match route requires it as a bearer token.
// Watching and reading a match need no token.

package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// ctxScorerKey is the context key type for the authorized match ID.
type ctxScorerKey struct{}

// signScorerToken creates a token for matchID valid for cfg.TokenTTL.
func (s *Server) signScorerToken(matchID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.cfg.TokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"match": matchID,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.JWTSecret))
	return ss, exp, err
}

// requireScorer enforces a valid token for the {id} in the URL.
func (s *Server) requireScorer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearer(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(s.cfg.JWTSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			match, _ := claims["match"].(string)
			if match == "" || match != chi.URLParam(r, "id") {
				http.Error(w, `{"error":"Forbidden"}`, http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), ctxScorerKey{}, match)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearer extracts the token from "Authorization: Bearer <token>".
func bearer(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}
