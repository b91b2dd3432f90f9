package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tutorly/gradeimport/internal/config"
	"github.com/tutorly/gradeimport/internal/core"
	"github.com/tutorly/gradeimport/internal/logging"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// OperatorAuth returns middleware that authenticates the operator from an
// HS256 bearer token issued by the identity provider. The token's subject
// must be the operator's UUID; it is stored with core.ContextWithOperator.
//
// With cfg.Require false, requests without a token pass through anonymously
// but a token that is present must still be valid.
func OperatorAuth(cfg *config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				if !cfg.Require {
					next.ServeHTTP(w, r)
					return
				}
				reject(w, r, http.StatusUnauthorized, ErrMissingToken)
				return
			}

			operator, err := ParseOperatorToken(raw, cfg.JWTSecret, cfg.Issuer)
			if err != nil {
				reject(w, r, http.StatusUnauthorized, err)
				return
			}

			ctx := core.ContextWithOperator(r.Context(), operator)
			ctx = logging.WithContextFields(ctx, "operator_id", operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParseOperatorToken verifies a token and returns the operator in its subject.
func ParseOperatorToken(raw, secret, issuer string) (uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	operator, err := uuid.Parse(claims.Subject)
	if err != nil || operator == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not an operator id", ErrInvalidToken)
	}
	return operator, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func reject(w http.ResponseWriter, r *http.Request, status int, err error) {
	slog.Warn("auth: rejected request",
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
		"error", err,
	)
	msg := core.MapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="gradeimport"`)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   msg.Message,
		"message": msg.Message,
		"action":  msg.Action,
		"code":    msg.Code,
	})
}
