package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tutorly/gradeimport/internal/config"
	"github.com/tutorly/gradeimport/internal/core"
)

const testSecret = "test-signing-secret"

func signToken(t *testing.T, claims jwt.RegisteredClaims, secret string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func validClaims(operator uuid.UUID) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   operator.String(),
		Issuer:    "school-idp",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
}

// =============================================================================
// OperatorAuth
// =============================================================================

func TestOperatorAuth(t *testing.T) {
	operator := uuid.New()

	expired := validClaims(operator)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	badSubject := validClaims(operator)
	badSubject.Subject = "staff@example.org"
	wrongIssuer := validClaims(operator)
	wrongIssuer.Issuer = "someone-else"

	tests := []struct {
		name       string
		require    bool
		header     string
		wantStatus int
		wantCode   string
		wantOp     bool
	}{
		{"valid token", true, "Bearer " + signToken(t, validClaims(operator), testSecret), http.StatusOK, "", true},
		{"lower-case scheme", true, "bearer " + signToken(t, validClaims(operator), testSecret), http.StatusOK, "", true},
		{"missing token", true, "", http.StatusUnauthorized, "AUTH001", false},
		{"basic scheme", true, "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "AUTH001", false},
		{"wrong secret", true, "Bearer " + signToken(t, validClaims(operator), "other"), http.StatusUnauthorized, "AUTH002", false},
		{"expired", true, "Bearer " + signToken(t, expired, testSecret), http.StatusUnauthorized, "AUTH002", false},
		{"subject not uuid", true, "Bearer " + signToken(t, badSubject, testSecret), http.StatusUnauthorized, "AUTH002", false},
		{"wrong issuer", true, "Bearer " + signToken(t, wrongIssuer, testSecret), http.StatusUnauthorized, "AUTH002", false},
		{"optional and absent", false, "", http.StatusOK, "", false},
		{"optional but invalid", false, "Bearer garbage", http.StatusUnauthorized, "AUTH002", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.AuthConfig{Require: tt.require, JWTSecret: testSecret, Issuer: "school-idp"}

			var gotOp uuid.UUID
			var hasOp bool
			h := OperatorAuth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotOp, hasOp = core.OperatorFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/batches", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				var body map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				if body["code"] != tt.wantCode {
					t.Errorf("code = %q, want %q", body["code"], tt.wantCode)
				}
			}
			if hasOp != tt.wantOp {
				t.Fatalf("operator in context = %v, want %v", hasOp, tt.wantOp)
			}
			if tt.wantOp && gotOp != operator {
				t.Errorf("operator = %s, want %s", gotOp, operator)
			}
		})
	}
}

func TestParseOperatorToken_RejectsNoneAlgorithm(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims(uuid.New())).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseOperatorToken(tok, testSecret, ""); err == nil {
		t.Fatal("unsigned token accepted")
	}
}

// =============================================================================
// TrustedRealIP
// =============================================================================

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted peer keeps address", []string{"10.0.0.0/8"}, "203.0.113.5:4000",
			map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.5:4000"},
		{"trusted peer uses X-Real-IP", []string{"10.0.0.0/8"}, "10.1.2.3:4000",
			map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"trusted peer uses first forwarded hop", []string{"10.0.0.0/8"}, "10.1.2.3:4000",
			map[string]string{"X-Forwarded-For": "198.51.100.7, 10.1.2.3"}, "198.51.100.7"},
		{"bare address trusted", []string{"127.0.0.1"}, "127.0.0.1:5555",
			map[string]string{"X-Real-IP": "198.51.100.8"}, "198.51.100.8"},
		{"garbage header ignored", []string{"10.0.0.0/8"}, "10.1.2.3:4000",
			map[string]string{"X-Real-IP": "not-an-ip"}, "10.1.2.3:4000"},
		{"invalid trusted entry skipped", []string{"nonsense"}, "10.1.2.3:4000",
			map[string]string{"X-Real-IP": "198.51.100.7"}, "10.1.2.3:4000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Logger
// =============================================================================

func TestLogger_PassesThroughStatusAndBody(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
