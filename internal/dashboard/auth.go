package dashboard

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"net/http"
	"strings"
)

// accessCodeHeader carries the write access code as an alternative to a
// bearer token.
const accessCodeHeader = "X-Access-Code"

// Auth gates mutating API calls behind an access code. Reads stay open.
type Auth struct {
	accessCode string
}

// NewAuth uses code, or generates a random 8-digit code when code is empty.
func NewAuth(code string) *Auth {
	if code == "" {
		code = generateAccessCode()
	}
	return &Auth{accessCode: code}
}

// AccessCode returns the code clients must present to write.
func (a *Auth) AccessCode() string {
	return a.accessCode
}

// ValidateCode checks code in constant time.
func (a *Auth) ValidateCode(code string) bool {
	return subtle.ConstantTimeCompare([]byte(code), []byte(a.accessCode)) == 1
}

// Middleware rejects POST, PUT, PATCH and DELETE requests without a valid code.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if !a.ValidateCode(presentedCode(r)) {
			writeError(w, http.StatusUnauthorized, "access code required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func presentedCode(r *http.Request) string {
	if c := r.Header.Get(accessCodeHeader); c != "" {
		return c
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// generateAccessCode returns a random 8-digit numeric code.
func generateAccessCode() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(100_000_000))
	return fmt.Sprintf("%08d", n.Int64())
}
