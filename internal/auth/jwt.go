package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
	TenantID       string   `json:"tenant_id"`
	Roles          []string `json:"roles"`
	ProfessionalID string   `json:"professional_id,omitempty"`
}

// Verifier validates and issues HS256 bearer tokens.
type Verifier struct {
	key    []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{key: []byte(secret), issuer: issuer, now: time.Now}
}

func (v *Verifier) Parse(tokenStr string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...)
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	return claims.identity()
}

func (c *Claims) identity() (Identity, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	tenantID, err := uuid.Parse(c.TenantID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: missing tenant", ErrInvalidToken)
	}

	id := Identity{UserID: userID, TenantID: tenantID}
	for _, r := range c.Roles {
		id.Roles = append(id.Roles, Role(strings.ToUpper(r)))
	}
	if c.ProfessionalID != "" {
		pid, err := uuid.Parse(c.ProfessionalID)
		if err != nil {
			return Identity{}, fmt.Errorf("%w: bad professional id", ErrInvalidToken)
		}
		id.ProfessionalID = &pid
	}
	return id, nil
}

// Issue signs a token for id. Login lives outside this service; this is used
// by tooling and tests.
func (v *Verifier) Issue(id Identity, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID.String(),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantID: id.TenantID.String(),
	}
	for _, r := range id.Roles {
		claims.Roles = append(claims.Roles, string(r))
	}
	if id.ProfessionalID != nil {
		claims.ProfessionalID = id.ProfessionalID.String()
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller Identity on the request context.
func Authenticate(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				deny(w, http.StatusUnauthorized, "unauthorized", "missing authorization header")
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				deny(w, http.StatusUnauthorized, "unauthorized", "invalid authorization format")
				return
			}

			id, err := v.Parse(parts[1])
			if err != nil {
				deny(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole lets the request through when the caller holds at least one of roles.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "unauthorized", "missing identity")
				return
			}
			if !id.HasRole(roles...) {
				names := make([]string, len(roles))
				for i, role := range roles {
					names[i] = string(role)
				}
				deny(w, http.StatusForbidden, "forbidden", "required role: "+strings.Join(names, " or "))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, code, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "details": details})
}
