// Package session holds the signed-in admin for one request. Views receive it
// explicitly; nothing reads a process-wide current user.
package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"lmsadmin/internal/errdefs"
)

const CookieName = "accessToken"

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type Session struct {
	Token     string
	UserID    string
	Role      string
	Name      string
	ExpiresAt time.Time
}

func (s *Session) IsAdmin() bool {
	return s != nil && (s.Role == RoleAdmin || s.Role == RoleSuperAdmin)
}

type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

// Parse validates an HS256 bearer token and returns the session it carries.
func (p *Parser) Parse(token string) (*Session, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrUnauthenticated, err)
	}
	if !parsed.Valid {
		return nil, errdefs.ErrUnauthenticated
	}

	userID := claims.ID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: token has no subject", errdefs.ErrUnauthenticated)
	}

	s := &Session{
		Token:  token,
		UserID: userID,
		Role:   claims.Role,
		Name:   claims.Name,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// TokenFromRequest reads the cookie store first, then the Authorization header.
func TokenFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		return token, true
	}
	return "", false
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
