package web

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	cookieName      = "fetchflow_session"
	sessionDuration = 7 * 24 * time.Hour
	sessionIssuer   = "fetchflow"
)

// Claims identifies the signed-in user of a session.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates HS256 session tokens.
type SessionManager struct {
	secret []byte
	now    func() time.Time
}

func NewSessionManager(secret string) *SessionManager {
	if secret == "" {
		// Sessions won't survive a restart.
		secret = rand.Text() + rand.Text()
	}
	return &SessionManager{secret: []byte(secret), now: time.Now}
}

func (s *SessionManager) Create(email string, name string) (string, error) {
	now := s.now()
	claims := Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    sessionIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *SessionManager) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.Email != "" {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}

// Get returns the session of r from the cookie, or from an
// "Authorization: Bearer" header used by the CLI.
func (s *SessionManager) Get(r *http.Request) (*Claims, error) {
	tokenStr := ""
	if cookie, err := r.Cookie(cookieName); err == nil {
		tokenStr = cookie.Value
	} else if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		tokenStr = strings.TrimPrefix(auth, "Bearer ")
	}
	if tokenStr == "" {
		return nil, errors.New("no session")
	}
	return s.Validate(tokenStr)
}

func (s *SessionManager) Set(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionDuration.Seconds()),
	})
}

func (s *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   cookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

type contextKey string

const claimsKey contextKey = "session"

// RequireSession rejects requests without a valid session with 401.
func (s *SessionManager) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.Get(r)
		if err != nil {
			writeErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func sessionEmail(r *http.Request) string {
	if claims, ok := r.Context().Value(claimsKey).(*Claims); ok {
		return claims.Email
	}
	return ""
}
