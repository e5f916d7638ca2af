package main

import (
	"time"

	"livrocaixa/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookieName = "sessao"
	sessionDuration   = 30 * 24 * time.Hour
	sessionContextKey = "session"
)

// Flash is a one-shot message carried in the session until the next render.
type Flash struct {
	Message  string `json:"m"`
	Category string `json:"c"`
}

type sessionClaims struct {
	UserID   uint    `json:"uid,omitempty"`
	Username string  `json:"uname,omitempty"`
	Role     string  `json:"role,omitempty"`
	Flashes  []Flash `json:"flashes,omitempty"`
	jwt.RegisteredClaims
}

// Session is the per-request view of the signed session cookie: a small
// key-value mapping with sign-in state, get/clear, and Flask-style flash
// messages. The cookie is an HS256 token, so clients can read but not forge
// its contents.
type Session struct {
	claims  sessionClaims
	secret  []byte
	changed bool
}

// sessions loads the session cookie into the request context. An absent,
// expired, or tampered cookie yields an empty session.
func (a *app) sessions() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := &Session{secret: a.secret}
		if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie != "" {
			if claims, err := decodeSession(cookie, a.secret); err == nil {
				s.claims = *claims
			}
		}
		c.Set(sessionContextKey, s)
		c.Next()
	}
}

func currentSession(c *gin.Context) *Session {
	return c.MustGet(sessionContextKey).(*Session)
}

func decodeSession(cookie string, secret []byte) (*sessionClaims, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(cookie, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &claims, nil
}

// SignIn stores the authenticated user in the session.
func (s *Session) SignIn(u *models.User) {
	s.claims.UserID = u.ID
	s.claims.Username = u.Username
	s.claims.Role = u.Role
	s.changed = true
}

// UserID returns the signed-in user id, if any.
func (s *Session) UserID() (uint, bool) {
	return s.claims.UserID, s.claims.UserID != 0
}

func (s *Session) Username() string { return s.claims.Username }

func (s *Session) Role() string { return s.claims.Role }

// Clear drops everything from the session, including pending flashes.
func (s *Session) Clear() {
	s.claims = sessionClaims{}
	s.changed = true
}

// Flash queues a one-shot message for the next rendered page.
func (s *Session) Flash(category, message string) {
	s.claims.Flashes = append(s.claims.Flashes, Flash{Message: message, Category: category})
	s.changed = true
}

// TakeFlashes returns queued messages and removes them from the session.
func (s *Session) TakeFlashes() []Flash {
	flashes := s.claims.Flashes
	if len(flashes) > 0 {
		s.claims.Flashes = nil
		s.changed = true
	}
	return flashes
}

// Save re-signs the cookie if the session changed. It must run before the
// response body is written; the render and redirect helpers take care of that.
func (s *Session) Save(c *gin.Context) {
	if !s.changed {
		return
	}
	s.changed = false
	if s.claims.UserID == 0 && s.claims.Username == "" && len(s.claims.Flashes) == 0 {
		c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
		return
	}
	now := time.Now()
	s.claims.IssuedAt = jwt.NewNumericDate(now)
	s.claims.ExpiresAt = jwt.NewNumericDate(now.Add(sessionDuration))
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, s.claims).SignedString(s.secret)
	if err != nil {
		return
	}
	c.SetCookie(sessionCookieName, signed, int(sessionDuration/time.Second), "/", "", false, true)
}
