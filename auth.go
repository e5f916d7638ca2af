package main

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"

	"livrocaixa/models"

	"github.com/gin-gonic/gin"
)

const (
	msgLoginRequired = "Por favor, faça login para acessar esta página."
	msgAdminRequired = "Acesso negado. Apenas administradores podem acessar esta página."
)

// hashPassword applies the legacy credential scheme: a single unsalted SHA-256
// pass, hex encoded. Every stored password hash depends on it, so changing the
// scheme requires a credential migration first.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// authenticate looks up an active user by username and compares password hashes.
func (a *app) authenticate(username, password string) (*models.User, bool) {
	var user models.User
	err := a.db.Where("username = ? AND active = ?", username, true).First(&user).Error
	if err != nil {
		return nil, false
	}
	if user.PasswordHash != hashPassword(password) {
		return nil, false
	}
	return &user, true
}

func loginRedirect(c *gin.Context) string {
	return "/login?next=" + url.QueryEscape(c.Request.URL.RequestURI())
}

// loginRequired redirects unauthenticated requests to the login page,
// preserving the originally requested URL in the next parameter.
func (a *app) loginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := currentSession(c)
		if _, ok := s.UserID(); !ok {
			s.Flash("warning", msgLoginRequired)
			a.redirect(c, loginRedirect(c))
			c.Abort()
			return
		}
		c.Next()
	}
}

// adminRequired additionally checks that the session user still exists and
// holds the admin role; authenticated non-admins go back to the listing.
func (a *app) adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := currentSession(c)
		id, ok := s.UserID()
		if !ok {
			s.Flash("warning", msgLoginRequired)
			a.redirect(c, loginRedirect(c))
			c.Abort()
			return
		}
		var user models.User
		if err := a.db.First(&user, id).Error; err != nil || !user.IsAdmin() {
			s.Flash("danger", msgAdminRequired)
			a.redirect(c, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
