// Package auth resolves the current diary user from the session cookie.
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/moodiary/internal/i18n"
	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/storage"
)

const userKey = "user"

// LoadUser stores the current user, if any, in the gin context. It never aborts.
func LoadUser(store *storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := store.CurrentUser(NewSlot(c)); user != nil {
			c.Set(userKey, user)
		}
		c.Next()
	}
}

// RequireAuth rejects requests without a current user.
func RequireAuth(store *storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := store.CurrentUser(NewSlot(c))
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   store.Translator().T(i18n.LoginRequired),
			})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAdmin rejects users without the admin flag. It must run after RequireAuth.
func RequireAdmin(tr *i18n.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := c.MustGet(userKey).(*models.User)
		if !ok || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   tr.T(i18n.AdminRequired),
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user set by LoadUser or RequireAuth, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
