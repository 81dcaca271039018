package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/moodiary/internal/api/auth"
	apimodels "github.com/jon4hz/moodiary/internal/api/models"
	"github.com/jon4hz/moodiary/internal/i18n"
	"github.com/jon4hz/moodiary/internal/storage"
	"github.com/jon4hz/moodiary/internal/timeline"
)

type Handler struct {
	storage   *storage.Storage
	decorator timeline.Decorator
}

func New(store *storage.Storage) *Handler {
	return &Handler{
		storage:   store,
		decorator: timeline.Decorator{Translator: store.Translator(), Now: store.Now},
	}
}

func (h *Handler) tr() *i18n.Translator {
	return h.storage.Translator()
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"connection": h.storage.ConnectionType(),
	})
}

func (h *Handler) Moods(c *gin.Context) {
	c.JSON(http.StatusOK, apimodels.ToMoodItems(h.tr()))
}

func (h *Handler) Users(c *gin.Context) {
	c.JSON(http.StatusOK, h.storage.GetUsers(c.Request.Context()))
}

// Authors lists the names offered in the author filter.
func (h *Handler) Authors(c *gin.Context) {
	c.JSON(http.StatusOK, timeline.Authors(h.storage.GetUsers(c.Request.Context())))
}

// Register creates a user and logs the new user in.
func (h *Handler) Register(c *gin.Context) {
	var req apimodels.UsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	res, err := h.storage.RegisterUser(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(writeStatus(err), gin.H{
			"success": false,
			"error":   res.Message,
		})
		return
	}

	if _, err := h.storage.LoginUser(c.Request.Context(), auth.NewSlot(c), res.User.Username); err != nil {
		log.Error("Failed to log in registered user", "username", res.User.Username, "error", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": res.Message,
		"user":    res.User,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req apimodels.UsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	user, err := h.storage.LoginUser(c.Request.Context(), auth.NewSlot(c), strings.TrimSpace(req.Username))
	if err != nil {
		log.Error("Failed to log in", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   h.tr().ServerError(err),
		})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   h.tr().T(i18n.UserNotFound),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.storage.LogoutUser(auth.NewSlot(c)); err != nil {
		log.Error("Failed to clear session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   h.tr().ServerError(err),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the logged in user, or null.
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": auth.CurrentUser(c)})
}

// writeStatus maps a storage error to an HTTP status.
func writeStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrValidationEmpty):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrDuplicateUsername):
		return http.StatusConflict
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
