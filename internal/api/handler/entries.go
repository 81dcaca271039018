package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/moodiary/internal/api/auth"
	apimodels "github.com/jon4hz/moodiary/internal/api/models"
	"github.com/jon4hz/moodiary/internal/i18n"
	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/timeline"
	"golang.org/x/sync/errgroup"
)

// snapshot loads users and entries concurrently. Reads never fail, they degrade to empty.
func (h *Handler) snapshot(ctx context.Context) ([]models.User, []models.DiaryEntry) {
	var (
		users   []models.User
		entries []models.DiaryEntry
		g       errgroup.Group
	)
	g.Go(func() error {
		users = h.storage.GetUsers(ctx)
		return nil
	})
	g.Go(func() error {
		entries = h.storage.GetEntries(ctx)
		return nil
	})
	_ = g.Wait()
	return users, entries
}

func parseUintQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return safecast.Convert[int](v)
}

// Entries returns one filtered, sorted page of the timeline.
func (h *Handler) Entries(c *gin.Context) {
	offset, err := parseUintQuery(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid offset parameter",
		})
		return
	}
	limit, err := parseUintQuery(c, "limit", timeline.DefaultLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid limit parameter",
		})
		return
	}
	date := strings.TrimSpace(c.Query("date"))
	if date != "" && !timeline.ValidDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid date parameter, use YYYY-MM-DD",
		})
		return
	}

	users, entries := h.snapshot(c.Request.Context())
	page := timeline.Apply(entries, timeline.Query{
		User:     strings.TrimSpace(c.Query("user")),
		Date:     date,
		Order:    timeline.ParseOrder(c.Query("order")),
		Offset:   offset,
		Limit:    limit,
		Location: h.storage.Location(),
	})

	views := h.decorator.Decorate(page.Entries, users, auth.CurrentUser(c))
	c.JSON(http.StatusOK, apimodels.EntriesResponse{
		Entries:    views,
		Days:       timeline.Group(views, h.storage.Location()),
		Total:      page.Total,
		HasMore:    page.HasMore,
		NextOffset: page.NextOffset,
	})
}

// Feed returns every user and entry, the state a client reloads after a change.
func (h *Handler) Feed(c *gin.Context) {
	users, entries := h.snapshot(c.Request.Context())
	c.JSON(http.StatusOK, apimodels.FeedResponse{
		Users:   users,
		Authors: timeline.Authors(users),
		Entries: h.decorator.Decorate(entries, users, auth.CurrentUser(c)),
	})
}

func (h *Handler) CreateEntry(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	var req apimodels.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   h.tr().T(i18n.ValidationEmpty),
		})
		return
	}

	var mood models.Mood
	if req.Mood != "" {
		var err error
		if mood, err = models.ParseMood(req.Mood); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
	}

	var createdAt time.Time
	if req.CreatedAt != nil {
		createdAt = *req.CreatedAt
	}

	entry, strategy := h.storage.NewEntry(user.Username, req.Title, req.Content, mood, createdAt)
	if err := h.storage.AddEntry(c.Request.Context(), entry); err != nil {
		log.Error("Failed to add entry", "username", user.Username, "error", err)
		c.JSON(writeStatus(err), gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"entry":    entry,
		"strategy": strategy,
	})
}

// UpdateEntry applies a partial update. Only the author may edit an entry.
func (h *Handler) UpdateEntry(c *gin.Context) {
	user := c.MustGet("user").(*models.User)
	id := c.Param("id")

	var req apimodels.PatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}
	if req.ContentBlank() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   h.tr().T(i18n.ValidationEmpty),
		})
		return
	}
	patch, err := req.ToEntryPatch()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	entry, err := h.storage.FindEntry(c.Request.Context(), id)
	if err != nil {
		c.JSON(writeStatus(err), gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   h.tr().T(i18n.EntryNotFound),
		})
		return
	}
	if entry.Username != user.Username {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   h.tr().T(i18n.Forbidden),
		})
		return
	}

	if err := h.storage.UpdateEntry(c.Request.Context(), id, patch); err != nil {
		log.Error("Failed to update entry", "id", id, "error", err)
		c.JSON(writeStatus(err), gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	patch.Apply(entry)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"entry":   entry,
	})
}

// DeleteEntry removes an entry. Authors and admins may delete, unknown ids succeed.
func (h *Handler) DeleteEntry(c *gin.Context) {
	user := c.MustGet("user").(*models.User)
	id := c.Param("id")

	entry, err := h.storage.FindEntry(c.Request.Context(), id)
	if err != nil {
		c.JSON(writeStatus(err), gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if entry != nil && entry.Username != user.Username && !user.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   h.tr().T(i18n.Forbidden),
		})
		return
	}

	if err := h.storage.DeleteEntry(c.Request.Context(), id); err != nil {
		log.Error("Failed to delete entry", "id", id, "error", err)
		c.JSON(writeStatus(err), gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
