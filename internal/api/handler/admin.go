package handler

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	apimodels "github.com/jon4hz/moodiary/internal/api/models"
	"github.com/jon4hz/moodiary/internal/i18n"
	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/scheduler"
	"github.com/jon4hz/moodiary/internal/storage"
	"github.com/shirou/gopsutil/v3/disk"
)

// JobRunner lists and triggers scheduled jobs.
type JobRunner interface {
	GetJobs() []scheduler.JobInfo
	GetJob(id string) (scheduler.JobInfo, bool)
	RunJobNow(id string) error
}

type AdminHandler struct {
	storage  *storage.Storage
	jobs     JobRunner
	dataPath string
}

// NewAdmin returns the admin handler. jobs may be nil if no scheduler runs and
// dataPath is the local store directory, empty if there is none.
func NewAdmin(store *storage.Storage, jobs JobRunner, dataPath string) *AdminHandler {
	return &AdminHandler{
		storage:  store,
		jobs:     jobs,
		dataPath: dataPath,
	}
}

// Status reports the active backend, data counts and the disk holding the local store.
func (h *AdminHandler) Status(c *gin.Context) {
	stats := h.storage.Stats(c.Request.Context())
	resp := apimodels.StatusResponse{
		Connection: h.storage.ConnectionType(),
		Users:      stats.Users,
		Admins:     stats.Admins,
		Entries:    stats.Entries,
		ByMood:     stats.ByMood,
		StoreSize:  stats.HumanStoreSize(),
	}
	if h.storage.ConnectionType() == models.ConnectionLocal && h.dataPath != "" {
		usage, err := diskUsage(c.Request.Context(), h.dataPath)
		if err != nil {
			log.Warn("Failed to get disk usage", "path", h.dataPath, "error", err)
		} else {
			resp.Disk = usage
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) Seed(c *gin.Context) {
	res, err := h.storage.SeedData(c.Request.Context())
	if err != nil {
		log.Error("Failed to seed data", "error", err)
		c.JSON(writeStatus(err), gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": h.storage.Translator().T(i18n.SeedDone),
		"users":   res.Users,
		"entries": res.Entries,
	})
}

// Clear deletes all entries and non-admin users. The body must confirm it.
func (h *AdminHandler) Clear(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	var req apimodels.ClearRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   h.storage.Translator().T(i18n.ClearConfirm),
		})
		return
	}

	if err := h.storage.ClearAllData(c.Request.Context(), user.Username); err != nil {
		log.Error("Failed to clear data", "error", err)
		c.JSON(writeStatus(err), gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	log.Info("Cleared all data", "by", user.Username)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": h.storage.Translator().T(i18n.ClearDone),
	})
}

func (h *AdminHandler) Jobs(c *gin.Context) {
	if h.jobs == nil {
		c.JSON(http.StatusOK, []scheduler.JobInfo{})
		return
	}
	c.JSON(http.StatusOK, h.jobs.GetJobs())
}

// Job reports the bookkeeping of a single job.
func (h *AdminHandler) Job(c *gin.Context) {
	var (
		job scheduler.JobInfo
		ok  bool
	)
	if h.jobs != nil {
		job, ok = h.jobs.GetJob(c.Param("id"))
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   scheduler.ErrJobNotFound.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *AdminHandler) RunJob(c *gin.Context) {
	id := c.Param("id")
	if h.jobs == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Scheduler is not running",
		})
		return
	}
	if err := h.jobs.RunJobNow(id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scheduler.ErrJobNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Job triggered",
	})
}

// diskUsage reports the filesystem of path, or of its closest existing parent.
func diskUsage(ctx context.Context, path string) (*apimodels.DiskUsage, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	usage, err := disk.UsageWithContext(ctx, dir)
	if err != nil {
		return nil, err
	}
	return &apimodels.DiskUsage{
		Path:        dir,
		Total:       humanize.Bytes(usage.Total),
		Used:        humanize.Bytes(usage.Used),
		Free:        humanize.Bytes(usage.Free),
		UsedPercent: usage.UsedPercent,
	}, nil
}
