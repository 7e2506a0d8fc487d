package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pujabook/internal/database"
	apperr "pujabook/internal/errors"
	"pujabook/internal/logger"
	"pujabook/internal/middleware"
	"pujabook/internal/models"
	"pujabook/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
	db       *database.DB
	appName  string
	version  string
}

func NewHandlers(services *service.Services, db *database.DB, appName, version string) *Handlers {
	return &Handlers{
		services: services,
		db:       db,
		appName:  appName,
		version:  version,
	}
}

// Root - GET /
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to " + h.appName,
		"version": h.version,
	})
}

// Health - GET /health
// Состояние сервиса и пула соединений
func (h *Handlers) Health(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
		return
	}

	check := h.db.HealthCheck(c.Request.Context())
	status := http.StatusOK
	if check.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":    check.Status,
		"database":  check,
		"timestamp": time.Now().UTC(),
	})
}

// handleServiceError переводит категорию ошибки сервиса в HTTP код.
// Неизвестные ошибки логируются и отдаются как 500 без деталей.
func handleServiceError(c *gin.Context, err error, action string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusUnauthorized
		c.Header("WWW-Authenticate", "Bearer")
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidInput),
		errors.Is(err, apperr.ErrPrecondition),
		errors.Is(err, apperr.ErrConflict):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, apperr.ErrGateway):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("Failed to "+action, "error", err)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Failed to " + action})
		return
	}

	c.JSON(status, gin.H{"error": apperr.Detail(err, err.Error())})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// actor returns the authenticated caller; routes using it sit behind BearerAuth
func actor(c *gin.Context) service.Actor {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		slog.Error("Handler reached without authenticated user", "path", c.FullPath())
		return service.Actor{}
	}
	return service.Actor{UserID: user.ID, Role: user.Role}
}

// pathID парсит положительный числовой параметр пути
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func bindPage(c *gin.Context) (models.Page, bool) {
	var page models.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return page, false
	}
	return page, true
}
