package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/models"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/services"
)

// statusClientClosedRequest is logged when the visitor leaves before a mock
// delay finished. Nothing useful can be written back at that point.
const statusClientClosedRequest = 499

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StaffImporter loads a roster workbook into the staff store.
type StaffImporter interface {
	ImportStaffFromExcel(ctx context.Context, file io.Reader) (int, error)
}

// APIHandler holds the dependencies of the JSON API
type APIHandler struct {
	Staff    services.StaffDirectory
	Results  services.ResultsService
	Contact  *services.ContactService
	Importer StaffImporter // nil unless the staff store is Redis
	Redis    Pinger        // nil when Redis is disabled
	Logger   *zap.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(staff services.StaffDirectory, results services.ResultsService, contact *services.ContactService, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		Staff:   staff,
		Results: results,
		Contact: contact,
		Logger:  logger,
	}
}

// --- Staff ---

// SearchStaff handles GET /api/staff?q=
func (h *APIHandler) SearchStaff(c *gin.Context) {
	all, err := h.Staff.All(c.Request.Context())
	if err != nil {
		h.Logger.Error("loading staff directory failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve staff"})
		return
	}

	results := services.FilterStaff(all, c.Query("q"))
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

// --- Results ---

// LookupResults handles POST /api/results/lookup
func (h *APIHandler) LookupResults(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	report, err := h.Results.Lookup(c.Request.Context(), creds)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"status": models.LookupSuccess,
			"report": report,
		})
	case errors.Is(err, services.ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"status":  models.LookupError,
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrInvalidFormLevel), errors.Is(err, models.ErrInvalidTerm):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case c.Request.Context().Err() != nil:
		h.Logger.Debug("results lookup abandoned", zap.Error(err))
		c.AbortWithStatus(statusClientClosedRequest)
	default:
		h.Logger.Error("results lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up results"})
	}
}

// --- Contact and newsletter ---

type contactRequest struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Subject string `json:"subject" form:"subject"`
	Message string `json:"message" form:"message"`
}

type subscribeRequest struct {
	Email    string `json:"email" form:"email"`
	Redirect string `json:"-" form:"redirect"`
}

// SendContact handles POST /api/contact
func (h *APIHandler) SendContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	msg := models.NewContactMessage(req.Name, req.Email, req.Subject, req.Message, time.Time{})
	status, err := h.Contact.SendMessage(c.Request.Context(), msg, nil)
	h.writeSubmission(c, status, err)
}

// Subscribe handles POST /api/newsletter
func (h *APIHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	status, err := h.Contact.Subscribe(c.Request.Context(), models.Subscription{Email: req.Email}, nil)
	h.writeSubmission(c, status, err)
}

func (h *APIHandler) writeSubmission(c *gin.Context, status models.SubmissionStatus, err error) {
	if err != nil {
		h.Logger.Debug("form submission abandoned", zap.String("form", string(status.Kind)), zap.Error(err))
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}
	c.JSON(http.StatusOK, status)
}

// --- Import ---

// ImportStaff handles POST /api/import/staff
func (h *APIHandler) ImportStaff(c *gin.Context) {
	if h.Importer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Staff import is not available"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	h.Logger.Info("received staff roster upload", zap.String("filename", header.Filename), zap.Int64("size", header.Size))

	imported, err := h.Importer.ImportStaffFromExcel(c.Request.Context(), file)
	if err != nil {
		h.Logger.Error("staff import failed", zap.String("filename", header.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to import staff: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": imported,
	})
}

// RequireAdminToken guards a route with the X-Admin-Token header.
func RequireAdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Admin-Token")
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin token"})
			return
		}
		c.Next()
	}
}

// --- Ping ---

// Ping handles GET /api/ping
func (h *APIHandler) Ping(c *gin.Context) {
	redisState := "disabled"
	if h.Redis != nil {
		redisState = "ok"
		if err := h.Redis.Ping(c.Request.Context()); err != nil {
			h.Logger.Warn("redis ping failed", zap.Error(err))
			redisState = "error"
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pong!", "redis": redisState})
}
