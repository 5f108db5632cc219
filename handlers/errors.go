package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/web"
)

func isAPIRequest(c *gin.Context) bool {
	p := c.Request.URL.Path
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

// renderError writes the error page, or a JSON error under /api.
func (h *PageHandler) renderError(c *gin.Context, code int, title, message string) {
	if isAPIRequest(c) {
		c.AbortWithStatusJSON(code, gin.H{"error": message})
		return
	}
	c.HTML(code, web.PageError, h.page(c, web.PageError, title, gin.H{
		"ErrorCode":    code,
		"ErrorTitle":   title,
		"ErrorMessage": message,
	}))
	c.Abort()
}

func (h *PageHandler) serverError(c *gin.Context, err error) {
	h.Logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	h.renderError(c, http.StatusInternalServerError, "Something Went Wrong",
		"We could not complete your request. Please try again later.")
}

// NotFound handles unmatched routes.
func (h *PageHandler) NotFound(c *gin.Context) {
	h.renderError(c, http.StatusNotFound, "Page Not Found",
		"The page you are looking for does not exist or has been moved.")
}

// Recovery turns a panic into a logged 500 response.
func (h *PageHandler) Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		h.serverError(c, fmt.Errorf("panic: %v", recovered))
	})
}
