package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/logging"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/prefs"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/web"
)

// RouterOptions configures optional routes.
type RouterOptions struct {
	// AdminToken enables POST /api/import/staff when API.Importer is set.
	AdminToken string
}

// NewRouter wires the page and API handlers onto a gin engine.
func NewRouter(pages *PageHandler, api *APIHandler, renderer *web.Renderer, logger *zap.Logger, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.HTMLRender = renderer
	router.Use(logging.Middleware(logger), pages.Recovery(), prefs.Middleware())
	router.NoRoute(pages.NotFound)

	router.StaticFS("/static", web.Static())

	router.GET("/", pages.Home)
	router.GET("/admissions", pages.Admissions)
	router.GET("/admission", pages.Admissions)
	router.GET("/alumni", pages.Alumni)
	router.GET("/subjects-offered", pages.Subjects)
	router.GET("/e-learning", pages.ELearning)
	router.GET("/staff", pages.StaffDirectory)
	router.GET("/contact-us", pages.ContactPage)
	router.POST("/contact-us", pages.SendContact)
	router.POST("/newsletter", pages.Subscribe)
	router.GET("/results-portal", pages.ResultsPortal)
	router.POST("/results-portal", pages.LookupResults)
	router.GET("/results-portal/report.xlsx", pages.DownloadReport)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/ping", api.Ping)
		apiGroup.GET("/staff", api.SearchStaff)
		apiGroup.POST("/results/lookup", api.LookupResults)
		apiGroup.POST("/contact", api.SendContact)
		apiGroup.POST("/newsletter", api.Subscribe)

		if api.Importer != nil && opts.AdminToken != "" {
			apiGroup.POST("/import/staff", RequireAdminToken(opts.AdminToken), api.ImportStaff)
		}
	}

	return router
}
