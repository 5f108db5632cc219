package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/content"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/db"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/models"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/prefs"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/services"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/web"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PageHandler renders the HTML pages of the site.
type PageHandler struct {
	Bundle  *content.Bundle
	Staff   services.StaffDirectory
	Results services.ResultsService
	Contact *services.ContactService
	Logger  *zap.Logger
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(bundle *content.Bundle, staff services.StaffDirectory, results services.ResultsService, contact *services.ContactService, logger *zap.Logger) *PageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandler{
		Bundle:  bundle,
		Staff:   staff,
		Results: results,
		Contact: contact,
		Logger:  logger,
	}
}

// page builds the render data every template expects, then adds extra.
func (h *PageHandler) page(c *gin.Context, name, title string, extra gin.H) gin.H {
	data := gin.H{
		"Title":       title + " - " + h.Bundle.Site.ShortName,
		"CurrentPage": name,
		"Site":        &h.Bundle.Site,
		"Prefs":       prefs.FromContext(c),
		"RequestPath": c.Request.URL.Path,
	}
	if c.Query("newsletter") == string(models.SubmissionSuccess) {
		data["Newsletter"] = models.StatusFor(models.NewsletterForm, models.SubmissionSuccess)
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// Home handles GET /
func (h *PageHandler) Home(c *gin.Context) {
	all, err := h.Staff.All(c.Request.Context())
	if err != nil {
		h.serverError(c, fmt.Errorf("load staff for home page: %w", err))
		return
	}

	leaders := make([]models.StaffRecord, 0, 3)
	for _, s := range all {
		if s.Department == models.Leadership {
			leaders = append(leaders, s)
		}
	}

	c.HTML(http.StatusOK, web.PageHome, h.page(c, web.PageHome, "Home", gin.H{
		"Leaders": leaders,
	}))
}

// Admissions handles GET /admissions
func (h *PageHandler) Admissions(c *gin.Context) {
	c.HTML(http.StatusOK, web.PageAdmissions, h.page(c, web.PageAdmissions, "Admissions", nil))
}

// Alumni handles GET /alumni
func (h *PageHandler) Alumni(c *gin.Context) {
	c.HTML(http.StatusOK, web.PageAlumni, h.page(c, web.PageAlumni, "Alumni", gin.H{
		"EducationKeys": []string{"alumni.education.first", "alumni.education.second"},
	}))
}

// Subjects handles GET /subjects-offered
func (h *PageHandler) Subjects(c *gin.Context) {
	c.HTML(http.StatusOK, web.PageSubjects, h.page(c, web.PageSubjects, "Subjects Offered", nil))
}

// ELearning handles GET /e-learning
func (h *PageHandler) ELearning(c *gin.Context) {
	c.HTML(http.StatusOK, web.PageELearning, h.page(c, web.PageELearning, "E-Learning", nil))
}

// --- Staff directory ---

// StaffDirectory handles GET /staff?q=
func (h *PageHandler) StaffDirectory(c *gin.Context) {
	all, err := h.Staff.All(c.Request.Context())
	if err != nil {
		h.serverError(c, fmt.Errorf("load staff directory: %w", err))
		return
	}

	query := c.Query("q")
	filtered := services.FilterStaff(all, query)
	c.HTML(http.StatusOK, web.PageStaff, h.page(c, web.PageStaff, "Staff Directory", gin.H{
		"Query":    query,
		"Sections": services.GroupByDepartment(filtered),
		"Count":    len(filtered),
		"Total":    len(all),
	}))
}

// --- Results portal ---

func (h *PageHandler) resultsData(c *gin.Context, creds models.Credentials, status models.LookupStatus, extra gin.H) gin.H {
	data := gin.H{
		"Credentials": creds,
		"Status":      status,
		"FormLevels":  models.FormLevels,
		"Terms":       models.Terms,
	}
	for k, v := range extra {
		data[k] = v
	}
	return h.page(c, web.PageResults, "Results Portal", data)
}

// ResultsPortal handles GET /results-portal
func (h *PageHandler) ResultsPortal(c *gin.Context) {
	creds := models.Credentials{FormLevel: models.DefaultFormLevel, Term: models.DefaultTerm}
	c.HTML(http.StatusOK, web.PageResults, h.resultsData(c, creds, models.LookupIdle, nil))
}

// LookupResults handles POST /results-portal
func (h *PageHandler) LookupResults(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBind(&creds); err != nil {
		c.HTML(http.StatusBadRequest, web.PageResults, h.resultsData(c, creds, models.LookupError, gin.H{
			"Message": "Please check the details you entered.",
		}))
		return
	}

	report, err := h.Results.Lookup(c.Request.Context(), creds)
	if normalized, nerr := creds.Normalize(); nerr == nil {
		creds = normalized
	}
	switch {
	case err == nil:
		c.HTML(http.StatusOK, web.PageResults, h.resultsData(c, creds, models.LookupSuccess, gin.H{
			"Report":      report,
			"DownloadURL": reportDownloadURL(creds),
		}))
	case errors.Is(err, services.ErrReportNotFound):
		c.HTML(http.StatusOK, web.PageResults, h.resultsData(c, creds, models.LookupError, gin.H{
			"Message": err.Error(),
		}))
	case errors.Is(err, models.ErrInvalidFormLevel), errors.Is(err, models.ErrInvalidTerm):
		c.HTML(http.StatusBadRequest, web.PageResults, h.resultsData(c, creds, models.LookupError, gin.H{
			"Message": "Please choose a valid form and term.",
		}))
	case c.Request.Context().Err() != nil:
		h.Logger.Debug("results lookup abandoned", zap.Error(err))
		c.AbortWithStatus(statusClientClosedRequest)
	default:
		h.serverError(c, fmt.Errorf("results lookup: %w", err))
	}
}

func reportDownloadURL(creds models.Credentials) string {
	v := url.Values{}
	v.Set("name", creds.Name)
	v.Set("candidateNumber", creds.CandidateNumber)
	v.Set("formLevel", string(creds.FormLevel))
	v.Set("term", string(creds.Term))
	return "/results-portal/report.xlsx?" + v.Encode()
}

// DownloadReport handles GET /results-portal/report.xlsx. The credentials
// travel in the query and go through the same lookup as the form.
func (h *PageHandler) DownloadReport(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindQuery(&creds); err != nil {
		h.renderError(c, http.StatusBadRequest, "Bad Request", "The report link is malformed.")
		return
	}

	report, err := h.Results.Lookup(c.Request.Context(), creds)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrReportNotFound):
		h.renderError(c, http.StatusNotFound, "Report Not Found", err.Error())
		return
	case errors.Is(err, models.ErrInvalidFormLevel), errors.Is(err, models.ErrInvalidTerm):
		h.renderError(c, http.StatusBadRequest, "Bad Request", "Please choose a valid form and term.")
		return
	case c.Request.Context().Err() != nil:
		c.AbortWithStatus(statusClientClosedRequest)
		return
	default:
		h.serverError(c, fmt.Errorf("results lookup: %w", err))
		return
	}

	buf, err := db.ReportWorkbook(report)
	if err != nil {
		h.serverError(c, fmt.Errorf("build report workbook: %w", err))
		return
	}

	filename := fmt.Sprintf("report-%s.xlsx", sanitizeFilename(report.CandidateNumber))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
			return r
		}
		return -1
	}, s)
}

// --- Contact and newsletter ---

// ContactPage handles GET /contact-us. ?subject= prefills the subject line.
func (h *PageHandler) ContactPage(c *gin.Context) {
	c.HTML(http.StatusOK, web.PageContact, h.page(c, web.PageContact, "Contact Us", gin.H{
		"Form": contactRequest{Subject: strings.TrimSpace(c.Query("subject"))},
	}))
}

// SendContact handles POST /contact-us. The form is cleared on success.
func (h *PageHandler) SendContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, web.PageContact, h.page(c, web.PageContact, "Contact Us", gin.H{
			"Form": req,
		}))
		return
	}

	msg := models.NewContactMessage(req.Name, req.Email, req.Subject, req.Message, time.Time{})
	status, err := h.Contact.SendMessage(c.Request.Context(), msg, nil)
	if err != nil {
		h.Logger.Debug("contact form abandoned", zap.Error(err))
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}

	c.HTML(http.StatusOK, web.PageContact, h.page(c, web.PageContact, "Contact Us", gin.H{
		"Form":    contactRequest{},
		"Contact": status,
	}))
}

// Subscribe handles POST /newsletter from the footer form and sends the
// visitor back to the page they came from.
func (h *PageHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	_ = c.ShouldBind(&req)

	if _, err := h.Contact.Subscribe(c.Request.Context(), models.Subscription{Email: strings.TrimSpace(req.Email)}, nil); err != nil {
		h.Logger.Debug("newsletter form abandoned", zap.Error(err))
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}

	c.Redirect(http.StatusSeeOther, localRedirect(req.Redirect)+"?newsletter="+string(models.SubmissionSuccess))
}

// localRedirect only accepts absolute paths on this site.
func localRedirect(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.Contains(u.Path, `\`) {
		return "/"
	}
	return u.Path
}
