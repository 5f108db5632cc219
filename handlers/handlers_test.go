package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/content"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/models"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/services"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/web"
)

type recordingMailer struct {
	messages []models.ContactMessage
	subs     []models.Subscription
}

func (m *recordingMailer) SendContact(_ context.Context, msg models.ContactMessage) error {
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) Subscribe(_ context.Context, sub models.Subscription) error {
	m.subs = append(m.subs, sub)
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeImporter struct {
	n    int
	seen int
}

func (f *fakeImporter) ImportStaffFromExcel(_ context.Context, r io.Reader) (int, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.seen = len(b)
	return f.n, nil
}

type failingDirectory struct{}

func (failingDirectory) All(context.Context) ([]models.StaffRecord, error) {
	return nil, errors.New("store down")
}

type testServer struct {
	router *gin.Engine
	pages  *PageHandler
	api    *APIHandler
	mailer *recordingMailer
}

func newTestServer(t *testing.T, configure ...func(*testServer)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bundle, err := content.Load()
	require.NoError(t, err)
	renderer, err := web.NewRenderer(bundle)
	require.NoError(t, err)

	mailer := &recordingMailer{}
	staff := services.NewStaticDirectory(bundle.Staff())
	results := services.NewMockResults(0, nil)
	contact := services.NewContactService(mailer, 0, nil)

	ts := &testServer{
		pages:  NewPageHandler(bundle, staff, results, contact, nil),
		api:    NewAPIHandler(staff, results, contact, nil),
		mailer: mailer,
	}
	opts := RouterOptions{}
	for _, fn := range configure {
		fn(ts)
	}
	if ts.api.Importer != nil {
		opts.AdminToken = "s3cret"
	}
	ts.router = NewRouter(ts.pages, ts.api, renderer, zap.NewNop(), opts)
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) get(target string) *httptest.ResponseRecorder {
	return ts.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (ts *testServer) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(req)
}

func (ts *testServer) postJSON(target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return ts.do(req)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// --- Pages ---

func TestPagesRender(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		path string
		want []string
	}{
		{path: "/", want: []string{"NKHOTAKOTA COLLEGE OF EDUCATION SEC SCHOOL", "Mr. Mfaume Kaise", "Latest News"}},
		{path: "/admissions", want: []string{"Step 1: Form Submission", "Official Application Form 2024/2025 (PDF)", "/contact-us?subject=Application_Form_2024.pdf"}},
		{path: "/admission", want: []string{"Step 4: Enrollment Confirmation"}},
		{path: "/alumni", want: []string{"Hello, I&#39;m Gadjet.", "UI/UX Design", "BSc in IT at MUBAS"}},
		{path: "/subjects-offered", want: []string{"Science &amp; Technology Stream", "Foreign Languages (French, Mandarin)"}},
		{path: "/e-learning", want: []string{"Learning Management System (LMS)", "https://lms.academy.edu"}},
		{path: "/contact-us", want: []string{"Nkhotakota Boma, Opposite Agriculture Offices", "https://wa.me/265996415590"}},
		{path: "/results-portal", want: []string{"Access Your Academic Results", `<option value="Form 4" selected>`, `<option value="Term 3" selected>`}},
		{path: "/staff", want: []string{"Staff Directory", "17 of 17 staff members"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := ts.get(tt.path)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
			body := w.Body.String()
			for _, s := range tt.want {
				assert.Contains(t, body, s)
			}
			assert.Contains(t, body, `class="theme-light"`)
		})
	}
}

func TestAlumniLanguageAndTheme(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/alumni?lang=ny&theme=dark")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Moni, Ndine Gadjet.")
	assert.Contains(t, body, `<html lang="ny">`)
	assert.Contains(t, body, `class="theme-dark"`)

	var names []string
	for _, c := range w.Result().Cookies() {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"ncoe_lang", "ncoe_theme"}, names)

	req := httptest.NewRequest(http.MethodGet, "/alumni", nil)
	req.AddCookie(&http.Cookie{Name: "ncoe_lang", Value: "ny"})
	assert.Contains(t, ts.do(req).Body.String(), "Moni, Ndine Gadjet.")
}

func TestStaffSearch(t *testing.T) {
	ts := newTestServer(t)

	body := ts.get("/staff?q=physics").Body.String()
	assert.Contains(t, body, "Dr. Henry Mark")
	assert.NotContains(t, body, "Mrs. Chikondi Jere")
	assert.Contains(t, body, "1 of 17 staff members")

	body = ts.get("/staff?q=librarian").Body.String()
	assert.Equal(t, 5, strings.Count(body, "<h3>Ms. Janet Mwale</h3>"))
	assert.Contains(t, body, "placehold.co/600x600")

	body = ts.get("/staff?q=nobody+here").Body.String()
	assert.Contains(t, body, "No staff members match")
}

func TestStaffPageStoreError(t *testing.T) {
	ts := newTestServer(t, func(ts *testServer) {
		ts.pages.Staff = failingDirectory{}
	})

	w := ts.get("/staff")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something Went Wrong")
}

func TestResultsPortal(t *testing.T) {
	ts := newTestServer(t)

	t.Run("success", func(t *testing.T) {
		w := ts.postForm("/results-portal", url.Values{
			"name": {"Jane Banda"}, "candidateNumber": {"12345"}, "formLevel": {"Form 2"}, "term": {"Term 1"},
		})
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Your Official Term Report")
		assert.Contains(t, body, "Jane Banda")
		assert.Contains(t, body, "Distinction")
		assert.Contains(t, body, "/results-portal/report.xlsx?")
		assert.NotContains(t, body, "shake")
	})

	t.Run("failure", func(t *testing.T) {
		for _, form := range []url.Values{
			{"name": {"Jane Banda"}, "candidateNumber": {"99999"}},
			{"name": {""}, "candidateNumber": {"12345"}},
			{},
		} {
			w := ts.postForm("/results-portal", form)
			require.Equal(t, http.StatusOK, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, "We couldn&#39;t find a report matching the entered details.")
			assert.Contains(t, body, "results-form shake")
			assert.NotContains(t, body, "Your Official Term Report")
		}
	})

	t.Run("invalid term", func(t *testing.T) {
		w := ts.postForm("/results-portal", url.Values{
			"name": {"Jane Banda"}, "candidateNumber": {"12345"}, "term": {"Term 9"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Please choose a valid form and term.")
	})
}

func TestDownloadReport(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/results-portal/report.xlsx?" + url.Values{
		"name": {"Jane Banda"}, "candidateNumber": {"12345"}, "formLevel": {"Form 3"}, "term": {"Term 2"},
	}.Encode())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="report-12345.xlsx"`)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	grade, err := f.GetCellValue("Sheet1", "B5")
	require.NoError(t, err)
	assert.Equal(t, "Distinction", grade)
	form, err := f.GetCellValue("Sheet1", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Form 3", form)

	w = ts.get("/results-portal/report.xlsx?name=Jane&candidateNumber=1")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Report Not Found")
}

func TestContactForm(t *testing.T) {
	ts := newTestServer(t)

	assert.Contains(t, ts.get("/contact-us?subject=Checklist_2024.pdf").Body.String(), `value="Checklist_2024.pdf"`)

	w := ts.postForm("/contact-us", url.Values{
		"name": {"John Doe"}, "email": {"john@example.com"}, "subject": {"Visit"}, "message": {"When is open day?"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Thank you! Your message has been sent.")
	assert.NotContains(t, body, "john@example.com")
	assert.NotContains(t, body, "When is open day?")

	require.Len(t, ts.mailer.messages, 1)
	msg := ts.mailer.messages[0]
	assert.Equal(t, "John Doe", msg.Name)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.ReceivedAt.IsZero())
}

func TestNewsletterForm(t *testing.T) {
	ts := newTestServer(t)

	w := ts.postForm("/newsletter", url.Values{"email": {" parent@example.com "}, "redirect": {"/staff"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/staff?newsletter=success", w.Header().Get("Location"))
	require.Len(t, ts.mailer.subs, 1)
	assert.Equal(t, "parent@example.com", ts.mailer.subs[0].Email)

	assert.Contains(t, ts.get("/staff?newsletter=success").Body.String(), "Subscribed successfully!")
	assert.NotContains(t, ts.get("/staff").Body.String(), "Subscribed successfully!")
}

func TestLocalRedirect(t *testing.T) {
	tests := map[string]string{
		"/alumni":             "/alumni",
		"/staff?q=x":          "/staff",
		"":                    "/",
		"https://evil.com/x":  "/",
		"//evil.com":          "/",
		`/\evil.com`:          "/",
		"relative/path":       "/",
		"/contact-us#section": "/contact-us",
	}
	for in, want := range tests {
		assert.Equal(t, want, localRedirect(in), in)
	}
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/no-such-page")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page Not Found")

	w = ts.get("/api/no-such-endpoint")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode(t, w), "error")
}

func TestRecoveryRendersErrorPage(t *testing.T) {
	ts := newTestServer(t)
	ts.router.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := ts.get("/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something Went Wrong")
}

func TestStaticAssets(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/static/css/site.css")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".shake")

	assert.Equal(t, http.StatusOK, ts.get("/static/js/site.js").Code)
}

// --- API ---

func TestAPIPing(t *testing.T) {
	ts := newTestServer(t)
	body := decode(t, ts.get("/api/ping"))
	assert.Equal(t, "Pong!", body["message"])
	assert.Equal(t, "disabled", body["redis"])

	ts = newTestServer(t, func(ts *testServer) { ts.api.Redis = fakePinger{} })
	assert.Equal(t, "ok", decode(t, ts.get("/api/ping"))["redis"])

	ts = newTestServer(t, func(ts *testServer) { ts.api.Redis = fakePinger{err: errors.New("down")} })
	assert.Equal(t, "error", decode(t, ts.get("/api/ping"))["redis"])
}

func TestAPISearchStaff(t *testing.T) {
	ts := newTestServer(t)

	body := decode(t, ts.get("/api/staff?q=Sciences"))
	assert.EqualValues(t, 3, body["count"])

	body = decode(t, ts.get("/api/staff"))
	assert.EqualValues(t, 17, body["count"])

	body = decode(t, ts.get("/api/staff?q=zzz"))
	assert.EqualValues(t, 0, body["count"])
	assert.Equal(t, []any{}, body["results"])
}

func TestAPILookupResults(t *testing.T) {
	ts := newTestServer(t)

	w := ts.postJSON("/api/results/lookup", `{"name":"Jane Banda","candidateNumber":"12345"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	report := body["report"].(map[string]any)
	assert.Equal(t, "Jane Banda", report["studentName"])
	assert.Equal(t, "Distinction", report["mockGrade"])
	assert.Equal(t, "Form 4", report["form"])

	w = ts.postJSON("/api/results/lookup", `{"name":"Jane Banda","candidateNumber":"1234"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	body = decode(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "We couldn't find a report matching the entered details.", body["message"])

	w = ts.postJSON("/api/results/lookup", `{"name":"Jane Banda","candidateNumber":"12345","formLevel":"Form 5"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.postJSON("/api/results/lookup", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIContactAndNewsletter(t *testing.T) {
	ts := newTestServer(t)

	w := ts.postJSON("/api/contact", `{"name":"John","email":"john@example.com","message":"Hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Thank you! Your message has been sent.", body["message"])
	require.Len(t, ts.mailer.messages, 1)

	w = ts.postJSON("/api/newsletter", `{"email":"parent@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Subscribed successfully!", decode(t, w)["message"])

	assert.Equal(t, http.StatusBadRequest, ts.postJSON("/api/contact", `[`).Code)
}

func rosterUpload(t *testing.T, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "roster.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake workbook bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import/staff", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("X-Admin-Token", token)
	}
	return req
}

func TestAPIImportStaff(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, ts.do(rosterUpload(t, "s3cret")).Code)

	importer := &fakeImporter{n: 4}
	ts = newTestServer(t, func(ts *testServer) { ts.api.Importer = importer })

	assert.Equal(t, http.StatusUnauthorized, ts.do(rosterUpload(t, "")).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(rosterUpload(t, "wrong")).Code)

	w := ts.do(rosterUpload(t, "s3cret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 4, decode(t, w)["importedCount"])
	assert.Equal(t, len("fake workbook bytes"), importer.seen)

	req := httptest.NewRequest(http.MethodPost, "/api/import/staff", nil)
	req.Header.Set("X-Admin-Token", "s3cret")
	assert.Equal(t, http.StatusBadRequest, ts.do(req).Code)
}
