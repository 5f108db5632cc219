// Package prefs resolves the visitor's language and theme for a request.
package prefs

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/models"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// ThemeParam is the query parameter used to select a theme.
	ThemeParam = "theme"
	// LangCookieName stores the visitor's language preference.
	LangCookieName = "ncoe_lang"
	// ThemeCookieName stores the visitor's theme preference.
	ThemeCookieName = "ncoe_theme"

	contextKey = "prefs"
	cookieAge  = 365 * 24 * time.Hour
)

var supportedTags = []language.Tag{
	language.English,
	language.Make("ny"),
}

var tagMatcher = language.NewMatcher(supportedTags)

// Default returns the preferences of a first-time visitor.
func Default() models.Preferences {
	return models.Preferences{Lang: supportedTags[0].String(), Theme: models.ThemeLight}
}

// Resolve determines the visitor's preferences. Language comes from the lang
// query parameter, then the cookie, then Accept-Language; theme from the query
// parameter, then the cookie. The booleans report which values came from the
// query and should be persisted.
func Resolve(r *http.Request) (p models.Preferences, persistLang, persistTheme bool) {
	p = Default()
	if r == nil {
		return p, false, false
	}
	q := r.URL.Query()

	switch {
	case parseLangInto(&p, q.Get(LangParam)):
		persistLang = true
	case parseLangInto(&p, cookieValue(r, LangCookieName)):
	default:
		if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
			if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
				_, idx, conf := tagMatcher.Match(tags...)
				if conf != language.No {
					p.Lang = supportedTags[idx].String()
				}
			}
		}
	}

	switch {
	case parseThemeInto(&p, q.Get(ThemeParam)):
		persistTheme = true
	case parseThemeInto(&p, cookieValue(r, ThemeCookieName)):
	}
	return p, persistLang, persistTheme
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func parseLangInto(p *models.Preferences, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	parsed, err := language.Parse(value)
	if err != nil {
		return false
	}
	base, _ := parsed.Base()
	for _, tag := range supportedTags {
		if b, _ := tag.Base(); b == base {
			p.Lang = tag.String()
			return true
		}
	}
	return false
}

func parseThemeInto(p *models.Preferences, value string) bool {
	switch models.Theme(strings.ToLower(strings.TrimSpace(value))) {
	case models.ThemeLight:
		p.Theme = models.ThemeLight
	case models.ThemeDark:
		p.Theme = models.ThemeDark
	default:
		return false
	}
	return true
}

func setCookie(c *gin.Context, name, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(cookieAge.Seconds()), "/", "", false, true)
}

// Middleware resolves the preferences once per request, persists query
// overrides as cookies and stores the result on the gin context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, persistLang, persistTheme := Resolve(c.Request)
		if persistLang {
			setCookie(c, LangCookieName, p.Lang)
		}
		if persistTheme {
			setCookie(c, ThemeCookieName, string(p.Theme))
		}
		c.Set(contextKey, p)
		c.Next()
	}
}

// FromContext returns the preferences stored by Middleware, or the defaults.
func FromContext(c *gin.Context) models.Preferences {
	if v, ok := c.Get(contextKey); ok {
		if p, ok := v.(models.Preferences); ok {
			return p
		}
	}
	return Default()
}
