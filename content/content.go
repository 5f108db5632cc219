// Package content holds the site copy, the staff dataset and the locale
// catalogs, embedded at build time.
package content

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/models"
)

// DefaultLocale is used whenever a message is missing in the requested locale
const DefaultLocale = "en"

//go:embed data/*.yaml data/locales/*.yaml
var dataFS embed.FS

type NavLink struct {
	Label    string    `yaml:"label"`
	Href     string    `yaml:"href"`
	Children []NavLink `yaml:"children"`
}

type ContactInfo struct {
	Headquarters string `yaml:"headquarters"`
	Phone        string `yaml:"phone"`
	Email        string `yaml:"email"`
	Hours        string `yaml:"hours"`
	Days         string `yaml:"days"`
	WhatsApp     string `yaml:"whatsapp"`
}

type ResultsSupport struct {
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
	Guide string `yaml:"guide"`
}

type Dated struct {
	Title string `yaml:"title"`
	Date  string `yaml:"date"`
}

type Described struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type Stat struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type SubjectGroup struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Subjects    []string `yaml:"subjects"`
}

type Home struct {
	Hero        []string       `yaml:"hero"`
	HeadTeacher struct {
		Name  string `yaml:"name"`
		Quote string `yaml:"quote"`
		Image string `yaml:"image"`
	} `yaml:"head_teacher"`
	Departments []SubjectGroup `yaml:"departments"`
	Stats       []Stat         `yaml:"stats"`
	Reasons     []string       `yaml:"reasons"`
	News        []Dated        `yaml:"news"`
	Events      []Dated        `yaml:"events"`
	Clubs       []string       `yaml:"clubs"`
}

type Download struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

type Admissions struct {
	Steps     []Described `yaml:"steps"`
	Reasons   []Described `yaml:"reasons"`
	Downloads []Download  `yaml:"downloads"`
}

type Portal struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Link        string `yaml:"link"`
	CTA         string `yaml:"cta"`
}

type Project struct {
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	Image    string `yaml:"image"`
}

type Alumni struct {
	Projects []Project `yaml:"projects"`
}

// Site is everything the page templates render besides the staff list
type Site struct {
	Name           string         `yaml:"name"`
	ShortName      string         `yaml:"short_name"`
	Motto          string         `yaml:"motto"`
	Nav            []NavLink      `yaml:"nav"`
	FooterLinks    []NavLink      `yaml:"footer_links"`
	Contact        ContactInfo    `yaml:"contact"`
	ResultsSupport ResultsSupport `yaml:"results_support"`
	Home           Home           `yaml:"home"`
	Admissions     Admissions     `yaml:"admissions"`
	Portals        []Portal       `yaml:"portals"`
	Streams        []SubjectGroup `yaml:"streams"`
	Alumni         Alumni         `yaml:"alumni"`
}

type staffFile struct {
	Staff []models.StaffRecord `yaml:"staff"`
}

type localeFile struct {
	Locale   string            `yaml:"locale"`
	Label    string            `yaml:"label"`
	Messages map[string]string `yaml:"messages"`
}

// Locale is one message catalog
type Locale struct {
	Tag      string
	Label    string
	Messages map[string]string
}

// Bundle is the loaded content
type Bundle struct {
	Site    Site
	staff   []models.StaffRecord
	locales map[string]Locale
}

// Load reads the embedded content.
func Load() (*Bundle, error) {
	sub, err := fs.Sub(dataFS, "data")
	if err != nil {
		return nil, fmt.Errorf("open embedded content: %w", err)
	}
	return LoadFromFS(sub)
}

// LoadFromFS reads site.yaml, staff.yaml and locales/*.yaml from fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	b := &Bundle{locales: map[string]Locale{}}

	if err := decodeFile(fsys, "site.yaml", &b.Site); err != nil {
		return nil, err
	}

	var sf staffFile
	if err := decodeFile(fsys, "staff.yaml", &sf); err != nil {
		return nil, err
	}
	for i, rec := range sf.Staff {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("staff.yaml entry %d: %w", i+1, err)
		}
	}
	b.staff = sf.Staff

	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locales: %w", err)
	}
	sort.Strings(paths)
	for _, path := range paths {
		var lf localeFile
		if err := decodeFile(fsys, path, &lf); err != nil {
			return nil, err
		}
		tag := strings.TrimSpace(lf.Locale)
		if tag == "" {
			return nil, fmt.Errorf("%s: locale is required", path)
		}
		if _, exists := b.locales[tag]; exists {
			return nil, fmt.Errorf("%s: locale %q defined twice", path, tag)
		}
		b.locales[tag] = Locale{Tag: tag, Label: lf.Label, Messages: lf.Messages}
	}
	if _, ok := b.locales[DefaultLocale]; !ok {
		return nil, errors.New("default locale catalog is missing")
	}
	return b, nil
}

func decodeFile(fsys fs.FS, path string, out any) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Staff returns a copy of the staff dataset.
func (b *Bundle) Staff() []models.StaffRecord {
	out := make([]models.StaffRecord, len(b.staff))
	copy(out, b.staff)
	return out
}

// Locales returns the catalog tags, default first.
func (b *Bundle) Locales() []string {
	tags := make([]string, 0, len(b.locales))
	for tag := range b.locales {
		if tag != DefaultLocale {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return append([]string{DefaultLocale}, tags...)
}

// LocaleLabel returns the human name of a locale
func (b *Bundle) LocaleLabel(tag string) string {
	if l, ok := b.locales[tag]; ok && l.Label != "" {
		return l.Label
	}
	return tag
}

// Message looks a key up in lang, then the default locale, then returns the key.
func (b *Bundle) Message(lang, key string) string {
	if l, ok := b.locales[lang]; ok {
		if v, ok := l.Messages[key]; ok {
			return v
		}
	}
	if v, ok := b.locales[DefaultLocale].Messages[key]; ok {
		return v
	}
	return key
}

// MessageList splits a pipe separated message into its parts.
func (b *Bundle) MessageList(lang, key string) []string {
	parts := strings.Split(b.Message(lang, key), "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
