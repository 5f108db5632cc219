package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidFormLevel  = errors.New("invalid form level")
	ErrInvalidTerm       = errors.New("invalid term")
	ErrInvalidDepartment = errors.New("invalid department")
)

// FormLevel is the class year a report belongs to
type FormLevel string

const (
	Form1 FormLevel = "Form 1"
	Form2 FormLevel = "Form 2"
	Form3 FormLevel = "Form 3"
	Form4 FormLevel = "Form 4"

	DefaultFormLevel = Form4
)

// FormLevels lists the selectable form levels in display order
var FormLevels = []FormLevel{Form1, Form2, Form3, Form4}

// ParseFormLevel accepts one of the four form levels; empty means the default.
func ParseFormLevel(s string) (FormLevel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultFormLevel, nil
	}
	for _, f := range FormLevels {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormLevel, s)
}

// Term is an academic term
type Term string

const (
	Term1 Term = "Term 1"
	Term2 Term = "Term 2"
	Term3 Term = "Term 3"

	DefaultTerm = Term3
)

// Terms lists the selectable terms in display order
var Terms = []Term{Term1, Term2, Term3}

// ParseTerm accepts one of the three terms; empty means the default.
func ParseTerm(s string) (Term, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTerm, nil
	}
	for _, t := range Terms {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTerm, s)
}

// Credentials is what a student types into the results portal
type Credentials struct {
	Name            string    `json:"name" form:"name"`
	CandidateNumber string    `json:"candidateNumber" form:"candidateNumber"`
	FormLevel       FormLevel `json:"formLevel" form:"formLevel"`
	Term            Term      `json:"term" form:"term"`
}

// Normalize fills in default enum values and rejects unknown ones.
func (c Credentials) Normalize() (Credentials, error) {
	form, err := ParseFormLevel(string(c.FormLevel))
	if err != nil {
		return c, err
	}
	term, err := ParseTerm(string(c.Term))
	if err != nil {
		return c, err
	}
	c.FormLevel = form
	c.Term = term
	return c, nil
}

// ReportRecord is the mock term report shown after a successful lookup
type ReportRecord struct {
	StudentName     string    `json:"studentName"`
	CandidateNumber string    `json:"candidateNumber"`
	Form            FormLevel `json:"form"`
	Term            Term      `json:"term"`
	MockGrade       string    `json:"mockGrade"`
	Date            string    `json:"date"`
}

// LookupStatus tracks the results form: idle -> pending -> success | error
type LookupStatus string

const (
	LookupIdle    LookupStatus = "idle"
	LookupPending LookupStatus = "pending"
	LookupSuccess LookupStatus = "success"
	LookupError   LookupStatus = "error"
)

// Department groups staff records for display
type Department string

const (
	Leadership Department = "Leadership"
	Advisory   Department = "Advisory"
	Sciences   Department = "Sciences"
	Humanities Department = "Humanities"
	Languages  Department = "Languages"
	Support    Department = "Support"
)

// Departments is the fixed display order of the staff directory
var Departments = []Department{Leadership, Advisory, Sciences, Humanities, Languages, Support}

// ParseDepartment matches a department name case-insensitively.
func ParseDepartment(s string) (Department, error) {
	s = strings.TrimSpace(s)
	for _, d := range Departments {
		if strings.EqualFold(string(d), s) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDepartment, s)
}

// UnmarshalText lets YAML and form decoding normalise the department tag.
func (d *Department) UnmarshalText(text []byte) error {
	parsed, err := ParseDepartment(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsAcademic reports whether the department is a teaching department
func (d Department) IsAcademic() bool {
	return d == Sciences || d == Humanities || d == Languages
}

// PlaceholderPhoto is shown when a staff image path is missing or broken
const PlaceholderPhoto = "https://placehold.co/600x600/1E3A8A/F8F7F2?text=Staff+Photo"

// StaffRecord represents one member of staff in the directory
type StaffRecord struct {
	Name       string     `json:"name" yaml:"name"`
	Title      string     `json:"title" yaml:"title"`
	Department Department `json:"department" yaml:"department"`
	Subject    string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	Bio        string     `json:"bio,omitempty" yaml:"bio,omitempty"`
	Image      string     `json:"image" yaml:"image"`
}

// Photo returns the image URL, or the placeholder when the stored path cannot
// point at an image (empty, a directory, or a name without an extension).
func (s StaffRecord) Photo() string {
	img := strings.TrimSpace(s.Image)
	if img == "" || strings.HasSuffix(img, "/") {
		return PlaceholderPhoto
	}
	if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
		return img
	}
	base := img[strings.LastIndex(img, "/")+1:]
	if !strings.Contains(base, ".") {
		return PlaceholderPhoto
	}
	return img
}

// Validate checks the fields a directory entry cannot do without
func (s StaffRecord) Validate() error {
	if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Title) == "" {
		return errors.New("staff name and title cannot be empty")
	}
	if _, err := ParseDepartment(string(s.Department)); err != nil {
		return err
	}
	return nil
}

// ContactMessage is a message left through the contact form
type ContactMessage struct {
	ID         string    `json:"id"`
	Name       string    `json:"name" form:"name"`
	Email      string    `json:"email" form:"email"`
	Subject    string    `json:"subject,omitempty" form:"subject"`
	Message    string    `json:"message" form:"message"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// NewContactMessage stamps a message with an ID and receive time
func NewContactMessage(name, email, subject, message string, now time.Time) ContactMessage {
	return ContactMessage{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(name),
		Email:      strings.TrimSpace(email),
		Subject:    strings.TrimSpace(subject),
		Message:    strings.TrimSpace(message),
		ReceivedAt: now,
	}
}

// Subscription is a newsletter sign-up
type Subscription struct {
	Email        string    `json:"email" form:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// FormKind distinguishes the two mock-submitted forms
type FormKind string

const (
	ContactForm    FormKind = "contact"
	NewsletterForm FormKind = "newsletter"
)

// SubmissionState tracks a mock-submitted form: idle -> pending -> success
type SubmissionState string

const (
	SubmissionIdle    SubmissionState = "idle"
	SubmissionPending SubmissionState = "pending"
	SubmissionSuccess SubmissionState = "success"
)

// SubmissionStatus pairs a form state with the text shown to the visitor
type SubmissionStatus struct {
	Kind  FormKind        `json:"kind"`
	State SubmissionState `json:"status"`
	Text  string          `json:"message"`
}

// StatusFor returns the visitor-facing status of a form in the given state.
func StatusFor(kind FormKind, state SubmissionState) SubmissionStatus {
	st := SubmissionStatus{Kind: kind, State: state}
	switch {
	case state == SubmissionPending && kind == ContactForm:
		st.Text = "Sending message..."
	case state == SubmissionPending && kind == NewsletterForm:
		st.Text = "Subscribing..."
	case state == SubmissionSuccess && kind == ContactForm:
		st.Text = "Thank you! Your message has been sent."
	case state == SubmissionSuccess && kind == NewsletterForm:
		st.Text = "Subscribed successfully!"
	}
	return st
}

// Theme is the colour scheme picked by the visitor
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Preferences carries the visitor's language and theme through a request
type Preferences struct {
	Lang  string `json:"lang"`
	Theme Theme  `json:"theme"`
}

// IsDark is a template helper
func (p Preferences) IsDark() bool {
	return p.Theme == ThemeDark
}
