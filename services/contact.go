package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/models"
)

// Mailer delivers what visitors leave in the contact and newsletter forms.
type Mailer interface {
	SendContact(ctx context.Context, msg models.ContactMessage) error
	Subscribe(ctx context.Context, sub models.Subscription) error
}

// LogMailer only logs; nothing leaves the process.
type LogMailer struct {
	Logger *zap.Logger
}

func (m LogMailer) SendContact(_ context.Context, msg models.ContactMessage) error {
	m.logger().Info("contact message received",
		zap.String("id", msg.ID),
		zap.String("email", msg.Email),
		zap.Int("length", len(msg.Message)))
	return nil
}

func (m LogMailer) Subscribe(_ context.Context, sub models.Subscription) error {
	m.logger().Info("newsletter subscription", zap.String("email", sub.Email))
	return nil
}

func (m LogMailer) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}

// StatusFunc observes the status changes of a form submission.
type StatusFunc func(models.SubmissionStatus)

// ContactService runs the contact and newsletter forms. Submissions go
// pending -> success; there is no failure state. Mailer errors are logged.
type ContactService struct {
	Mailer Mailer
	Delay  time.Duration
	Now    func() time.Time
	Logger *zap.Logger
}

// NewContactService wires a mailer with the simulated delivery delay
func NewContactService(mailer Mailer, delay time.Duration, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{Mailer: mailer, Delay: delay, Now: time.Now, Logger: logger}
}

// SendMessage submits a contact message. It returns an error only when ctx
// ends before the submission completes.
func (s *ContactService) SendMessage(ctx context.Context, msg models.ContactMessage, onStatus StatusFunc) (models.SubmissionStatus, error) {
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = s.now()
	}
	return s.submit(ctx, models.ContactForm, onStatus, func(ctx context.Context) error {
		return s.Mailer.SendContact(ctx, msg)
	})
}

// Subscribe submits a newsletter sign-up.
func (s *ContactService) Subscribe(ctx context.Context, sub models.Subscription, onStatus StatusFunc) (models.SubmissionStatus, error) {
	if sub.SubscribedAt.IsZero() {
		sub.SubscribedAt = s.now()
	}
	return s.submit(ctx, models.NewsletterForm, onStatus, func(ctx context.Context) error {
		return s.Mailer.Subscribe(ctx, sub)
	})
}

func (s *ContactService) submit(ctx context.Context, kind models.FormKind, onStatus StatusFunc, deliver func(context.Context) error) (models.SubmissionStatus, error) {
	notify := func(st models.SubmissionStatus) {
		if onStatus != nil {
			onStatus(st)
		}
	}

	pending := models.StatusFor(kind, models.SubmissionPending)
	notify(pending)

	if err := wait(ctx, s.Delay); err != nil {
		return pending, err
	}

	if s.Mailer != nil {
		if err := deliver(ctx); err != nil {
			s.Logger.Error("form delivery failed", zap.String("form", string(kind)), zap.Error(err))
		}
	}

	done := models.StatusFor(kind, models.SubmissionSuccess)
	notify(done)
	return done, nil
}

func (s *ContactService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
