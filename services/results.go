package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/models"
)

// ErrReportNotFound is returned for any credentials that do not match a report.
// Its text is shown to the visitor verbatim.
var ErrReportNotFound = errors.New("We couldn't find a report matching the entered details.")

const (
	// DemoCandidateNumber is the only candidate number the mock service knows
	DemoCandidateNumber = "12345"
	// DemoGrade is the grade printed on every mock report
	DemoGrade = "Distinction"
)

// ResultsService looks up a student's term report.
type ResultsService interface {
	Lookup(ctx context.Context, creds models.Credentials) (models.ReportRecord, error)
}

// MockResults answers lookups after a fixed delay, without any backing store.
type MockResults struct {
	Delay  time.Duration
	Now    func() time.Time
	Logger *zap.Logger
}

// NewMockResults creates a MockResults with the given simulated latency
func NewMockResults(delay time.Duration, logger *zap.Logger) *MockResults {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockResults{Delay: delay, Now: time.Now, Logger: logger}
}

// Lookup waits for the configured delay, then succeeds only for the demo
// candidate number with a non-blank name.
func (s *MockResults) Lookup(ctx context.Context, creds models.Credentials) (models.ReportRecord, error) {
	creds, err := creds.Normalize()
	if err != nil {
		return models.ReportRecord{}, err
	}

	if err := wait(ctx, s.Delay); err != nil {
		return models.ReportRecord{}, err
	}

	if creds.CandidateNumber != DemoCandidateNumber || strings.TrimSpace(creds.Name) == "" {
		s.Logger.Debug("report lookup failed",
			zap.String("form", string(creds.FormLevel)),
			zap.String("term", string(creds.Term)))
		return models.ReportRecord{}, ErrReportNotFound
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return models.ReportRecord{
		StudentName:     creds.Name,
		CandidateNumber: creds.CandidateNumber,
		Form:            creds.FormLevel,
		Term:            creds.Term,
		MockGrade:       DemoGrade,
		Date:            now().Format("1/2/2006"),
	}, nil
}

// wait blocks for d or until ctx is done, whichever comes first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
