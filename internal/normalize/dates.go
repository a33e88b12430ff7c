package normalize

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lllllllleong/invoiceextraction/internal/models"
)

// DefaultPaymentTermDays is added to the invoice date when no due date was
// extracted.
const DefaultPaymentTermDays = 30

// DateProcessor derives the due date and overdue count of an invoice.
type DateProcessor struct {
	location *time.Location
	now      func() time.Time
}

// NewDateProcessor creates a processor that evaluates "today" in loc. A nil
// loc means UTC.
func NewDateProcessor(loc *time.Location) *DateProcessor {
	if loc == nil {
		loc = time.UTC
	}
	return &DateProcessor{location: loc, now: time.Now}
}

// WithClock returns a copy of p reading the current time from now.
func (p *DateProcessor) WithClock(now func() time.Time) *DateProcessor {
	cp := *p
	cp.now = now
	return &cp
}

// Process parses both dates, fills in a missing due date and counts the
// whole days the invoice is overdue. It never fails: unparsable dates are
// treated as absent, and an internal failure yields a summary with nil dates,
// zero days and Cause set.
func (p *DateProcessor) Process(logger *slog.Logger, invoiceDate, dueDate *string) (summary models.DateSummary) {
	if logger == nil {
		logger = slog.Default()
	}

	var today time.Time
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Date processing failed; using empty dates", "panic", r)
			if today.IsZero() {
				today = truncateToDay(time.Now().UTC())
			}
			summary = models.DateSummary{
				CurrentDate: today,
				Cause:       fmt.Errorf("date processing: %v", r),
			}
		}
	}()

	today = truncateToDay(p.now().In(p.location))
	summary.CurrentDate = today
	summary.InvoiceDate = p.parse(logger, models.FieldInvoiceDate, invoiceDate)
	summary.DueDate = p.parse(logger, models.FieldDueDate, dueDate)

	if summary.DueDate == nil && summary.InvoiceDate != nil {
		derived := summary.InvoiceDate.AddDate(0, 0, DefaultPaymentTermDays)
		summary.DueDate = &derived
		logger.Info("Due date derived from invoice date", "dueDate", derived.Format(models.DateLayout))
	}

	if summary.DueDate != nil {
		summary.DaysOverdue = daysBetween(*summary.DueDate, today)
	}
	return summary
}

func (p *DateProcessor) parse(logger *slog.Logger, field string, raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil
	}
	t, err := time.ParseInLocation(models.DateLayout, value, p.location)
	if err != nil {
		logger.Warn("Unparsable date treated as absent", "field", field, "value", value, "error", err)
		return nil
	}
	return &t
}

const secondsPerDay = 24 * 60 * 60

// daysBetween counts calendar days from due to today, floored at zero. It
// works on Unix seconds since time.Duration cannot span more than ~292 years.
func daysBetween(due, today time.Time) int {
	from := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	days := (to.Unix() - from.Unix()) / secondsPerDay
	if days < 0 {
		return 0
	}
	return int(days)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
