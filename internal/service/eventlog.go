package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"neurocalm/internal/models"
	"neurocalm/internal/repository"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	ErrUnknownEventType = errors.New("unknown session event type")

	sessionEventTypes = map[string]bool{
		models.EventConnect:    true,
		models.EventDisconnect: true,
		models.EventError:      true,
		models.EventAnalysis:   true,
		models.EventCalibrate:  true,
	}
)

// LogFilter narrows the session log by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "" or one of the models.Event* types, any case
}

// normalize returns f with UTC bounds and an upper-case type, or an error
// matched by IsInvalidFilter.
func (f LogFilter) normalize() (LogFilter, error) {
	if !f.From.IsZero() {
		f.From = f.From.UTC()
	}
	if !f.To.IsZero() {
		f.To = f.To.UTC()
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return LogFilter{}, ErrInvalidTimeRange
	}
	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	if f.Type != "" && !sessionEventTypes[f.Type] {
		return LogFilter{}, fmt.Errorf("%w: %q", ErrUnknownEventType, f.Type)
	}
	return f, nil
}

// IsInvalidFilter reports whether err came from filter validation.
func IsInvalidFilter(err error) bool {
	return errors.Is(err, ErrInvalidTimeRange) || errors.Is(err, ErrUnknownEventType)
}

// EventLogService reads back the session log written by the connection,
// monitoring and analysis services.
type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.SessionEvent, error) {
	f, err := f.normalize()
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, f.From, f.To, f.Type)
}
