package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"task_manager/internal/logger"
	"task_manager/internal/models"
	"task_manager/internal/repository"
)

// Recorder appends audit events. Implementations must not fail the caller.
type Recorder interface {
	Record(ctx context.Context, e models.AuditEvent)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, models.AuditEvent) {}

// AuditService records and lists audit events.
type AuditService struct {
	auditRepo repository.AuditLog
	log       *logger.Logger
}

func NewAuditService(auditRepo repository.AuditLog, log *logger.Logger) *AuditService {
	return &AuditService{auditRepo: auditRepo, log: log}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: from must be <= to")
)

// Record is best effort: a failed append is logged and dropped.
func (s *AuditService) Record(ctx context.Context, e models.AuditEvent) {
	if s.auditRepo == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := s.auditRepo.Append(ctx, e); err != nil && s.log != nil {
		s.log.Warnw("audit_append_failed", "type", e.Type, "actor_id", e.ActorID, "err", err)
	}
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	return from, to, eventType, nil
}

// Events lists audit history. Admin only.
func (s *AuditService) Events(ctx context.Context, caller models.Identity, f LogFilter) ([]models.AuditEvent, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, validationError(FieldError{Field: "from", Message: err.Error()})
	}
	events, err := s.auditRepo.List(ctx, from, to, typ)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	if events == nil {
		events = []models.AuditEvent{}
	}
	return events, nil
}
