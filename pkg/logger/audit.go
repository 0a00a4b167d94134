package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	Email         string
	IPAddress     string
	Success       bool
	FailureReason string
}

// ComplaintEvent is one lifecycle step of a complaint
type ComplaintEvent struct {
	EventType   string // created, transitioned, deleted
	ComplaintID string
	ActorID     string
	StateBefore string
	StateAfter  string
}

// AuditLogger writes structured audit lines
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// LogAuthAttempt logs login, registration and OAuth attempts. Emails are masked.
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

// LogPasswordChange logs password change events
func (al *AuditLogger) LogPasswordChange(userID string, success bool) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}

	al.logger.LogAttrs(context.Background(), level, "audit",
		slog.String("audit_type", "password"),
		slog.String("event_type", "password_change"),
		slog.Bool("success", success),
		slog.String("user_id", userID),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}

// LogComplaintEvent logs a complaint lifecycle step
func (al *AuditLogger) LogComplaintEvent(event ComplaintEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "complaint"),
		slog.String("event_type", event.EventType),
		slog.String("complaint_id", event.ComplaintID),
		slog.String("actor_id", event.ActorID),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.StateBefore != "" {
		attrs = append(attrs, slog.String("state_before", event.StateBefore))
	}
	if event.StateAfter != "" {
		attrs = append(attrs, slog.String("state_after", event.StateAfter))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}
