package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent is a security-relevant event written to the process log.
type AuditEvent struct {
	EventType     string
	Login         string
	IPAddress     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes security audit events through slog. It complements the
// durable audit trail kept in the store.
type AuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger, now: time.Now}
}

// LogAuthAttempt logs an authentication attempt. Failures log at WARN.
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := al.baseAttrs("auth", event.EventType)
	attrs = append(attrs, slog.Bool("success", event.Success))

	if event.Login != "" {
		attrs = append(attrs, slog.String("login", event.Login))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", MaskIP(event.IPAddress)))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

func (al *AuditLogger) LogPasswordChange(login, actor, ipAddress string, success bool) {
	attrs := al.baseAttrs("password", "password_change")
	attrs = append(attrs,
		slog.Bool("success", success),
		slog.String("login", login),
		slog.String("actor", actor),
	)
	if ipAddress != "" {
		attrs = append(attrs, slog.String("ip_address", MaskIP(ipAddress)))
	}

	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

func (al *AuditLogger) LogAccountAction(eventType, login, actor string, metadata map[string]string) {
	attrs := al.baseAttrs("account", eventType)
	attrs = append(attrs,
		slog.String("login", login),
		slog.String("actor", actor),
	)
	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}

func (al *AuditLogger) baseAttrs(auditType, eventType string) []slog.Attr {
	return []slog.Attr{
		slog.String("audit_type", auditType),
		slog.String("event_type", eventType),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	}
}
