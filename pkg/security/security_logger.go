package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType represents the type of security event
type EventType string

const (
	EventAccessDenied       EventType = "access_denied"
	EventForbiddenParty     EventType = "forbidden_party"
	EventIllegalTransition  EventType = "illegal_transition"
	EventRateLimitTriggered EventType = "rate_limit_triggered"
	EventTokenInvalid       EventType = "token_invalid"
	EventPaymentRecorded    EventType = "payment_recorded"
)

// SecurityEvent represents a security-related event to be logged
type SecurityEvent struct {
	Timestamp   time.Time              `json:"timestamp"`
	Event       EventType              `json:"event"`
	SubjectType string                 `json:"subject_type,omitempty"` // "user_id", "ip"
	Subject     string                 `json:"subject,omitempty"`      // hashed unless an IP
	Role        string                 `json:"role,omitempty"`
	Resource    string                 `json:"resource,omitempty"`
	IP          string                 `json:"ip,omitempty"`
	RequestID   string                 `json:"request_id,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// SecurityLogger provides structured logging for security events
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
}

var defaultLogger = New(zap.NewNop(), "herbal-market-backend", "test")

// New wraps an existing zap logger.
func New(z *zap.Logger, serviceName, environment string) *SecurityLogger {
	return &SecurityLogger{
		zapLogger:   z,
		serviceName: serviceName,
		environment: environment,
	}
}

// InitSecurityLogger builds the production zap logger and installs it as the default.
func InitSecurityLogger(serviceName, environment string) *SecurityLogger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	z, err := config.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		z, _ = zap.NewProduction()
	}

	defaultLogger = New(z, serviceName, environment)
	return defaultLogger
}

// DefaultLogger returns the default security logger instance
func DefaultLogger() *SecurityLogger {
	return defaultLogger
}

// SetDefault replaces the default logger. Tests use it with an observer core.
func SetDefault(sl *SecurityLogger) {
	defaultLogger = sl
}

// Log logs a security event
func (sl *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	level := zapcore.WarnLevel
	switch event.Event {
	case EventPaymentRecorded:
		level = zapcore.InfoLevel
	case EventTokenInvalid, EventForbiddenParty:
		level = zapcore.ErrorLevel
	}

	fields := []zap.Field{
		zap.String("service", sl.serviceName),
		zap.String("env", sl.environment),
		zap.String("event", string(event.Event)),
		zap.Time("occurred_at", event.Timestamp),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.Subject != "" {
		fields = append(fields, zap.String("subject", maskValue(event.SubjectType, event.Subject)))
	}
	if event.Role != "" {
		fields = append(fields, zap.String("role", event.Role))
	}
	if event.Resource != "" {
		fields = append(fields, zap.String("resource", event.Resource))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Details) > 0 {
		fields = append(fields, zap.Any("details", event.Details))
	}

	sl.zapLogger.Log(level, string(event.Event), fields...)
}

// LogAccessDenied records a guard denial
func (sl *SecurityLogger) LogAccessDenied(ctx context.Context, userID, role, resource, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:       EventAccessDenied,
		SubjectType: "user_id",
		Subject:     userID,
		Role:        role,
		Resource:    resource,
		Details:     map[string]interface{}{"reason": reason},
	})
}

// LogForbiddenParty records a caller acting on a resource it is not a party to
func (sl *SecurityLogger) LogForbiddenParty(ctx context.Context, userID, resource string) {
	sl.Log(ctx, SecurityEvent{
		Event:       EventForbiddenParty,
		SubjectType: "user_id",
		Subject:     userID,
		Resource:    resource,
	})
}

// LogIllegalTransition records a rejected state machine move
func (sl *SecurityLogger) LogIllegalTransition(ctx context.Context, userID, orderID, from, to string) {
	sl.Log(ctx, SecurityEvent{
		Event:       EventIllegalTransition,
		SubjectType: "user_id",
		Subject:     userID,
		Resource:    "order:" + orderID,
		Details:     map[string]interface{}{"from": from, "to": to},
	})
}

// LogRateLimitTriggered logs when rate limiting is triggered
func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, ip, requestID, endpoint string) {
	sl.Log(ctx, SecurityEvent{
		Event:       EventRateLimitTriggered,
		SubjectType: "ip",
		Subject:     ip,
		IP:          ip,
		RequestID:   requestID,
		Details:     map[string]interface{}{"endpoint": endpoint},
	})
}

// LogTokenInvalid logs a rejected bearer token
func (sl *SecurityLogger) LogTokenInvalid(ctx context.Context, ip, requestID, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:     EventTokenInvalid,
		IP:        ip,
		RequestID: requestID,
		Details:   map[string]interface{}{"reason": reason},
	})
}

// LogPaymentRecorded logs a payment axis change made by a trusted caller
func (sl *SecurityLogger) LogPaymentRecorded(ctx context.Context, callerID, orderID, status string) {
	sl.Log(ctx, SecurityEvent{
		Event:       EventPaymentRecorded,
		SubjectType: "caller",
		Subject:     callerID,
		Resource:    "order:" + orderID,
		Details:     map[string]interface{}{"payment_status": status},
	})
}

// Sync flushes any buffered log entries
func (sl *SecurityLogger) Sync() error {
	return sl.zapLogger.Sync()
}

// HashValue creates a SHA256 hash of a value (for logging without PII)
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}

// maskValue masks a value based on its type
func maskValue(subjectType, value string) string {
	switch subjectType {
	case "ip", "caller":
		return value
	default:
		return HashValue(value)
	}
}
