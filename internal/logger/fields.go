package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared across components.
const (
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
	FieldRecord   = "record_id"
	FieldStatus   = "status"
	FieldAttempt  = "attempt"
	FieldCompany  = "company"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields, trimming whitespace and
// omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to the logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// CommonFields describe the AI provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// RecordFields identify an application record in log entries.
func RecordFields(id, company, status string) []zap.Field {
	return StringFields(
		StringField{Key: FieldRecord, Value: id},
		StringField{Key: FieldCompany, Value: company},
		StringField{Key: FieldStatus, Value: status},
	)
}

// WithRecord scopes the logger to one record.
func WithRecord(logger *zap.Logger, id, company string) *zap.Logger {
	return WithFields(logger, RecordFields(id, company, "")...)
}

// Attempt is the field for a tailoring attempt number.
func Attempt(n int) zap.Field {
	return zap.Int(FieldAttempt, n)
}
