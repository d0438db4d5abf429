package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/runboard/internal/ingest"
	"github.com/verte-zerg/runboard/internal/model"
)

// Defaults used when neither flags nor the config file set a value.
const (
	DefaultBatchSize  = ingest.DefaultBatchSize
	DefaultClearDelay = ingest.DefaultClearDelay
	DefaultLogLevel   = "info"
)

// DefaultSettings returns settings with every field at its default.
func DefaultSettings() model.Settings {
	return model.Settings{
		BatchSize:  DefaultBatchSize,
		ClearDelay: DefaultClearDelay,
		ExportDir:  DefaultExportDir(),
		LogLevel:   DefaultLogLevel,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks resolved settings and reports every violation, named by
// its config key.
func Validate(s model.Settings) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate settings: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
}

var settingKeys = map[string]string{
	"BatchSize":  "batch-size",
	"ClearDelay": "clear-delay",
	"ExportDir":  "out",
	"LogLevel":   "log-level",
}

func describe(fe validator.FieldError) string {
	key := settingKeys[fe.Field()]
	if key == "" {
		key = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must not be empty", key)
	case "gte":
		return fmt.Sprintf("%s must be >= %s", key, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", key, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid (%s)", key, fe.Tag())
	}
}
