package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	if err := validatePurge(cfg.Purge); err != nil {
		return err
	}
	if err := cfg.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := cfg.Artifacts.Validate(); err != nil {
		return fmt.Errorf("artifacts: %w", err)
	}
	if cfg.Metrics.Enabled && cfg.API.Enabled && cfg.Metrics.Port == cfg.API.Port {
		return fmt.Errorf("metrics.port and api.port must differ (both %d)", cfg.API.Port)
	}
	return nil
}

func validatePurge(p PurgeConfig) error {
	if !p.Enabled {
		return nil
	}
	if p.StartThreshold == 0 {
		return errors.New("purge.start_threshold is required when purge is enabled")
	}
	if p.TargetThreshold == 0 {
		return errors.New("purge.target_threshold is required when purge is enabled")
	}
	return nil
}

// Warnings returns non-fatal observations about cfg, such as a target
// threshold that is already satisfied whenever a run starts.
func Warnings(cfg *Config) []string {
	var out []string
	p := cfg.Purge
	if p.Enabled && p.TargetThreshold < p.StartThreshold {
		out = append(out, fmt.Sprintf(
			"purge.target_threshold (%s) is below purge.start_threshold (%s); runs will stop as soon as the target is met",
			p.TargetThreshold, p.StartThreshold))
	}
	if cfg.API.Enabled && cfg.API.GetJWTSecret() == "" {
		out = append(out, "api.jwt.secret is empty; mutating API routes are unauthenticated")
	}
	return out
}

// formatValidationError flattens validator errors into one line per field.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (value %v)", fieldPath(fe), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}
