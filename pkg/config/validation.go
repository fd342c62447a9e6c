package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a profile for structural and cross-field consistency.
// Struct tags cover required fields and value sets; the cross-field rules
// enforce what tags cannot express: absolute, unique mount paths and
// unique credential sources.
func Validate(p *Profile) error {
	if err := validate.Struct(p); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return err
		}

		msgs := make([]string, 0, len(errs))
		for _, fe := range errs {
			msgs = append(msgs, describeFieldError(fe))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}

	return validateCrossField(p)
}

func validateCrossField(p *Profile) error {
	seenPaths := make(map[string]bool, len(p.Mounts))
	for _, m := range p.Mounts {
		path := filepath.Clean(m.MountPath)
		if !filepath.IsAbs(path) {
			return fmt.Errorf("mount_path %q must be absolute", m.MountPath)
		}
		if seenPaths[path] {
			return fmt.Errorf("duplicate mount_path %s", path)
		}
		seenPaths[path] = true
	}

	seenUsers := make(map[string]bool, len(p.Secrets))
	for _, s := range p.Secrets {
		if seenUsers[s.RemoteUser] {
			return fmt.Errorf("duplicate secrets entry for remote_user %s", s.RemoteUser)
		}
		seenUsers[s.RemoteUser] = true
	}

	return nil
}

// describeFieldError renders one validation failure in profile-file terms
// rather than Go struct terms.
func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
