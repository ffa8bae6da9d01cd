package application

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	semverPattern   = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)
	optionIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,8}$`)
)

// registerCustomValidators registers the catalog validation tags with v:
// semver for catalog versions and optionid for option identifiers.
// registerCustomValidators returns an error if any registration fails.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}
	if err := v.RegisterValidation("optionid", validateOptionID); err != nil {
		return fmt.Errorf("failed to register optionid validator: %w", err)
	}
	return nil
}

// validateSemver accepts X.Y.Z with optional pre-release and build
// suffixes.
func validateSemver(fl validator.FieldLevel) bool {
	return semverPattern.MatchString(fl.Field().String())
}

// validateOptionID accepts short alphanumeric option ids such as "A" or
// "opt2".
func validateOptionID(fl validator.FieldLevel) bool {
	return optionIDPattern.MatchString(fl.Field().String())
}
