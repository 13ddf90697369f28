// ABOUTME: Request validation for simulation inputs and planning sessions
// ABOUTME: Struct-tag validation via go-playground/validator plus override and geometry checks

package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxOverrides bounds the number of manual assignments in one request
const MaxOverrides = 10000

// instanceNamePattern matches SQL Server instance names, optionally with a named instance
// suffix (HOST\INSTANCE) and dotted domain names.
var instanceNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}(\\[A-Za-z0-9_$-]{1,16})?$`)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("instancename", func(fl validator.FieldLevel) bool {
		return ValidInstanceName(fl.Field().String())
	})
}

// ValidInstanceName reports whether name is a well-formed SQL Server instance name
func ValidInstanceName(name string) bool {
	return instanceNamePattern.MatchString(name)
}

// ValidateStruct runs tag validation and flattens the result into one readable error
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
	case "instancename":
		return fmt.Sprintf("%s is not a valid instance name: %q", field, sanitize(fe.Value()))
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// Validate checks a distribution input before it reaches the engine
func (in DistributionInput) Validate() error {
	if err := ValidateStruct(in); err != nil {
		return err
	}
	if err := in.Config.validateGeometry(); err != nil {
		return err
	}
	if err := in.Overrides.Validate(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(in.Databases))
	for _, db := range in.Databases {
		if seen[db.Key()] {
			return fmt.Errorf("duplicate database %q", sanitize(db.Key()))
		}
		seen[db.Key()] = true
	}
	return nil
}

// Validate checks a capacity config on its own
func (c CapacityConfig) Validate() error {
	if err := ValidateStruct(c); err != nil {
		return err
	}
	return c.validateGeometry()
}

func (c CapacityConfig) validateGeometry() error {
	c = c.WithDefaults()
	if c.DiskUsableGB() <= 0 {
		return fmt.Errorf("disk_reserved_gb (%g) must be less than disk_total_gb (%g)", c.DiskReservedGB, c.DiskTotalGB)
	}
	return nil
}

// Validate checks override keys and targets
func (m ManualAssignments) Validate() error {
	if len(m) > MaxOverrides {
		return fmt.Errorf("overrides must contain at most %d entries", MaxOverrides)
	}
	for key, target := range m {
		if err := ValidateOverride(key, target); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOverride checks a single "instance||db" key and its target
func ValidateOverride(key, target string) error {
	parts := strings.SplitN(key, "||", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid database key %q, expected instance||database", sanitize(key))
	}
	switch target {
	case "", AssignAuto, AssignNew:
		return nil
	}
	if !ValidInstanceName(target) {
		return fmt.Errorf("invalid override target %q for %q", sanitize(target), sanitize(key))
	}
	return nil
}

// sanitize removes control characters from user input echoed in error messages
func sanitize(v any) string {
	s := fmt.Sprint(v)
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
