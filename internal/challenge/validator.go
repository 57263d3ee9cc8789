package challenge

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
)

// Validator checks a generated challenge before it is handed out.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier used in error messages.
	Name() string

	// Validate returns nil if the challenge passes.
	Validate(c *Challenge, input GenerateInput) *ValidationError
}

// structValidate checks the validate tags on Challenge and Target.
var structValidate = newStructValidate()

func newStructValidate() *govalidator.Validate {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	// Report fields by their JSON name, which is what the provider sees.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// StructuralValidator checks required fields and enum values.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(c *Challenge, _ GenerateInput) *ValidationError {
	err := structValidate.Struct(c)
	if err == nil {
		return nil
	}

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("%s failed %q check", fe.Namespace(), fe.Tag()),
		}
	}
	return &ValidationError{Validator: v.Name(), Message: err.Error()}
}

// TargetValidator checks that the target file is one of the digest's files
// and that a navigation target has something to match against.
type TargetValidator struct{}

func (v *TargetValidator) Name() string { return "target" }

func (v *TargetValidator) Validate(c *Challenge, input GenerateInput) *ValidationError {
	if input.Context == nil {
		return &ValidationError{Validator: v.Name(), Message: "no code context to check target against"}
	}

	path := filepath.Clean(c.Target.FilePath)
	if !input.Context.HasFile(path) {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("target file %q is not part of the code context", c.Target.FilePath),
		}
	}
	c.Target.FilePath = path

	t := c.Target
	if c.Kind == KindNavigation && t.LineNumber == 0 && t.Pattern == "" && t.FunctionName == "" && t.ClassName == "" {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "navigation target needs a line number, pattern, function, or class",
		}
	}
	return nil
}

// PatternValidator checks that the target pattern compiles as a Go regular
// expression.
type PatternValidator struct{}

func (v *PatternValidator) Name() string { return "pattern" }

func (v *PatternValidator) Validate(c *Challenge, _ GenerateInput) *ValidationError {
	if c.Target.Pattern == "" {
		return nil
	}
	if _, err := regexp.Compile(c.Target.Pattern); err != nil {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("pattern %q does not compile: %v", c.Target.Pattern, err),
		}
	}
	return nil
}

// HintValidator checks for exactly two non-empty hints.
type HintValidator struct{}

func (v *HintValidator) Name() string { return "hints" }

func (v *HintValidator) Validate(c *Challenge, _ GenerateInput) *ValidationError {
	if len(c.Hints) != 2 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected exactly 2 hints, got %d", len(c.Hints)),
		}
	}
	for i, h := range c.Hints {
		if strings.TrimSpace(h) == "" {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("hint %d is empty", i+1),
			}
		}
	}
	return nil
}
