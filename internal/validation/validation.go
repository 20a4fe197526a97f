// Package validation provides the shared request validator.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var instance = validator.New()

// appNameRe matches names that are safe to join into a log file path. PM2
// itself accepts more, so only file-backed lookups apply it.
var appNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// hints replaces the validator's default message for known tags.
var hints = map[string]func(fe validator.FieldError) string{
	"required": func(fe validator.FieldError) string {
		return fmt.Sprintf("%s is required", jsonName(fe))
	},
	"min": func(fe validator.FieldError) string {
		return fmt.Sprintf("%s must be at least %s characters long", jsonName(fe), fe.Param())
	},
	"max": func(fe validator.FieldError) string {
		return fmt.Sprintf("%s must be at most %s characters long", jsonName(fe), fe.Param())
	},
}

// Struct validates v and returns one message per failing field.
func Struct(v any) ([]string, bool) {
	if err := instance.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []string{err.Error()}, false
		}
		return formatErrors(verrs), false
	}
	return nil, true
}

// AppName reports whether name is usable as a log file path component.
func AppName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return appNameRe.MatchString(name)
}

func formatErrors(errs validator.ValidationErrors) []string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fn, ok := hints[fe.Tag()]; ok {
			msgs = append(msgs, fn(fe))
			continue
		}
		msgs = append(msgs, fe.Error())
	}
	return msgs
}

func jsonName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
}
