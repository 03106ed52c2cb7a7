package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // validator caches struct metadata

// fieldErrors reports failed struct tags keyed by field namespace.
type fieldErrors struct {
	fields map[string]string
}

func (e *fieldErrors) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.fields[k]
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

func (e *fieldErrors) Unwrap() error { return ErrValidation }

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fe := &fieldErrors{fields: make(map[string]string, len(ve))}
	for _, f := range ve {
		tag := f.Tag()
		if p := f.Param(); p != "" {
			tag += "=" + p
		}
		fe.fields[f.Namespace()] = tag
	}
	return fe
}
