package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrNoOriginal = errors.New("dataset has no original post")

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
	err    error
}

func (e *ValidationError) Error() string {
	return "invalid dataset: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return e.err }

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate fails fast on missing ids, timestamps or negative depths so that
// downstream statistics never see zero times.
func Validate(ds SpreadDataset) error {
	if ds.Original.ID == "" && ds.Original.AuthorID == "" {
		return ErrNoOriginal
	}
	if err := validate.Struct(ds); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return &ValidationError{Fields: fields, err: err}
		}
		return err
	}
	return nil
}
