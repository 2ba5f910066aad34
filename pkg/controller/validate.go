package controller

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func validateContact(contact domain.ContactInfo) error {
	err := validate.Struct(contact)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidContact, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidContact, strings.Join(fields, ", "))
}
