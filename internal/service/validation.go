package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/shipping"
)

// phonePattern is the 11-digit local mobile format.
var phonePattern = regexp.MustCompile(`^01\d{9}$`)

// fieldMessages holds the shopper-facing message per field and failed tag.
var fieldMessages = map[string]map[string]string{
	"name": {
		"required": "Name is required",
		"min":      "Name must be at least 3 characters",
	},
	"phone": {
		"required": "Phone number is required",
		"bdphone":  "Phone number must match 01XXXXXXXXX format",
	},
	"address": {
		"required": "Address is required",
		"min":      "Address must be at least 10 characters",
	},
	"delivery_area": {
		"required":     "Please select a delivery area",
		"deliveryzone": "Please select a delivery area",
	},
	"note": {
		"min": "Note must be at least 5 characters",
	},
	"paymentMethod": {
		"required": "Please select a payment method",
	},
}

// FormValidator validates checkout forms.
type FormValidator struct {
	validate *validator.Validate
}

// NewFormValidator builds a validator that reports errors under the form
// field names and knows the bdphone and deliveryzone tags.
func NewFormValidator() *FormValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("bdphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("deliveryzone", func(fl validator.FieldLevel) bool {
		return shipping.ValidZone(domain.DeliveryZone(fl.Field().String()))
	})

	return &FormValidator{validate: v}
}

// ValidateCheckout trims the form in place and checks every field. It returns
// a *domain.ValidationError with one message per invalid field, or nil.
func (fv *FormValidator) ValidateCheckout(form *domain.CheckoutForm) error {
	form.Normalize()

	err := fv.validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Internal(err, "checkout.validate", "failed to validate checkout form")
	}

	ve := &domain.ValidationError{Op: "checkout.validate", Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := ve.Fields[field]; seen {
			continue
		}
		ve.Fields[field] = messageFor(field, fe.Tag())
	}
	return ve
}

func messageFor(field, tag string) string {
	if msg, ok := fieldMessages[field][tag]; ok {
		return msg
	}
	return "This field is invalid"
}
