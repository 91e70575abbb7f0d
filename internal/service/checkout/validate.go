package checkout

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"storefront-checkout/internal/domain"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10,11}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateDelivery checks delivery fields and returns a domain.ValidationError keyed by json field name.
func ValidateDelivery(info domain.DeliveryInfo) error {
	err := validate.Struct(normalize(info))
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(domain.ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "phone":
		return "must be 10 to 11 digits"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}

func normalize(info domain.DeliveryInfo) domain.DeliveryInfo {
	info.RecipientName = strings.TrimSpace(info.RecipientName)
	info.Phone = strings.TrimSpace(info.Phone)
	info.Email = strings.TrimSpace(info.Email)
	info.City = strings.TrimSpace(info.City)
	info.District = strings.TrimSpace(info.District)
	info.AddressDetail = strings.TrimSpace(info.AddressDetail)
	info.Instructions = strings.TrimSpace(info.Instructions)
	return info
}
