package validator

import (
	"context"
	"errors"
	"regexp"

	"github.com/go-playground/validator"
)

var (
	global        *validator.Validate
	webResourceRe = regexp.MustCompile(`^(data:[a-z]+/[a-z0-9.+-]+;base64,|https?://)`)
	guestStatuses = map[string]bool{"pending": true, "confirmed": true, "declined": true}
)

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrFieldExceedsMaxVal = "Field exceeds maximum value"
	ErrFieldBelowMinVal   = "Field is below minimum value"
	ErrUnknownValidation  = "Unknown validation error"
)

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("webresource", validateWebResource)
	_ = v.RegisterValidation("gueststatus", validateGuestStatus)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

// validateWebResource accepts the two forms the dashboard stores for
// images and links: a base64 data URI or an http(s) URL.
func validateWebResource(fl validator.FieldLevel) bool {
	return webResourceRe.MatchString(fl.Field().String())
}

func validateGuestStatus(fl validator.FieldLevel) bool {
	return guestStatuses[fl.Field().String()]
}

func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrors) == 0 {
		return nil
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "required":
		msg = ErrFieldRequired
	case "max":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	case "lt", "lte":
		msg = ErrFieldExceedsMaxVal
	case "gt", "gte":
		msg = ErrFieldBelowMinVal
	case "email":
		msg = "Must be a valid email address"
	case "webresource":
		msg = "Must be a data URI or an http(s) URL"
	case "gueststatus":
		msg = "Status must be pending, confirmed or declined"
	default:
		msg = ErrUnknownValidation
	}
	return errors.New(msg + ": " + ve.Namespace())
}
