package authflow

import (
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// countryCodeRe matches a "+" followed by 1-4 digits.
var countryCodeRe = regexp.MustCompile(`^\+[0-9]{1,4}$`)

// Validate checks the request before it reaches the network. Validation
// failures never touch the state machine.
func (r AuthChallengeRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Method,
			validation.Required,
			validation.In(MethodEmail, MethodPhone),
		),
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Purpose,
			validation.Required,
			validation.In(PurposeLogin, PurposeRegister, PurposeResetPassword, PurposeVerify),
		),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid challenge request").
			WithTextCode(textCodeInvalidRequest)
	}

	switch r.Method {
	case MethodEmail:
		if err := validation.Validate(r.Identifier, is.Email); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid email identifier").
				WithTextCode(textCodeInvalidRequest)
		}
	case MethodPhone:
		if err := validateCountryCode(r.CountryCode); err != nil {
			return err
		}
		if err := validation.Validate(r.Identifier, is.Digit); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "phone identifier must be digits only").
				WithTextCode(textCodeInvalidRequest)
		}
	}

	return nil
}

// Validate checks the verification payload with the same channel rules as
// the originating challenge request.
func (r AuthChallengeVerificationRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.ChallengeID, validation.Required),
		validation.Field(&r.Code,
			validation.Required,
			validation.Length(4, 10),
			is.Digit,
		),
		validation.Field(&r.Method,
			validation.Required,
			validation.In(MethodEmail, MethodPhone),
		),
		validation.Field(&r.Identifier, validation.Required),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid verification request").
			WithTextCode(textCodeInvalidVerification)
	}

	if r.Method == MethodPhone {
		return validateCountryCode(r.CountryCode)
	}

	return nil
}

// validateCountryCode enforces the +[1-4 digits] shape and that the calling
// code maps to a known dialing region.
func validateCountryCode(code string) error {
	if code == "" {
		return ErrCountryCodeRequired
	}

	if !countryCodeRe.MatchString(code) {
		return invalidCountryCode(code, "")
	}

	cc, err := strconv.Atoi(strings.TrimPrefix(code, "+"))
	if err != nil {
		return invalidCountryCode(code, "")
	}

	region := phonenumbers.GetRegionCodeForCountryCode(cc)
	if region == "" || region == phonenumbers.UNKNOWN_REGION {
		return invalidCountryCode(code, "unknown calling code")
	}

	return nil
}

// invalidCountryCode clones the sentinel before attaching metadata so the
// shared ErrCountryCodeInvalid value stays untouched.
func invalidCountryCode(code, reason string) error {
	clone := ErrCountryCodeInvalid.Clone()
	if clone == nil {
		return ErrCountryCodeInvalid
	}

	meta := map[string]any{"country_code": code}
	if reason != "" {
		meta["reason"] = reason
	}

	return clone.WithMetadata(meta)
}
