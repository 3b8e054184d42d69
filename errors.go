package authflow

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeCountryCodeRequired = "COUNTRY_CODE_REQUIRED"
	textCodeCountryCodeInvalid  = "COUNTRY_CODE_INVALID"
	textCodeNoRefreshToken      = "NO_REFRESH_TOKEN"
	textCodeInvalidRequest      = "INVALID_CHALLENGE_REQUEST"
	textCodeInvalidVerification = "INVALID_VERIFICATION_REQUEST"
)

// defaultErrorMessage is used when an error transition carries no message.
const defaultErrorMessage = "Authentication error"

// ErrCountryCodeRequired is returned when a phone challenge omits the
// country code. Surfaced before any network call.
var ErrCountryCodeRequired = goerrors.New("country code is required for phone challenges", goerrors.CategoryValidation).
	WithTextCode(textCodeCountryCodeRequired).
	WithCode(goerrors.CodeBadRequest)

// ErrCountryCodeInvalid is returned when the country code does not match
// +[1-4 digits] or does not map to a known calling region.
var ErrCountryCodeInvalid = goerrors.New("country code is invalid", goerrors.CategoryValidation).
	WithTextCode(textCodeCountryCodeInvalid).
	WithCode(goerrors.CodeBadRequest)

// ErrNoRefreshToken is returned by Refresh when the current session has no
// refresh token. No network round-trip is made.
var ErrNoRefreshToken = goerrors.New("No refresh token available", goerrors.CategoryAuth).
	WithTextCode(textCodeNoRefreshToken).
	WithCode(goerrors.CodeUnauthorized)
