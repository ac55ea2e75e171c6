package apperrors

import (
	"errors"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrRequestNotFound = errors.New("money request not found")

	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrSubCentAmount     = errors.New("amount has sub-cent precision")
	ErrPhoneIncomplete   = errors.New("phone number is too short")

	ErrInsufficientBalance = errors.New("insufficient balance")

	ErrRecipientResolution = errors.New("recipient could not be resolved")
	ErrSubmissionFailed    = errors.New("transaction submission failed")
	ErrSubmissionInFlight  = errors.New("submission already in progress")

	ErrRequestLinkInvalid     = errors.New("request link is invalid")
	ErrRequestAlreadyResolved = errors.New("request has already been fulfilled")
	ErrRequestNotForUser      = errors.New("request is not meant for this user")
	ErrRequestStatusFinal     = errors.New("request status is final")

	ErrAuthenticationRequired = errors.New("authentication required")
)
