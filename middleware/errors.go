package middleware

import "errors"

// ClientError is the body of every non-2xx answer. MessageKey is stable for clients to switch on,
// Message is for humans.
type ClientError struct {
	MessageKey    string            `json:"messageKey"`
	MessageParams map[string]string `json:"messageParams,omitempty"`
	Message       string            `json:"message"`
	Errors        []ClientError     `json:"errors,omitempty"`
}

// WithParam returns a copy carrying an additional message parameter.
func (e ClientError) WithParam(key, value string) ClientError {
	params := make(map[string]string, len(e.MessageParams)+1)
	for k, v := range e.MessageParams {
		params[k] = v
	}
	params[key] = value
	e.MessageParams = params
	return e
}

func (e ClientError) WithMessage(message string) ClientError {
	e.Message = message
	return e
}

// WithDetail appends a nested error, one per offending field or record.
func (e ClientError) WithDetail(detail ClientError) ClientError {
	e.Errors = append(append(make([]ClientError, 0, len(e.Errors)+1), e.Errors...), detail)
	return e
}

var (
	// authentication
	InvalidTokenResponse = ClientError{
		MessageKey: "invalidTokenResponse",
		Message:    "Invalid Token Response",
	}
	ErrOpenIDConfiguration = ClientError{
		MessageKey: "openIdConfigurationUnavailable",
		Message:    "OIDC .well-known/configuration could not be retrieved",
	}
	TokenExpiredResponse = ClientError{
		MessageKey: "tokenExpired",
		Message:    "Token expired",
	}
	ErrInvalidToken = ClientError{
		MessageKey: "invalidToken",
		Message:    "Invalid Token",
	}
	ErrNoPrivileges = ClientError{
		MessageKey: "forbidden",
		Message:    "Missing role for this operation",
	}

	// request shape
	ErrInvalidRequestBody = ClientError{
		MessageKey: "invalidRequestBody",
		Message:    "Invalid request body",
	}
	ErrUnableToParseRequestBody = ClientError{
		MessageKey: "unableToParseRequestBody",
		Message:    "Unable to parse request body",
	}
	ErrInvalidOrMissingRequestParameter = ClientError{
		MessageKey: "invalidOrMissingRequestParameter",
		Message:    "Invalid or missing request parameter: {{param}}",
	}

	// domain outcomes
	ErrOrderValidationFailed = ClientError{
		MessageKey: "orderValidationFailed",
		Message:    "Order validation failed",
	}
	ErrInvoiceIncomplete = ClientError{
		MessageKey: "invoiceIncomplete",
		Message:    "Invoice can not be prepared",
	}
	ErrNotFound = ClientError{
		MessageKey: "notFound",
		Message:    "Not found",
	}
	ErrConflict = ClientError{
		MessageKey: "conflict",
		Message:    "Conflict with the current state",
	}
	ErrUnavailable = ClientError{
		MessageKey: "unavailable",
		Message:    "Service not available",
	}
	ErrInternal = ClientError{
		MessageKey: "internalServerError",
		Message:    "Internal server error",
	}
)

var (
	ErrFailedToLoadJwks = errors.New("failed to load JWKS")
)
