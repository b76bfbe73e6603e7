package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v74"

	"github.com/temirov/billmigrate/internal/billing"
)

const (
	transportErrorTemplateConstant        = "platform %s %s failed: %v"
	apiErrorTemplateConstant              = "platform %s %s rejected with status %d: %s"
	apiErrorWithParameterTemplateConstant = "platform %s %s rejected with status %d: %s (param %s)"
	responseDecodingErrorTemplateConstant = "unable to decode %s %s response: %v"
	payloadEncodingErrorTemplateConstant  = "unable to encode %s %s payload: %v"
	unknownAPIErrorMessageConstant        = "unknown error"
)

// TransportError reports a request that never produced an HTTP response.
type TransportError struct {
	Operation OperationName
	Kind      billing.ResourceKind
	Cause     error
}

// Error describes the transport failure.
func (transportError TransportError) Error() string {
	return fmt.Sprintf(transportErrorTemplateConstant, transportError.Operation, transportError.Kind, transportError.Cause)
}

// Unwrap exposes the underlying cause.
func (transportError TransportError) Unwrap() error {
	return transportError.Cause
}

// APIError reports a non-success response decoded from the platform error envelope.
type APIError struct {
	Operation  OperationName
	Kind       billing.ResourceKind
	StatusCode int
	Detail     *stripe.Error
}

// Error describes the rejection.
func (apiError APIError) Error() string {
	message := unknownAPIErrorMessageConstant
	parameter := ""
	if apiError.Detail != nil {
		if len(apiError.Detail.Msg) > 0 {
			message = apiError.Detail.Msg
		}
		parameter = apiError.Detail.Param
	}
	if len(parameter) > 0 {
		return fmt.Sprintf(apiErrorWithParameterTemplateConstant, apiError.Operation, apiError.Kind, apiError.StatusCode, message, parameter)
	}
	return fmt.Sprintf(apiErrorTemplateConstant, apiError.Operation, apiError.Kind, apiError.StatusCode, message)
}

// Authentication reports credential or permission failures.
func (apiError APIError) Authentication() bool {
	return apiError.StatusCode == http.StatusUnauthorized || apiError.StatusCode == http.StatusForbidden
}

// RateLimited reports throttled requests.
func (apiError APIError) RateLimited() bool {
	return apiError.StatusCode == http.StatusTooManyRequests
}

// ResponseDecodingError reports a success response the client could not parse.
type ResponseDecodingError struct {
	Operation OperationName
	Kind      billing.ResourceKind
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Kind, decodingError.Cause)
}

// Unwrap exposes the underlying cause.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// PayloadEncodingError reports a payload that could not be form encoded.
type PayloadEncodingError struct {
	Operation OperationName
	Kind      billing.ResourceKind
	Cause     error
}

// Error describes the encoding failure.
func (encodingError PayloadEncodingError) Error() string {
	return fmt.Sprintf(payloadEncodingErrorTemplateConstant, encodingError.Operation, encodingError.Kind, encodingError.Cause)
}

// Unwrap exposes the underlying cause.
func (encodingError PayloadEncodingError) Unwrap() error {
	return encodingError.Cause
}

// IsFatal reports whether an error must abort the current task rather than a single item.
// Transport failures, authentication failures, and cancellation are fatal; rejections are not.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var transportError TransportError
	if errors.As(err, &transportError) {
		return true
	}
	var apiError APIError
	if errors.As(err, &apiError) {
		return apiError.Authentication()
	}
	return false
}
