package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/form"
	"golang.org/x/time/rate"

	"github.com/temirov/billmigrate/internal/billing"
)

const (
	defaultBaseURLConstant                 = "https://api.stripe.com"
	defaultRequestTimeoutConstant          = 60 * time.Second
	defaultRateLimitConstant               = 20.0
	defaultRateBurstConstant               = 1
	apiVersionPrefixConstant               = "/v1/"
	searchPathSuffixConstant               = "/search"
	limitQueryParameterConstant            = "limit"
	startingAfterQueryParameterConstant    = "starting_after"
	searchQueryParameterConstant           = "query"
	pageQueryParameterConstant             = "page"
	authorizationHeaderConstant            = "Authorization"
	authorizationBearerTemplateConstant    = "Bearer %s"
	contentTypeHeaderConstant              = "Content-Type"
	formContentTypeConstant                = "application/x-www-form-urlencoded"
	apiVersionHeaderConstant               = "Stripe-Version"
	idempotencyKeyHeaderConstant           = "Idempotency-Key"
	missingSecretKeyMessageConstant        = "platform client requires a secret key"
	invalidBaseURLTemplateConstant         = "invalid platform base URL %q: %w"
	missingIdentifierMessageConstant       = "response carries no id"
	missingUpdateIdentifierMessageConstant = "update requires a record identifier"
	formEncodingPanicTemplateConstant      = "form encoder panic: %v"
)

// HTTPClientConfiguration configures HTTPClient.
type HTTPClientConfiguration struct {
	BaseURL    string
	SecretKey  string
	APIVersion string
	// RateLimit is the sustained request rate in requests per second.
	RateLimit float64
	RateBurst int
	Timeout   time.Duration
	// Transport allows injecting a custom round tripper in tests.
	Transport http.RoundTripper
}

// HTTPClient talks to the platform REST API with form encoded bodies. It waits on a
// token bucket before every request and never retries.
type HTTPClient struct {
	baseURL     *url.URL
	secretKey   string
	apiVersion  string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

type listEnvelope struct {
	Data     []json.RawMessage `json:"data"`
	HasMore  bool              `json:"has_more"`
	NextPage *string           `json:"next_page"`
}

type errorEnvelope struct {
	Error *stripe.Error `json:"error"`
}

type identifiedResource struct {
	ID string `json:"id"`
}

// NewHTTPClient builds an HTTPClient, applying defaults for unset values.
func NewHTTPClient(configuration HTTPClientConfiguration) (*HTTPClient, error) {
	secretKey := strings.TrimSpace(configuration.SecretKey)
	if len(secretKey) == 0 {
		return nil, errors.New(missingSecretKeyMessageConstant)
	}

	baseURLValue := strings.TrimSpace(configuration.BaseURL)
	if len(baseURLValue) == 0 {
		baseURLValue = defaultBaseURLConstant
	}
	parsedBaseURL, parseError := url.Parse(strings.TrimSuffix(baseURLValue, "/"))
	if parseError != nil {
		return nil, fmt.Errorf(invalidBaseURLTemplateConstant, baseURLValue, parseError)
	}

	timeout := configuration.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeoutConstant
	}
	rateLimit := configuration.RateLimit
	if rateLimit <= 0 {
		rateLimit = defaultRateLimitConstant
	}
	rateBurst := configuration.RateBurst
	if rateBurst <= 0 {
		rateBurst = defaultRateBurstConstant
	}

	return &HTTPClient{
		baseURL:     parsedBaseURL,
		secretKey:   secretKey,
		apiVersion:  strings.TrimSpace(configuration.APIVersion),
		httpClient:  &http.Client{Timeout: timeout, Transport: configuration.Transport},
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), rateBurst),
	}, nil
}

// List fetches one page of kind. Search requests go to the search endpoint.
func (client *HTTPClient) List(executionContext context.Context, kind billing.ResourceKind, request ListRequest) (Page, error) {
	query := url.Values{}
	for filterName, filterValues := range request.Filters {
		for _, filterValue := range filterValues {
			query.Add(filterName, filterValue)
		}
	}
	if request.PageSize > 0 {
		query.Set(limitQueryParameterConstant, strconv.Itoa(request.PageSize))
	}

	operation := OperationList
	path := apiVersionPrefixConstant + string(kind)
	if len(request.Search) > 0 {
		operation = OperationSearch
		path += searchPathSuffixConstant
		query.Set(searchQueryParameterConstant, request.Search)
		if len(request.Page) > 0 {
			query.Set(pageQueryParameterConstant, request.Page)
		}
	} else if len(request.StartingAfter) > 0 {
		query.Set(startingAfterQueryParameterConstant, request.StartingAfter)
	}

	responseBody, requestError := client.send(executionContext, operation, kind, http.MethodGet, path, query, "", "")
	if requestError != nil {
		return Page{}, requestError
	}

	var envelope listEnvelope
	if decodeError := json.Unmarshal(responseBody, &envelope); decodeError != nil {
		return Page{}, ResponseDecodingError{Operation: operation, Kind: kind, Cause: decodeError}
	}

	page := Page{Items: envelope.Data, HasMore: envelope.HasMore}
	if envelope.NextPage != nil {
		page.NextPage = *envelope.NextPage
	}
	return page, nil
}

// Create posts a new record of kind.
func (client *HTTPClient) Create(executionContext context.Context, kind billing.ResourceKind, request CreateRequest) (CreatedResource, error) {
	encodedBody, encodingError := encodeFormPayload(request.Payload)
	if encodingError != nil {
		return CreatedResource{}, PayloadEncodingError{Operation: OperationCreate, Kind: kind, Cause: encodingError}
	}

	path := apiVersionPrefixConstant + string(kind)
	responseBody, requestError := client.send(executionContext, OperationCreate, kind, http.MethodPost, path, nil, encodedBody, request.IdempotencyKey)
	if requestError != nil {
		return CreatedResource{}, requestError
	}
	return decodeCreatedResource(OperationCreate, kind, responseBody)
}

// Update posts changes to an existing record of kind.
func (client *HTTPClient) Update(executionContext context.Context, kind billing.ResourceKind, identifier string, payload any) (CreatedResource, error) {
	trimmedIdentifier := strings.TrimSpace(identifier)
	if len(trimmedIdentifier) == 0 {
		return CreatedResource{}, PayloadEncodingError{Operation: OperationUpdate, Kind: kind, Cause: errors.New(missingUpdateIdentifierMessageConstant)}
	}

	encodedBody, encodingError := encodeFormPayload(payload)
	if encodingError != nil {
		return CreatedResource{}, PayloadEncodingError{Operation: OperationUpdate, Kind: kind, Cause: encodingError}
	}

	path := apiVersionPrefixConstant + string(kind) + "/" + url.PathEscape(trimmedIdentifier)
	responseBody, requestError := client.send(executionContext, OperationUpdate, kind, http.MethodPost, path, nil, encodedBody, "")
	if requestError != nil {
		return CreatedResource{}, requestError
	}
	return decodeCreatedResource(OperationUpdate, kind, responseBody)
}

func (client *HTTPClient) send(executionContext context.Context, operation OperationName, kind billing.ResourceKind, method string, path string, query url.Values, body string, idempotencyKey string) ([]byte, error) {
	if waitError := client.rateLimiter.Wait(executionContext); waitError != nil {
		return nil, TransportError{Operation: operation, Kind: kind, Cause: waitError}
	}

	requestURL := *client.baseURL
	requestURL.Path = client.baseURL.Path + path
	if len(query) > 0 {
		requestURL.RawQuery = query.Encode()
	}

	var bodyReader io.Reader
	if len(body) > 0 {
		bodyReader = strings.NewReader(body)
	}

	httpRequest, requestError := http.NewRequestWithContext(executionContext, method, requestURL.String(), bodyReader)
	if requestError != nil {
		return nil, TransportError{Operation: operation, Kind: kind, Cause: requestError}
	}
	httpRequest.Header.Set(authorizationHeaderConstant, fmt.Sprintf(authorizationBearerTemplateConstant, client.secretKey))
	if method == http.MethodPost {
		httpRequest.Header.Set(contentTypeHeaderConstant, formContentTypeConstant)
	}
	if len(client.apiVersion) > 0 {
		httpRequest.Header.Set(apiVersionHeaderConstant, client.apiVersion)
	}
	if len(idempotencyKey) > 0 {
		httpRequest.Header.Set(idempotencyKeyHeaderConstant, idempotencyKey)
	}

	httpResponse, responseError := client.httpClient.Do(httpRequest)
	if responseError != nil {
		return nil, TransportError{Operation: operation, Kind: kind, Cause: responseError}
	}
	defer httpResponse.Body.Close()

	responseBody, readError := io.ReadAll(httpResponse.Body)
	if readError != nil {
		return nil, TransportError{Operation: operation, Kind: kind, Cause: readError}
	}

	if httpResponse.StatusCode < http.StatusOK || httpResponse.StatusCode >= http.StatusMultipleChoices {
		return nil, decodeAPIError(operation, kind, httpResponse.StatusCode, responseBody)
	}
	return responseBody, nil
}

func decodeAPIError(operation OperationName, kind billing.ResourceKind, statusCode int, responseBody []byte) APIError {
	apiError := APIError{Operation: operation, Kind: kind, StatusCode: statusCode}

	var envelope errorEnvelope
	if decodeError := json.Unmarshal(responseBody, &envelope); decodeError == nil && envelope.Error != nil {
		apiError.Detail = envelope.Error
		apiError.Detail.HTTPStatusCode = statusCode
		return apiError
	}

	trimmedBody := string(bytes.TrimSpace(responseBody))
	if len(trimmedBody) > 0 {
		apiError.Detail = &stripe.Error{Msg: trimmedBody, HTTPStatusCode: statusCode}
	}
	return apiError
}

func decodeCreatedResource(operation OperationName, kind billing.ResourceKind, responseBody []byte) (CreatedResource, error) {
	var resource identifiedResource
	if decodeError := json.Unmarshal(responseBody, &resource); decodeError != nil {
		return CreatedResource{}, ResponseDecodingError{Operation: operation, Kind: kind, Cause: decodeError}
	}
	if len(resource.ID) == 0 {
		return CreatedResource{}, ResponseDecodingError{Operation: operation, Kind: kind, Cause: errors.New(missingIdentifierMessageConstant)}
	}
	return CreatedResource{ID: resource.ID, Raw: json.RawMessage(responseBody)}, nil
}

// EncodeForm renders a payload the way the platform expects request bodies.
func EncodeForm(payload any) (string, error) {
	return encodeFormPayload(payload)
}

func encodeFormPayload(payload any) (encoded string, encodingError error) {
	if payload == nil {
		return "", nil
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			encoded = ""
			encodingError = fmt.Errorf(formEncodingPanicTemplateConstant, recovered)
		}
	}()

	values := &form.Values{}
	form.AppendTo(values, payload)
	return values.Encode(), nil
}
