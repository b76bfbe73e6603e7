package platform_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/platform"
)

const (
	testSecretKeyConstant           = "sk_test_source"
	testAPIVersionConstant          = "2023-10-16"
	testAuthorizationValueConstant  = "Bearer " + testSecretKeyConstant
	testPricesPathConstant          = "/v1/prices"
	testInvoicesSearchPathConstant  = "/v1/invoices/search"
	testCouponsPathConstant         = "/v1/coupons"
	testSubscriptionPathConstant    = "/v1/subscriptions/sub_123"
	testListResponseConstant        = `{"object":"list","data":[{"id":"price_3"},{"id":"price_4"}],"has_more":true}`
	testSearchResponseConstant      = `{"object":"search_result","data":[{"id":"in_1"}],"has_more":true,"next_page":"page_token_2"}`
	testCreatedCouponConstant       = `{"id":"SUMMER","object":"coupon"}`
	testUpdatedSubscriptionConstant = `{"id":"sub_123","object":"subscription"}`
	testRejectionResponseConstant   = `{"error":{"type":"invalid_request_error","message":"No such price: 'price_missing'","param":"items[0][price]"}}`
	testAuthenticationResponse      = `{"error":{"type":"invalid_request_error","message":"Invalid API Key provided"}}`
	testIdempotencyKeyConstant      = "billmigrate-coupons-SUMMER"
	testClientSubtestTemplate       = "%d_%s"
)

type recordedRequest struct {
	method  string
	path    string
	query   url.Values
	body    url.Values
	headers http.Header
}

type recordingServer struct {
	mutex        sync.Mutex
	requests     []recordedRequest
	statusCode   int
	responseBody string
}

func (server *recordingServer) ServeHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	server.mutex.Lock()
	defer server.mutex.Unlock()

	bodyBytes, _ := io.ReadAll(request.Body)
	parsedBody, _ := url.ParseQuery(string(bodyBytes))
	server.requests = append(server.requests, recordedRequest{
		method:  request.Method,
		path:    request.URL.Path,
		query:   request.URL.Query(),
		body:    parsedBody,
		headers: request.Header.Clone(),
	})

	responseWriter.Header().Set("Content-Type", "application/json")
	responseWriter.WriteHeader(server.statusCode)
	_, _ = responseWriter.Write([]byte(server.responseBody))
}

func newTestClient(testInstance *testing.T, serverURL string) *platform.HTTPClient {
	testInstance.Helper()
	client, clientError := platform.NewHTTPClient(platform.HTTPClientConfiguration{
		BaseURL:    serverURL,
		SecretKey:  testSecretKeyConstant,
		APIVersion: testAPIVersionConstant,
		RateLimit:  1000,
		RateBurst:  10,
	})
	require.NoError(testInstance, clientError)
	return client
}

func TestNewHTTPClientRequiresSecretKey(testInstance *testing.T) {
	_, clientError := platform.NewHTTPClient(platform.HTTPClientConfiguration{SecretKey: "  "})
	require.Error(testInstance, clientError)
}

func TestHTTPClientListSendsCursorAndDecodesPage(testInstance *testing.T) {
	server := &recordingServer{statusCode: http.StatusOK, responseBody: testListResponseConstant}
	testServer := httptest.NewServer(server)
	defer testServer.Close()

	client := newTestClient(testInstance, testServer.URL)
	page, listError := client.List(context.Background(), billing.ResourceKindPrice, platform.ListRequest{
		PageSize:      100,
		StartingAfter: "price_2",
		Filters:       url.Values{"active": []string{"true"}},
	})
	require.NoError(testInstance, listError)
	require.True(testInstance, page.HasMore)
	require.Len(testInstance, page.Items, 2)
	require.JSONEq(testInstance, `{"id":"price_3"}`, string(page.Items[0]))

	require.Len(testInstance, server.requests, 1)
	request := server.requests[0]
	require.Equal(testInstance, http.MethodGet, request.method)
	require.Equal(testInstance, testPricesPathConstant, request.path)
	require.Equal(testInstance, "100", request.query.Get("limit"))
	require.Equal(testInstance, "price_2", request.query.Get("starting_after"))
	require.Equal(testInstance, "true", request.query.Get("active"))
	require.Equal(testInstance, testAuthorizationValueConstant, request.headers.Get("Authorization"))
	require.Equal(testInstance, testAPIVersionConstant, request.headers.Get("Stripe-Version"))
}

func TestHTTPClientSearchUsesPageToken(testInstance *testing.T) {
	server := &recordingServer{statusCode: http.StatusOK, responseBody: testSearchResponseConstant}
	testServer := httptest.NewServer(server)
	defer testServer.Close()

	client := newTestClient(testInstance, testServer.URL)
	page, listError := client.List(context.Background(), billing.ResourceKindInvoice, platform.ListRequest{
		PageSize: 100,
		Search:   `status:"paid" AND total>0`,
		Page:     "page_token_1",
	})
	require.NoError(testInstance, listError)
	require.Equal(testInstance, "page_token_2", page.NextPage)

	request := server.requests[0]
	require.Equal(testInstance, testInvoicesSearchPathConstant, request.path)
	require.Equal(testInstance, `status:"paid" AND total>0`, request.query.Get("query"))
	require.Equal(testInstance, "page_token_1", request.query.Get("page"))
	require.Empty(testInstance, request.query.Get("starting_after"))
}

func TestHTTPClientCreateEncodesFormPayload(testInstance *testing.T) {
	server := &recordingServer{statusCode: http.StatusOK, responseBody: testCreatedCouponConstant}
	testServer := httptest.NewServer(server)
	defer testServer.Close()

	couponIdentifier := "SUMMER"
	amountOff := int64(500)
	currency := "usd"
	duration := "once"
	payload := billing.CouponCreateParams{
		ID:        &couponIdentifier,
		AmountOff: &amountOff,
		Currency:  &currency,
		Duration:  &duration,
		Metadata:  map[string]string{"campaign": "summer"},
	}

	client := newTestClient(testInstance, testServer.URL)
	created, createError := client.Create(context.Background(), billing.ResourceKindCoupon, platform.CreateRequest{
		Payload:        payload,
		IdempotencyKey: testIdempotencyKeyConstant,
	})
	require.NoError(testInstance, createError)
	require.Equal(testInstance, "SUMMER", created.ID)
	require.JSONEq(testInstance, testCreatedCouponConstant, string(created.Raw))

	request := server.requests[0]
	require.Equal(testInstance, http.MethodPost, request.method)
	require.Equal(testInstance, testCouponsPathConstant, request.path)
	require.Equal(testInstance, "application/x-www-form-urlencoded", request.headers.Get("Content-Type"))
	require.Equal(testInstance, testIdempotencyKeyConstant, request.headers.Get("Idempotency-Key"))
	require.Equal(testInstance, "SUMMER", request.body.Get("id"))
	require.Equal(testInstance, "500", request.body.Get("amount_off"))
	require.Equal(testInstance, "usd", request.body.Get("currency"))
	require.Equal(testInstance, "once", request.body.Get("duration"))
	require.Equal(testInstance, "summer", request.body.Get("metadata[campaign]"))
	_, percentPresent := request.body["percent_off"]
	require.False(testInstance, percentPresent)
}

func TestHTTPClientUpdateSendsExplicitEmptyValue(testInstance *testing.T) {
	server := &recordingServer{statusCode: http.StatusOK, responseBody: testUpdatedSubscriptionConstant}
	testServer := httptest.NewServer(server)
	defer testServer.Close()

	cleared := ""
	client := newTestClient(testInstance, testServer.URL)
	updated, updateError := client.Update(context.Background(), billing.ResourceKindSubscription, "sub_123", billing.SubscriptionResumeParams{PauseCollection: &cleared})
	require.NoError(testInstance, updateError)
	require.Equal(testInstance, "sub_123", updated.ID)

	request := server.requests[0]
	require.Equal(testInstance, testSubscriptionPathConstant, request.path)
	values, present := request.body["pause_collection"]
	require.True(testInstance, present)
	require.Equal(testInstance, []string{""}, values)
}

func TestHTTPClientClassifiesFailures(testInstance *testing.T) {
	testCases := []struct {
		name              string
		statusCode        int
		responseBody      string
		expectFatal       bool
		expectRateLimited bool
		expectedMessage   string
		expectedParameter string
	}{
		{
			name:              "rejection is item level",
			statusCode:        http.StatusBadRequest,
			responseBody:      testRejectionResponseConstant,
			expectFatal:       false,
			expectedMessage:   "No such price: 'price_missing'",
			expectedParameter: "items[0][price]",
		},
		{
			name:            "authentication is fatal",
			statusCode:      http.StatusUnauthorized,
			responseBody:    testAuthenticationResponse,
			expectFatal:     true,
			expectedMessage: "Invalid API Key provided",
		},
		{
			name:              "rate limit is item level",
			statusCode:        http.StatusTooManyRequests,
			responseBody:      `{"error":{"type":"rate_limit_error","message":"Too many requests"}}`,
			expectFatal:       false,
			expectRateLimited: true,
			expectedMessage:   "Too many requests",
		},
		{
			name:            "plain text body is kept",
			statusCode:      http.StatusBadGateway,
			responseBody:    "upstream unavailable",
			expectFatal:     false,
			expectedMessage: "upstream unavailable",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testClientSubtestTemplate, testCaseIndex, testCase.name), func(subtest *testing.T) {
			server := &recordingServer{statusCode: testCase.statusCode, responseBody: testCase.responseBody}
			testServer := httptest.NewServer(server)
			defer testServer.Close()

			client := newTestClient(subtest, testServer.URL)
			_, createError := client.Create(context.Background(), billing.ResourceKindSubscription, platform.CreateRequest{Payload: billing.SubscriptionCreateParams{Customer: "cus_1"}})
			require.Error(subtest, createError)

			var apiError platform.APIError
			require.True(subtest, errors.As(createError, &apiError))
			require.Equal(subtest, testCase.statusCode, apiError.StatusCode)
			require.Equal(subtest, testCase.expectRateLimited, apiError.RateLimited())
			require.NotNil(subtest, apiError.Detail)
			require.Equal(subtest, testCase.expectedMessage, apiError.Detail.Msg)
			require.Equal(subtest, testCase.expectedParameter, apiError.Detail.Param)
			require.Equal(subtest, testCase.expectFatal, platform.IsFatal(createError))
			require.Contains(subtest, createError.Error(), testCase.expectedMessage)
		})
	}
}

func TestHTTPClientTransportFailureIsFatal(testInstance *testing.T) {
	testServer := httptest.NewServer(http.NotFoundHandler())
	serverURL := testServer.URL
	testServer.Close()

	client := newTestClient(testInstance, serverURL)
	_, listError := client.List(context.Background(), billing.ResourceKindProduct, platform.ListRequest{PageSize: 10})
	require.Error(testInstance, listError)

	var transportError platform.TransportError
	require.True(testInstance, errors.As(listError, &transportError))
	require.Equal(testInstance, platform.OperationList, transportError.Operation)
	require.True(testInstance, platform.IsFatal(listError))
}

func TestHTTPClientCancelledContextIsFatal(testInstance *testing.T) {
	server := &recordingServer{statusCode: http.StatusOK, responseBody: testListResponseConstant}
	testServer := httptest.NewServer(server)
	defer testServer.Close()

	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(testInstance, testServer.URL)
	_, listError := client.List(cancelledContext, billing.ResourceKindProduct, platform.ListRequest{PageSize: 10})
	require.Error(testInstance, listError)
	require.True(testInstance, errors.Is(listError, context.Canceled))
	require.True(testInstance, platform.IsFatal(listError))
}

func TestEncodeFormRendersNestedStructures(testInstance *testing.T) {
	interval := int64(3)
	active := false
	encoded, encodeError := platform.EncodeForm(billing.PriceCreateParams{
		Currency:  "usd",
		Product:   "prod_1",
		Active:    &active,
		Recurring: &billing.RecurringParams{Interval: "month", IntervalCount: &interval},
	})
	require.NoError(testInstance, encodeError)

	values, parseError := url.ParseQuery(encoded)
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, "usd", values.Get("currency"))
	require.Equal(testInstance, "prod_1", values.Get("product"))
	require.Equal(testInstance, "false", values.Get("active"))
	require.Equal(testInstance, "month", values.Get("recurring[interval]"))
	require.Equal(testInstance, "3", values.Get("recurring[interval_count]"))
}
