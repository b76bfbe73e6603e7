package pagination_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/pagination"
	"github.com/temirov/billmigrate/internal/platform"
	"github.com/temirov/billmigrate/internal/platform/testsupport"
)

const (
	walkerSubtestNameTemplateConstant = "%d_%s"
	testRecordIdentifierTemplate      = "prod_%02d"
	testInvoiceSearchQueryConstant    = `status:"paid" AND total>0`
)

type listerFunc func(context.Context, billing.ResourceKind, platform.ListRequest) (platform.Page, error)

func (function listerFunc) List(executionContext context.Context, kind billing.ResourceKind, request platform.ListRequest) (platform.Page, error) {
	return function(executionContext, kind, request)
}

// seedNewestFirst stores records the way the remote lists them and returns the
// identifiers in creation order.
func seedNewestFirst(testInstance *testing.T, stub *testsupport.PlatformStub, kind billing.ResourceKind, count int) []string {
	testInstance.Helper()
	creationOrder := make([]string, 0, count)
	for recordIndex := 1; recordIndex <= count; recordIndex++ {
		creationOrder = append(creationOrder, fmt.Sprintf(testRecordIdentifierTemplate, recordIndex))
	}
	for recordIndex := count - 1; recordIndex >= 0; recordIndex-- {
		require.NoError(testInstance, stub.AddRecords(kind, billing.Product{ID: creationOrder[recordIndex], Name: creationOrder[recordIndex]}))
	}
	return creationOrder
}

func identifiersOf(testInstance *testing.T, items []json.RawMessage) []string {
	testInstance.Helper()
	identifiers := make([]string, 0, len(items))
	for _, item := range items {
		var identified struct {
			ID string `json:"id"`
		}
		require.NoError(testInstance, json.Unmarshal(item, &identified))
		identifiers = append(identifiers, identified.ID)
	}
	return identifiers
}

func TestWalkerFetchAllReturnsOldestFirstForEveryPageSize(testInstance *testing.T) {
	testCases := []struct {
		name          string
		recordCount   int
		pageSize      int
		expectedCalls int
	}{
		{name: "single record pages", recordCount: 5, pageSize: 1, expectedCalls: 5},
		{name: "uneven pages", recordCount: 5, pageSize: 2, expectedCalls: 3},
		{name: "exact multiple", recordCount: 6, pageSize: 3, expectedCalls: 2},
		{name: "single page", recordCount: 5, pageSize: 7, expectedCalls: 1},
		{name: "empty collection", recordCount: 0, pageSize: 3, expectedCalls: 1},
		{name: "page size above limit is clamped", recordCount: 250, pageSize: 500, expectedCalls: 3},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(walkerSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			stub := testsupport.NewPlatformStub()
			creationOrder := seedNewestFirst(subtest, stub, billing.ResourceKindProduct, testCase.recordCount)

			walker, walkerError := pagination.NewWalker(stub, testCase.pageSize, nil)
			require.NoError(subtest, walkerError)

			items, fetchError := walker.FetchAll(context.Background(), billing.ResourceKindProduct, pagination.Query{})
			require.NoError(subtest, fetchError)

			identifiers := identifiersOf(subtest, items)
			require.Equal(subtest, creationOrder, identifiers)
			require.Len(subtest, stub.ListRequests[billing.ResourceKindProduct], testCase.expectedCalls)

			seen := map[string]struct{}{}
			for _, identifier := range identifiers {
				_, duplicate := seen[identifier]
				require.False(subtest, duplicate)
				seen[identifier] = struct{}{}
			}
		})
	}
}

func TestWalkerFetchAllAdvancesCursorWithLastIdentifier(testInstance *testing.T) {
	stub := testsupport.NewPlatformStub()
	creationOrder := seedNewestFirst(testInstance, stub, billing.ResourceKindProduct, 4)

	walker, walkerError := pagination.NewWalker(stub, 2, nil)
	require.NoError(testInstance, walkerError)

	_, fetchError := walker.FetchAll(context.Background(), billing.ResourceKindProduct, pagination.Query{})
	require.NoError(testInstance, fetchError)

	requests := stub.ListRequests[billing.ResourceKindProduct]
	require.Len(testInstance, requests, 2)
	require.Empty(testInstance, requests[0].StartingAfter)
	require.Equal(testInstance, creationOrder[2], requests[1].StartingAfter)
	require.Equal(testInstance, 2, requests[1].PageSize)
}

func TestWalkerFetchAllUsesSearchPageTokens(testInstance *testing.T) {
	stub := testsupport.NewPlatformStub()
	for _, identifier := range []string{"in_3", "in_2", "in_1"} {
		require.NoError(testInstance, stub.AddRecords(billing.ResourceKindInvoice, billing.Invoice{ID: identifier, Status: "paid", Total: 100}))
	}

	walker, walkerError := pagination.NewWalker(stub, 2, nil)
	require.NoError(testInstance, walkerError)

	invoices, fetchError := pagination.FetchRecords[billing.Invoice](context.Background(), walker, billing.ResourceKindInvoice, pagination.Query{Search: testInvoiceSearchQueryConstant})
	require.NoError(testInstance, fetchError)
	require.Len(testInstance, invoices, 3)
	require.Equal(testInstance, "in_1", invoices[0].ID)
	require.Equal(testInstance, "in_3", invoices[2].ID)

	requests := stub.ListRequests[billing.ResourceKindInvoice]
	require.Len(testInstance, requests, 2)
	require.Equal(testInstance, testInvoiceSearchQueryConstant, requests[1].Search)
	require.Equal(testInstance, "in_2", requests[1].Page)
	require.Empty(testInstance, requests[1].StartingAfter)
}

func TestWalkerFetchAllAbortsOnListFailure(testInstance *testing.T) {
	stub := testsupport.NewPlatformStub()
	seedNewestFirst(testInstance, stub, billing.ResourceKindProduct, 4)
	transportFailure := platform.TransportError{Operation: platform.OperationList, Kind: billing.ResourceKindProduct, Cause: errors.New("connection reset")}
	stub.ListErrors[billing.ResourceKindProduct] = map[int]error{1: transportFailure}

	walker, walkerError := pagination.NewWalker(stub, 2, nil)
	require.NoError(testInstance, walkerError)

	items, fetchError := walker.FetchAll(context.Background(), billing.ResourceKindProduct, pagination.Query{})
	require.Error(testInstance, fetchError)
	require.Nil(testInstance, items)
	require.True(testInstance, platform.IsFatal(fetchError))
}

func TestWalkerFetchAllRejectsMalformedPages(testInstance *testing.T) {
	testCases := []struct {
		name  string
		query pagination.Query
		pages []platform.Page
	}{
		{
			name:  "record without identifier",
			pages: []platform.Page{{Items: []json.RawMessage{json.RawMessage(`{"name":"orphan"}`)}}},
		},
		{
			name:  "has more without records",
			pages: []platform.Page{{HasMore: true}},
		},
		{
			name:  "search without next page",
			query: pagination.Query{Search: testInvoiceSearchQueryConstant},
			pages: []platform.Page{{Items: []json.RawMessage{json.RawMessage(`{"id":"in_1"}`)}, HasMore: true}},
		},
		{
			name: "cursor does not advance",
			pages: []platform.Page{
				{Items: []json.RawMessage{json.RawMessage(`{"id":"prod_1"}`)}, HasMore: true},
				{Items: []json.RawMessage{json.RawMessage(`{"id":"prod_1"}`)}, HasMore: true},
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(walkerSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			callIndex := 0
			lister := listerFunc(func(context.Context, billing.ResourceKind, platform.ListRequest) (platform.Page, error) {
				require.Less(subtest, callIndex, len(testCase.pages))
				page := testCase.pages[callIndex]
				callIndex++
				return page, nil
			})

			walker, walkerError := pagination.NewWalker(lister, 10, nil)
			require.NoError(subtest, walkerError)

			_, fetchError := walker.FetchAll(context.Background(), billing.ResourceKindProduct, testCase.query)
			require.Error(subtest, fetchError)

			var malformedError pagination.MalformedPageError
			require.True(subtest, errors.As(fetchError, &malformedError))
			require.Equal(subtest, billing.ResourceKindProduct, malformedError.Kind)
		})
	}
}

func TestDecodeRecordsReportsPosition(testInstance *testing.T) {
	items := []json.RawMessage{
		json.RawMessage(`{"id":"price_1","currency":"usd"}`),
		json.RawMessage(`{"id":"price_2","currency":42}`),
	}

	_, decodeError := pagination.DecodeRecords[billing.Price](billing.ResourceKindPrice, items)
	require.Error(testInstance, decodeError)

	var decodingError pagination.RecordDecodingError
	require.True(testInstance, errors.As(decodeError, &decodingError))
	require.Equal(testInstance, 1, decodingError.Position)
}

func TestNewWalkerRequiresLister(testInstance *testing.T) {
	_, walkerError := pagination.NewWalker(nil, 10, nil)
	require.Error(testInstance, walkerError)
}

func TestQueryExpandingKeepsFiltersAndSendsExpansion(testInstance *testing.T) {
	statusFilters := url.Values{"status": []string{"paid"}}
	query := pagination.Query{Filters: statusFilters}

	expanded := query.Expanding(billing.PaymentLinkLineItemsExpansion)
	require.Equal(testInstance, []string{"paid"}, expanded.Filters["status"])
	require.Equal(testInstance, []string{billing.PaymentLinkLineItemsExpansion}, expanded.Filters["expand[]"])
	require.Empty(testInstance, statusFilters["expand[]"])

	stub := testsupport.NewPlatformStub()
	seedNewestFirst(testInstance, stub, billing.ResourceKindPaymentLink, 3)
	walker, walkerError := pagination.NewWalker(stub, 2, nil)
	require.NoError(testInstance, walkerError)

	_, fetchError := walker.FetchAll(context.Background(), billing.ResourceKindPaymentLink, pagination.Query{}.Expanding(billing.PaymentLinkLineItemsExpansion))
	require.NoError(testInstance, fetchError)
	require.Len(testInstance, stub.ListRequests[billing.ResourceKindPaymentLink], 2)
	for _, request := range stub.ListRequests[billing.ResourceKindPaymentLink] {
		require.Equal(testInstance, []string{billing.PaymentLinkLineItemsExpansion}, request.Filters["expand[]"])
	}
}
