package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/platform"
)

const (
	generatedIdentifierTemplateConstant = "%s_dst_%d"
	unknownCursorTemplateConstant       = "unknown starting_after cursor %s"
)

// CreatedCall records a create invocation.
type CreatedCall struct {
	Kind    billing.ResourceKind
	Request platform.CreateRequest
	Result  platform.CreatedResource
}

// UpdatedCall records an update invocation.
type UpdatedCall struct {
	Kind       billing.ResourceKind
	Identifier string
	Payload    any
}

// PlatformStub is an in-memory platform. Collections are stored newest first, the way
// the remote lists them.
type PlatformStub struct {
	mutex sync.Mutex

	Collections map[billing.ResourceKind][]json.RawMessage
	// ListErrors fails the n-th list call (zero based) of a kind.
	ListErrors map[billing.ResourceKind]map[int]error
	// CreateErrors fails the n-th create call (zero based) of a kind.
	CreateErrors map[billing.ResourceKind]map[int]error
	// UpdateErrors fails updates of specific identifiers.
	UpdateErrors map[string]error

	ListRequests map[billing.ResourceKind][]platform.ListRequest
	Created      []CreatedCall
	Updated      []UpdatedCall

	createCounts map[billing.ResourceKind]int
}

// NewPlatformStub creates an empty stub.
func NewPlatformStub() *PlatformStub {
	return &PlatformStub{
		Collections:  map[billing.ResourceKind][]json.RawMessage{},
		ListErrors:   map[billing.ResourceKind]map[int]error{},
		CreateErrors: map[billing.ResourceKind]map[int]error{},
		UpdateErrors: map[string]error{},
		ListRequests: map[billing.ResourceKind][]platform.ListRequest{},
		createCounts: map[billing.ResourceKind]int{},
	}
}

// AddRecords appends JSON encoded records to a collection.
func (stub *PlatformStub) AddRecords(kind billing.ResourceKind, records ...any) error {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	for _, record := range records {
		encoded, encodeError := json.Marshal(record)
		if encodeError != nil {
			return encodeError
		}
		stub.Collections[kind] = append(stub.Collections[kind], encoded)
	}
	return nil
}

// List pages through a collection honouring PageSize, StartingAfter, and Page tokens.
func (stub *PlatformStub) List(_ context.Context, kind billing.ResourceKind, request platform.ListRequest) (platform.Page, error) {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()

	callIndex := len(stub.ListRequests[kind])
	stub.ListRequests[kind] = append(stub.ListRequests[kind], request)
	if listError, failing := stub.ListErrors[kind][callIndex]; failing {
		return platform.Page{}, listError
	}

	collection := stub.Collections[kind]
	startIndex := 0
	cursor := request.StartingAfter
	if len(request.Search) > 0 {
		cursor = request.Page
	}
	if len(cursor) > 0 {
		cursorIndex := -1
		for recordIndex, record := range collection {
			if recordIdentifier(record) == cursor {
				cursorIndex = recordIndex
				break
			}
		}
		if cursorIndex < 0 {
			return platform.Page{}, fmt.Errorf(unknownCursorTemplateConstant, cursor)
		}
		startIndex = cursorIndex + 1
	}

	pageSize := request.PageSize
	if pageSize <= 0 {
		pageSize = len(collection)
	}
	endIndex := startIndex + pageSize
	if endIndex > len(collection) {
		endIndex = len(collection)
	}

	page := platform.Page{
		Items:   append([]json.RawMessage(nil), collection[startIndex:endIndex]...),
		HasMore: endIndex < len(collection),
	}
	if len(request.Search) > 0 && page.HasMore && endIndex > startIndex {
		page.NextPage = recordIdentifier(collection[endIndex-1])
	}
	return page, nil
}

// Create records the call and returns a generated identifier, or the configured error.
func (stub *PlatformStub) Create(_ context.Context, kind billing.ResourceKind, request platform.CreateRequest) (platform.CreatedResource, error) {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()

	callIndex := stub.createCounts[kind]
	stub.createCounts[kind] = callIndex + 1
	if createError, failing := stub.CreateErrors[kind][callIndex]; failing {
		return platform.CreatedResource{}, createError
	}

	created := platform.CreatedResource{ID: fmt.Sprintf(generatedIdentifierTemplateConstant, kind.Singular(), callIndex+1)}
	stub.Created = append(stub.Created, CreatedCall{Kind: kind, Request: request, Result: created})
	return created, nil
}

// Update records the call.
func (stub *PlatformStub) Update(_ context.Context, kind billing.ResourceKind, identifier string, payload any) (platform.CreatedResource, error) {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()

	stub.Updated = append(stub.Updated, UpdatedCall{Kind: kind, Identifier: identifier, Payload: payload})
	if updateError, failing := stub.UpdateErrors[identifier]; failing {
		return platform.CreatedResource{}, updateError
	}
	return platform.CreatedResource{ID: identifier}, nil
}

// CreatedOfKind returns the create calls of kind in call order.
func (stub *PlatformStub) CreatedOfKind(kind billing.ResourceKind) []CreatedCall {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	var calls []CreatedCall
	for _, call := range stub.Created {
		if call.Kind == kind {
			calls = append(calls, call)
		}
	}
	return calls
}

func recordIdentifier(record json.RawMessage) string {
	var identified struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(record, &identified) != nil {
		return ""
	}
	return identified.ID
}
