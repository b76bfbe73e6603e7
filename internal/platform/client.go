package platform

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/temirov/billmigrate/internal/billing"
)

// OperationName identifies a remote platform operation.
type OperationName string

// Remote operations issued by the migrator.
const (
	OperationList   OperationName = "list"
	OperationSearch OperationName = "search"
	OperationCreate OperationName = "create"
	OperationUpdate OperationName = "update"
)

// ListRequest describes one page request against a collection.
// Search switches the request to the search endpoint, which pages with Page tokens
// instead of StartingAfter cursors.
type ListRequest struct {
	PageSize      int
	StartingAfter string
	Search        string
	Page          string
	Filters       url.Values
}

// Page is one page of raw records.
type Page struct {
	Items    []json.RawMessage
	HasMore  bool
	NextPage string
}

// CreateRequest carries a creation payload.
type CreateRequest struct {
	Payload        any
	IdempotencyKey string
}

// CreatedResource is the destination record returned by a create or update call.
type CreatedResource struct {
	ID  string
	Raw json.RawMessage
}

// Lister pages through a remote collection.
type Lister interface {
	List(executionContext context.Context, kind billing.ResourceKind, request ListRequest) (Page, error)
}

// Creator creates destination records.
type Creator interface {
	Create(executionContext context.Context, kind billing.ResourceKind, request CreateRequest) (CreatedResource, error)
}

// Updater updates existing records.
type Updater interface {
	Update(executionContext context.Context, kind billing.ResourceKind, identifier string, payload any) (CreatedResource, error)
}

// Client is the full remote capability of one account.
type Client interface {
	Lister
	Creator
	Updater
}
