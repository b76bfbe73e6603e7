package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/platform"
)

const (
	// DefaultPageSize is the largest page the platform serves.
	DefaultPageSize = 100

	walkErrorTemplateConstant            = "walk %s: %w"
	malformedPageTemplateConstant        = "malformed %s page %d: %s"
	recordDecodingTemplateConstant       = "unable to decode %s record %d: %v"
	missingIdentifierReasonConstant      = "record without id"
	undecodableRecordReasonTemplate      = "undecodable record: %v"
	stalledCursorReasonConstant          = "has_more reported without records to advance the cursor"
	missingNextPageReasonConstant        = "has_more reported without a next_page token"
	repeatedCursorReasonTemplateConstant = "cursor %s did not advance"
	missingListerMessageConstant         = "walker requires a lister"
	logMessagePageFetchedConstant        = "Fetched page"
	logMessageWalkCompletedConstant      = "Collection walk completed"
	logFieldKindConstant                 = "kind"
	logFieldPageNumberConstant           = "page"
	logFieldPageRecordsConstant          = "page_records"
	logFieldTotalRecordsConstant         = "total_records"
	logFieldSearchConstant               = "search"
	expandFilterNameConstant             = "expand[]"
)

// Query narrows a walk. Search switches to the search endpoint.
type Query struct {
	Filters url.Values
	Search  string
}

// Expanding returns a copy of query asking the platform to inline fields of every record.
func (query Query) Expanding(fields ...string) Query {
	filters := url.Values{}
	for filterName, filterValues := range query.Filters {
		filters[filterName] = append([]string(nil), filterValues...)
	}
	for _, field := range fields {
		filters.Add(expandFilterNameConstant, field)
	}
	query.Filters = filters
	return query
}

// MalformedPageError reports a page the walker cannot continue from.
type MalformedPageError struct {
	Kind       billing.ResourceKind
	PageNumber int
	Reason     string
}

// Error describes the malformed page.
func (malformedError MalformedPageError) Error() string {
	return fmt.Sprintf(malformedPageTemplateConstant, malformedError.Kind, malformedError.PageNumber, malformedError.Reason)
}

// RecordDecodingError reports a walked record that does not fit its record type.
type RecordDecodingError struct {
	Kind     billing.ResourceKind
	Position int
	Cause    error
}

// Error describes the decoding failure.
func (decodingError RecordDecodingError) Error() string {
	return fmt.Sprintf(recordDecodingTemplateConstant, decodingError.Kind, decodingError.Position, decodingError.Cause)
}

// Unwrap exposes the underlying cause.
func (decodingError RecordDecodingError) Unwrap() error {
	return decodingError.Cause
}

// Walker enumerates complete collections through cursor pagination.
type Walker struct {
	lister   platform.Lister
	pageSize int
	logger   *zap.Logger
}

// NewWalker constructs a Walker. A non-positive page size selects DefaultPageSize.
func NewWalker(lister platform.Lister, pageSize int, logger *zap.Logger) (*Walker, error) {
	if lister == nil {
		return nil, errors.New(missingListerMessageConstant)
	}
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{lister: lister, pageSize: pageSize, logger: logger}, nil
}

// FetchAll returns every record of kind, oldest first. The platform lists newest first,
// so the accumulated sequence is reversed once the last page has been read. Any list
// failure or malformed page aborts the walk.
func (walker *Walker) FetchAll(executionContext context.Context, kind billing.ResourceKind, query Query) ([]json.RawMessage, error) {
	var accumulated []json.RawMessage
	searchMode := len(query.Search) > 0
	cursor := ""

	for pageNumber := 1; ; pageNumber++ {
		request := platform.ListRequest{
			PageSize: walker.pageSize,
			Search:   query.Search,
			Filters:  query.Filters,
		}
		if searchMode {
			request.Page = cursor
		} else {
			request.StartingAfter = cursor
		}

		page, listError := walker.lister.List(executionContext, kind, request)
		if listError != nil {
			return nil, fmt.Errorf(walkErrorTemplateConstant, kind, listError)
		}

		lastIdentifier := ""
		for _, item := range page.Items {
			identifier, identifierError := extractIdentifier(item)
			if identifierError != nil {
				return nil, MalformedPageError{Kind: kind, PageNumber: pageNumber, Reason: identifierError.Error()}
			}
			lastIdentifier = identifier
		}
		accumulated = append(accumulated, page.Items...)

		walker.logger.Debug(
			logMessagePageFetchedConstant,
			zap.String(logFieldKindConstant, string(kind)),
			zap.Int(logFieldPageNumberConstant, pageNumber),
			zap.Int(logFieldPageRecordsConstant, len(page.Items)),
			zap.Bool(logFieldSearchConstant, searchMode),
		)

		if !page.HasMore {
			break
		}

		nextCursor := lastIdentifier
		if searchMode {
			if len(page.NextPage) == 0 {
				return nil, MalformedPageError{Kind: kind, PageNumber: pageNumber, Reason: missingNextPageReasonConstant}
			}
			nextCursor = page.NextPage
		} else if len(lastIdentifier) == 0 {
			return nil, MalformedPageError{Kind: kind, PageNumber: pageNumber, Reason: stalledCursorReasonConstant}
		}
		if nextCursor == cursor {
			return nil, MalformedPageError{Kind: kind, PageNumber: pageNumber, Reason: fmt.Sprintf(repeatedCursorReasonTemplateConstant, cursor)}
		}
		cursor = nextCursor
	}

	reverse(accumulated)

	walker.logger.Info(
		logMessageWalkCompletedConstant,
		zap.String(logFieldKindConstant, string(kind)),
		zap.Int(logFieldTotalRecordsConstant, len(accumulated)),
	)

	return accumulated, nil
}

// FetchRecords walks kind and decodes every record into T, preserving the oldest-first order.
func FetchRecords[T any](executionContext context.Context, walker *Walker, kind billing.ResourceKind, query Query) ([]T, error) {
	items, fetchError := walker.FetchAll(executionContext, kind, query)
	if fetchError != nil {
		return nil, fetchError
	}
	return DecodeRecords[T](kind, items)
}

// DecodeRecords decodes raw records into T.
func DecodeRecords[T any](kind billing.ResourceKind, items []json.RawMessage) ([]T, error) {
	records := make([]T, 0, len(items))
	for itemIndex, item := range items {
		var record T
		if decodeError := json.Unmarshal(item, &record); decodeError != nil {
			return nil, RecordDecodingError{Kind: kind, Position: itemIndex, Cause: decodeError}
		}
		records = append(records, record)
	}
	return records, nil
}

func extractIdentifier(item json.RawMessage) (string, error) {
	var identified struct {
		ID string `json:"id"`
	}
	if decodeError := json.Unmarshal(item, &identified); decodeError != nil {
		return "", fmt.Errorf(undecodableRecordReasonTemplate, decodeError)
	}
	if len(identified.ID) == 0 {
		return "", errors.New(missingIdentifierReasonConstant)
	}
	return identified.ID, nil
}

func reverse[T any](items []T) {
	for left, right := 0, len(items)-1; left < right; left, right = left+1, right-1 {
		items[left], items[right] = items[right], items[left]
	}
}
