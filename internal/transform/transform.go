package transform

import (
	"fmt"
	"time"

	"github.com/juju/clock"

	"github.com/temirov/billmigrate/internal/billing"
)

const (
	unsupportedErrorTemplateConstant             = "unsupported %s %s: %s"
	traceabilityMetadataKeyTemplate              = "source_%s_id"
	subscriptionStatusActiveConstant             = "active"
	paymentBehaviorDefaultIncomplete             = "default_incomplete"
	collectionMethodSendInvoiceConstant          = "send_invoice"
	couponDurationRepeatingConstant              = "repeating"
	billingSchemeTieredConstant                  = "tiered"
	tieredPricingReasonConstant                  = "tiered pricing has no destination equivalent"
	missingLineItemsReasonConstant               = "payment link carries no line items"
	truncatedLineItemsReasonConstant             = "payment link has more line items than the expanded list returned"
	missingLineItemPriceTemplateConstant         = "line item %s carries no price"
	missingSubscriptionItemsReasonConstant       = "subscription carries no items"
	missingSubscriptionItemPriceTemplateConstant = "subscription item %s carries no price"
	missingSchedulePhasesReasonConstant          = "schedule carries no phases"
	missingPhaseItemPriceTemplateConstant        = "phase %d item carries no price"
	missingCustomerReasonConstant                = "record carries no customer"
	missingCurrencyReasonConstant                = "amount_off requires a currency"
	missingDiscountReasonConstant                = "coupon carries neither amount_off nor percent_off"
	missingPriceAmountReasonConstant             = "price carries neither an amount nor a custom amount"
)

// Resolver looks up destination identifiers of previously migrated records.
type Resolver interface {
	Get(kind billing.ResourceKind, sourceID string) (string, bool)
}

// Options tunes the transformation.
type Options struct {
	// Clock supplies "now" for temporal rules. Defaults to the wall clock.
	Clock clock.Clock
	// TraceabilityMetadata tags records whose destination identifier is assigned by the
	// platform with their source identifier.
	TraceabilityMetadata bool
	// DeferSubscriptionBilling holds active subscriptions in a trial through the period
	// the customer already paid for.
	DeferSubscriptionBilling bool
}

// UnsupportedError reports a record with no safe destination representation.
type UnsupportedError struct {
	Kind     billing.ResourceKind
	SourceID string
	Reason   string
}

// Error describes the unsupported record.
func (unsupportedError UnsupportedError) Error() string {
	return fmt.Sprintf(unsupportedErrorTemplateConstant, unsupportedError.Kind.Singular(), unsupportedError.SourceID, unsupportedError.Reason)
}

// Transformer converts source records into destination creation payloads. It is pure
// apart from reading the clock and the resolver.
type Transformer struct {
	resolver Resolver
	options  Options
}

// NewTransformer builds a Transformer. A nil resolver passes every identifier through.
func NewTransformer(resolver Resolver, options Options) *Transformer {
	if resolver == nil {
		resolver = passThroughResolver{}
	}
	if options.Clock == nil {
		options.Clock = clock.WallClock
	}
	return &Transformer{resolver: resolver, options: options}
}

type passThroughResolver struct{}

func (passThroughResolver) Get(billing.ResourceKind, string) (string, bool) {
	return "", false
}

func (transformer *Transformer) future(timestamp *int64) bool {
	return timestamp != nil && time.Unix(*timestamp, 0).After(transformer.options.Clock.Now())
}

// remap returns the destination identifier of sourceID, or sourceID itself when the
// record was never migrated.
func (transformer *Transformer) remap(kind billing.ResourceKind, sourceID string) string {
	if len(sourceID) == 0 {
		return ""
	}
	if destinationID, found := transformer.resolver.Get(kind, sourceID); found && len(destinationID) > 0 {
		return destinationID
	}
	return sourceID
}

func (transformer *Transformer) remapReference(kind billing.ResourceKind, reference *billing.Reference) *string {
	identifier := billing.ReferenceID(reference)
	if len(identifier) == 0 {
		return nil
	}
	remapped := transformer.remap(kind, identifier)
	return &remapped
}

func (transformer *Transformer) remapAll(kind billing.ResourceKind, references []billing.Reference) []string {
	identifiers := billing.ReferenceIDs(references)
	if len(identifiers) == 0 {
		return nil
	}
	remapped := make([]string, 0, len(identifiers))
	for _, identifier := range identifiers {
		remapped = append(remapped, transformer.remap(kind, identifier))
	}
	return remapped
}

// tracedMetadata copies metadata and, when enabled, records the source identifier.
func (transformer *Transformer) tracedMetadata(kind billing.ResourceKind, sourceID string, metadata map[string]string) map[string]string {
	copied := keepMetadata(metadata)
	if !transformer.options.TraceabilityMetadata || len(sourceID) == 0 {
		return copied
	}
	if copied == nil {
		copied = map[string]string{}
	}
	copied[TraceabilityMetadataKey(kind)] = sourceID
	return copied
}

// TraceabilityMetadataKey names the metadata entry holding the source identifier of kind.
func TraceabilityMetadataKey(kind billing.ResourceKind) string {
	return fmt.Sprintf(traceabilityMetadataKeyTemplate, kind.Singular())
}

// Field presence. A nil result is omitted from the payload.

func keepWhenSet[T any](value *T) *T {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func keepWhenNonZero[T comparable](value *T) *T {
	var zero T
	if value == nil || *value == zero {
		return nil
	}
	copied := *value
	return &copied
}

func keepText(value string) *string {
	if len(value) == 0 {
		return nil
	}
	return &value
}

func keepTrue(value *bool) *bool {
	if value == nil || !*value {
		return nil
	}
	enabled := true
	return &enabled
}

func keepMetadata(metadata map[string]string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	copied := make(map[string]string, len(metadata))
	for key, value := range metadata {
		copied[key] = value
	}
	return copied
}

func keepStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return append([]string(nil), values...)
}

func valuePointer[T any](value T) *T {
	return &value
}
