package billing

import (
	"fmt"
	"strings"
)

const (
	resourceKindProductsConstant              = "products"
	resourceKindPricesConstant                = "prices"
	resourceKindCouponsConstant               = "coupons"
	resourceKindPromotionCodesConstant        = "promotion_codes"
	resourceKindPaymentLinksConstant          = "payment_links"
	resourceKindSubscriptionsConstant         = "subscriptions"
	resourceKindSubscriptionSchedulesConstant = "subscription_schedules"
	resourceKindInvoicesConstant              = "invoices"
	resourceKindCustomersConstant             = "customers"
	resourceKindPaymentMethodsConstant        = "payment_methods"
	resourceKindTaxRatesConstant              = "tax_rates"
	unknownResourceKindTemplateConstant       = "unknown resource kind: %s"
)

// ResourceKind names a remote resource collection.
type ResourceKind string

// Resource kinds handled by the migrator.
const (
	ResourceKindProduct              ResourceKind = ResourceKind(resourceKindProductsConstant)
	ResourceKindPrice                ResourceKind = ResourceKind(resourceKindPricesConstant)
	ResourceKindCoupon               ResourceKind = ResourceKind(resourceKindCouponsConstant)
	ResourceKindPromotionCode        ResourceKind = ResourceKind(resourceKindPromotionCodesConstant)
	ResourceKindPaymentLink          ResourceKind = ResourceKind(resourceKindPaymentLinksConstant)
	ResourceKindSubscription         ResourceKind = ResourceKind(resourceKindSubscriptionsConstant)
	ResourceKindSubscriptionSchedule ResourceKind = ResourceKind(resourceKindSubscriptionSchedulesConstant)
	ResourceKindInvoice              ResourceKind = ResourceKind(resourceKindInvoicesConstant)

	// Mapping-only kinds. They are never migrated by a task but their identifiers
	// appear as foreign references and can be imported into the mapping store.
	ResourceKindCustomer      ResourceKind = ResourceKind(resourceKindCustomersConstant)
	ResourceKindPaymentMethod ResourceKind = ResourceKind(resourceKindPaymentMethodsConstant)
	ResourceKindTaxRate       ResourceKind = ResourceKind(resourceKindTaxRatesConstant)
)

var migratableResourceKinds = []ResourceKind{
	ResourceKindProduct,
	ResourceKindPrice,
	ResourceKindCoupon,
	ResourceKindPromotionCode,
	ResourceKindPaymentLink,
	ResourceKindSubscription,
	ResourceKindSubscriptionSchedule,
	ResourceKindInvoice,
}

var singularResourceNames = map[ResourceKind]string{
	ResourceKindProduct:              "product",
	ResourceKindPrice:                "price",
	ResourceKindCoupon:               "coupon",
	ResourceKindPromotionCode:        "promotion_code",
	ResourceKindPaymentLink:          "payment_link",
	ResourceKindSubscription:         "subscription",
	ResourceKindSubscriptionSchedule: "subscription_schedule",
	ResourceKindInvoice:              "invoice",
	ResourceKindCustomer:             "customer",
	ResourceKindPaymentMethod:        "payment_method",
	ResourceKindTaxRate:              "tax_rate",
}

// MigratableResourceKinds returns the kinds in static dependency order.
func MigratableResourceKinds() []ResourceKind {
	return append([]ResourceKind(nil), migratableResourceKinds...)
}

// Singular returns the singular resource name, e.g. "price" for prices.
func (kind ResourceKind) Singular() string {
	if singular, known := singularResourceNames[kind]; known {
		return singular
	}
	return strings.TrimSuffix(string(kind), "s")
}

// ParseResourceKind resolves a user supplied kind name.
func ParseResourceKind(value string) (ResourceKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for kind, singular := range singularResourceNames {
		if normalized == string(kind) || normalized == singular {
			return kind, nil
		}
	}
	return "", fmt.Errorf(unknownResourceKindTemplateConstant, value)
}
