package inventory

import (
	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/migrate"
	"github.com/temirov/billmigrate/internal/pagination"
	"github.com/temirov/billmigrate/internal/policy"
)

// Sources builds the sources of kinds using the migrate task policies. Every migratable
// kind is counted when kinds is empty; the enabled flags are ignored.
func Sources(tasks migrate.TasksConfiguration, kinds []billing.ResourceKind) []Source {
	invoiceSearch, invoiceFilters := policy.InvoiceQuery(tasks.Invoices.InvoiceConfiguration)
	available := map[billing.ResourceKind]Source{
		billing.ResourceKindProduct:              NewSource(billing.ResourceKindProduct, pagination.Query{}, policy.ProductPolicy(tasks.Products.ActivityConfiguration)),
		billing.ResourceKindPrice:                NewSource(billing.ResourceKindPrice, pagination.Query{}, policy.PricePolicy(tasks.Prices.PriceConfiguration)),
		billing.ResourceKindCoupon:               NewSource(billing.ResourceKindCoupon, pagination.Query{}, policy.CouponPolicy(tasks.Coupons.CouponConfiguration)),
		billing.ResourceKindPromotionCode:        NewSource(billing.ResourceKindPromotionCode, pagination.Query{}, policy.PromotionCodePolicy(tasks.PromotionCodes.ActivityConfiguration)),
		billing.ResourceKindPaymentLink:          NewSource(billing.ResourceKindPaymentLink, pagination.Query{}.Expanding(billing.PaymentLinkLineItemsExpansion), policy.PaymentLinkPolicy(tasks.PaymentLinks.ActivityConfiguration)),
		billing.ResourceKindSubscription:         NewSource(billing.ResourceKindSubscription, pagination.Query{}, policy.SubscriptionPolicy(tasks.Subscriptions.SubscriptionConfiguration)),
		billing.ResourceKindSubscriptionSchedule: NewSource(billing.ResourceKindSubscriptionSchedule, pagination.Query{}, policy.SubscriptionSchedulePolicy(tasks.SubscriptionSchedules.ScheduleConfiguration)),
		billing.ResourceKindInvoice:              NewSource(billing.ResourceKindInvoice, pagination.Query{Search: invoiceSearch, Filters: invoiceFilters}, policy.InvoicePolicy(tasks.Invoices.InvoiceConfiguration)),
	}

	if len(kinds) == 0 {
		kinds = billing.MigratableResourceKinds()
	}
	sources := make([]Source, 0, len(kinds))
	for _, kind := range kinds {
		if source, known := available[kind]; known {
			sources = append(sources, source)
		}
	}
	return sources
}
