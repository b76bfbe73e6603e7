package migrate

import (
	"github.com/temirov/billmigrate/internal/archive"
	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/pagination"
	"github.com/temirov/billmigrate/internal/policy"
	"github.com/temirov/billmigrate/internal/transform"
	"github.com/temirov/billmigrate/internal/workflow"
)

// buildTasks creates one task per migratable kind. Disabled kinds still get a task so
// --only can select them; the plan decides what runs. A kind counts as exported on a dry
// run even without a sink, since nothing is written then.
func buildTasks(configuration Configuration, environment taskEnvironment, transformer *transform.Transformer, invoiceArchive *archive.Archive) []workflow.Task {
	tasks := configuration.Tasks
	exportEnabled := func(kind billing.ResourceKind) bool {
		return (environment.dryRun || environment.exportSink != nil) && configuration.Export.Enabled(kind)
	}

	return []workflow.Task{
		&resourceTask[billing.Product, billing.ProductCreateParams]{
			taskEnvironment: environment,
			kind:            billing.ResourceKindProduct,
			policy:          policy.ProductPolicy(tasks.Products.ActivityConfiguration),
			transform:       transformer.Product,
			exportRecords:   exportEnabled(billing.ResourceKindProduct),
		},
		&resourceTask[billing.Price, billing.PriceCreateParams]{
			taskEnvironment: environment,
			kind:            billing.ResourceKindPrice,
			referencedKinds: []billing.ResourceKind{billing.ResourceKindProduct},
			policy:          policy.PricePolicy(tasks.Prices.PriceConfiguration),
			transform:       transformer.Price,
			exportRecords:   exportEnabled(billing.ResourceKindPrice),
		},
		&resourceTask[billing.Coupon, billing.CouponCreateParams]{
			taskEnvironment: environment,
			kind:            billing.ResourceKindCoupon,
			referencedKinds: []billing.ResourceKind{billing.ResourceKindProduct},
			policy:          policy.CouponPolicy(tasks.Coupons.CouponConfiguration),
			transform:       transformer.Coupon,
			exportRecords:   exportEnabled(billing.ResourceKindCoupon),
		},
		&resourceTask[billing.PromotionCode, billing.PromotionCodeCreateParams]{
			taskEnvironment: environment,
			kind:            billing.ResourceKindPromotionCode,
			referencedKinds: []billing.ResourceKind{billing.ResourceKindCoupon, billing.ResourceKindCustomer},
			policy:          policy.PromotionCodePolicy(tasks.PromotionCodes.ActivityConfiguration),
			transform:       transformer.PromotionCode,
			exportRecords:   exportEnabled(billing.ResourceKindPromotionCode),
		},
		&resourceTask[billing.PaymentLink, billing.PaymentLinkCreateParams]{
			taskEnvironment: environment,
			kind:            billing.ResourceKindPaymentLink,
			referencedKinds: []billing.ResourceKind{billing.ResourceKindPrice, billing.ResourceKindTaxRate},
			query:           pagination.Query{}.Expanding(billing.PaymentLinkLineItemsExpansion),
			policy:          policy.PaymentLinkPolicy(tasks.PaymentLinks.ActivityConfiguration),
			transform:       transformer.PaymentLink,
			exportRecords:   exportEnabled(billing.ResourceKindPaymentLink),
		},
		&resourceTask[billing.Subscription, billing.SubscriptionCreateParams]{
			taskEnvironment: environment,
			kind:            billing.ResourceKindSubscription,
			referencedKinds: []billing.ResourceKind{
				billing.ResourceKindPrice,
				billing.ResourceKindCoupon,
				billing.ResourceKindCustomer,
				billing.ResourceKindPaymentMethod,
				billing.ResourceKindTaxRate,
			},
			policy:        policy.SubscriptionPolicy(tasks.Subscriptions.SubscriptionConfiguration),
			transform:     transformer.Subscription,
			exportRecords: exportEnabled(billing.ResourceKindSubscription),
		},
		&resourceTask[billing.SubscriptionSchedule, billing.SubscriptionScheduleCreateParams]{
			taskEnvironment: environment,
			kind:            billing.ResourceKindSubscriptionSchedule,
			referencedKinds: []billing.ResourceKind{
				billing.ResourceKindPrice,
				billing.ResourceKindCoupon,
				billing.ResourceKindCustomer,
				billing.ResourceKindTaxRate,
			},
			policy:        policy.SubscriptionSchedulePolicy(tasks.SubscriptionSchedules.ScheduleConfiguration),
			transform:     transformer.SubscriptionSchedule,
			exportRecords: exportEnabled(billing.ResourceKindSubscriptionSchedule),
		},
		newInvoiceTask(environment, tasks.Invoices, exportEnabled(billing.ResourceKindInvoice), invoiceArchive),
	}
}
