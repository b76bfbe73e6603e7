package transform_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/transform"
)

const (
	transformSubtestNameTemplateConstant = "%d_%s"
	sourceProductIdentifierConstant      = "prod_source"
	destinationPriceIdentifierConstant   = "price_destination"
	sourcePriceIdentifierConstant        = "price_source"
	sourceCouponIdentifierConstant       = "SUMMER"
	destinationCouponIdentifierConstant  = "SUMMER_DST"
	sourcePaymentMethodConstant          = "pm_source"
	destinationPaymentMethodConstant     = "pm_destination"
	unmappedCustomerIdentifierConstant   = "cus_unmapped"
	unmappedTaxRateIdentifierConstant    = "txr_unmapped"
)

var fixedNow = time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)

type mapResolver map[billing.ResourceKind]map[string]string

func (resolver mapResolver) Get(kind billing.ResourceKind, sourceID string) (string, bool) {
	destinationID, found := resolver[kind][sourceID]
	return destinationID, found
}

func newTestTransformer(options transform.Options) *transform.Transformer {
	resolver := mapResolver{
		billing.ResourceKindPrice:         {sourcePriceIdentifierConstant: destinationPriceIdentifierConstant},
		billing.ResourceKindCoupon:        {sourceCouponIdentifierConstant: destinationCouponIdentifierConstant},
		billing.ResourceKindPaymentMethod: {sourcePaymentMethodConstant: destinationPaymentMethodConstant},
	}
	options.Clock = testclock.NewClock(fixedNow)
	return transform.NewTransformer(resolver, options)
}

func pointerTo[T any](value T) *T {
	return &value
}

func unixAfter(duration time.Duration) *int64 {
	timestamp := fixedNow.Add(duration).Unix()
	return &timestamp
}

func requireUnsupported(testInstance *testing.T, err error, kind billing.ResourceKind) {
	testInstance.Helper()
	require.Error(testInstance, err)
	var unsupportedError transform.UnsupportedError
	require.True(testInstance, errors.As(err, &unsupportedError))
	require.Equal(testInstance, kind, unsupportedError.Kind)
}

func TestCouponKeepsDiscountFieldsSeparate(testInstance *testing.T) {
	transformer := newTestTransformer(transform.Options{})

	amountCoupon, amountError := transformer.Coupon(billing.Coupon{ID: "C1", AmountOff: pointerTo(int64(500)), Currency: pointerTo("usd"), Duration: "once"})
	require.NoError(testInstance, amountError)
	require.Equal(testInstance, int64(500), *amountCoupon.AmountOff)
	require.Equal(testInstance, "usd", *amountCoupon.Currency)
	require.Nil(testInstance, amountCoupon.PercentOff)
	require.Equal(testInstance, "C1", *amountCoupon.ID)

	percentCoupon, percentError := transformer.Coupon(billing.Coupon{ID: "C2", PercentOff: pointerTo(10.0), Duration: "forever"})
	require.NoError(testInstance, percentError)
	require.Equal(testInstance, 10.0, *percentCoupon.PercentOff)
	require.Nil(testInstance, percentCoupon.AmountOff)
	require.Nil(testInstance, percentCoupon.Currency)
}

func TestCouponPresenceRules(testInstance *testing.T) {
	transformer := newTestTransformer(transform.Options{})

	bothDiscounts, bothError := transformer.Coupon(billing.Coupon{
		ID:               "C3",
		AmountOff:        pointerTo(int64(200)),
		PercentOff:       pointerTo(15.0),
		Currency:         pointerTo("eur"),
		Duration:         "repeating",
		DurationInMonths: pointerTo(int64(3)),
		MaxRedemptions:   pointerTo(int64(0)),
		CurrencyOptions: map[string]billing.CouponCurrencyOption{
			"usd": {AmountOff: pointerTo(int64(220))},
			"eur": {AmountOff: pointerTo(int64(200))},
			"gbp": {},
		},
		AppliesTo: &billing.CouponAppliesTo{Products: []string{sourceProductIdentifierConstant}},
	})
	require.NoError(testInstance, bothError)
	require.Equal(testInstance, int64(200), *bothDiscounts.AmountOff)
	require.Nil(testInstance, bothDiscounts.PercentOff)
	require.Equal(testInstance, int64(3), *bothDiscounts.DurationInMonths)
	require.Nil(testInstance, bothDiscounts.MaxRedemptions)
	require.Len(testInstance, bothDiscounts.CurrencyOptions, 1)
	require.Equal(testInstance, int64(220), *bothDiscounts.CurrencyOptions["usd"].AmountOff)
	require.Equal(testInstance, []string{sourceProductIdentifierConstant}, bothDiscounts.AppliesTo.Products)

	onceCoupon, onceError := transformer.Coupon(billing.Coupon{ID: "C4", PercentOff: pointerTo(5.0), Duration: "once", DurationInMonths: pointerTo(int64(2))})
	require.NoError(testInstance, onceError)
	require.Nil(testInstance, onceCoupon.DurationInMonths)

	_, missingCurrencyError := transformer.Coupon(billing.Coupon{ID: "C5", AmountOff: pointerTo(int64(100)), Duration: "once"})
	requireUnsupported(testInstance, missingCurrencyError, billing.ResourceKindCoupon)

	_, missingDiscountError := transformer.Coupon(billing.Coupon{ID: "C6", Duration: "once"})
	requireUnsupported(testInstance, missingDiscountError, billing.ResourceKindCoupon)
}

func TestProductReusesIdentifierAndPreservesInactiveFlag(testInstance *testing.T) {
	transformer := newTestTransformer(transform.Options{TraceabilityMetadata: true})

	payload, productError := transformer.Product(billing.Product{
		ID:          sourceProductIdentifierConstant,
		Name:        "Pro plan",
		Active:      pointerTo(false),
		Description: pointerTo(""),
		Features:    []billing.ProductFeature{{Name: pointerTo("Priority support")}, {Name: nil}, {Name: pointerTo("")}},
		Metadata:    map[string]string{"tier": "pro"},
		TaxCode:     &billing.Reference{ID: "txcd_10000000"},
	})
	require.NoError(testInstance, productError)
	require.Equal(testInstance, sourceProductIdentifierConstant, *payload.ID)
	require.False(testInstance, *payload.Active)
	require.Nil(testInstance, payload.Description)
	require.Equal(testInstance, []billing.ProductFeatureParams{{Name: "Priority support"}}, payload.Features)
	require.Equal(testInstance, map[string]string{"tier": "pro"}, payload.Metadata)
	require.Equal(testInstance, "txcd_10000000", *payload.TaxCode)
	require.Nil(testInstance, payload.PackageDimensions)
}

func TestPriceTransformation(testInstance *testing.T) {
	transformer := newTestTransformer(transform.Options{TraceabilityMetadata: true})

	testCases := []struct {
		name     string
		record   billing.Price
		validate func(*testing.T, billing.PriceCreateParams, error)
	}{
		{
			name: "recurring price with remapped product",
			record: billing.Price{
				ID:                "price_1",
				Active:            pointerTo(false),
				Currency:          "usd",
				Product:           billing.Reference{ID: sourceProductIdentifierConstant},
				UnitAmount:        pointerTo(int64(0)),
				UnitAmountDecimal: pointerTo("0"),
				Recurring:         &billing.Recurring{Interval: "month", IntervalCount: pointerTo(int64(1)), TrialPeriodDays: pointerTo(int64(0))},
				Metadata:          map[string]string{"plan": "free"},
			},
			validate: func(subtest *testing.T, payload billing.PriceCreateParams, err error) {
				require.NoError(subtest, err)
				require.Equal(subtest, sourceProductIdentifierConstant, payload.Product)
				require.False(subtest, *payload.Active)
				require.Equal(subtest, int64(0), *payload.UnitAmount)
				require.Nil(subtest, payload.UnitAmountDecimal)
				require.Equal(subtest, "month", payload.Recurring.Interval)
				require.Nil(subtest, payload.Recurring.TrialPeriodDays)
				require.Equal(subtest, "free", payload.Metadata["plan"])
				require.Equal(subtest, "price_1", payload.Metadata[transform.TraceabilityMetadataKey(billing.ResourceKindPrice)])
			},
		},
		{
			name: "decimal amount with currency options",
			record: billing.Price{
				ID:                "price_2",
				Currency:          "usd",
				Product:           billing.Reference{ID: sourceProductIdentifierConstant},
				UnitAmountDecimal: pointerTo("12.5"),
				CurrencyOptions: map[string]billing.PriceCurrencyOption{
					"usd": {UnitAmountDecimal: pointerTo("12.5")},
					"eur": {UnitAmount: pointerTo(int64(1100)), TaxBehavior: pointerTo("exclusive")},
				},
			},
			validate: func(subtest *testing.T, payload billing.PriceCreateParams, err error) {
				require.NoError(subtest, err)
				require.Nil(subtest, payload.UnitAmount)
				require.Equal(subtest, "12.5", *payload.UnitAmountDecimal)
				require.Len(subtest, payload.CurrencyOptions, 1)
				require.Equal(subtest, int64(1100), *payload.CurrencyOptions["eur"].UnitAmount)
				require.Equal(subtest, "exclusive", *payload.CurrencyOptions["eur"].TaxBehavior)
			},
		},
		{
			name: "custom amount replaces unit amount",
			record: billing.Price{
				ID:               "price_3",
				Currency:         "usd",
				CustomUnitAmount: &billing.CustomUnitAmount{Minimum: pointerTo(int64(500)), Preset: pointerTo(int64(0))},
			},
			validate: func(subtest *testing.T, payload billing.PriceCreateParams, err error) {
				require.NoError(subtest, err)
				require.True(subtest, *payload.CustomUnitAmount.Enabled)
				require.Equal(subtest, int64(500), *payload.CustomUnitAmount.Minimum)
				require.Nil(subtest, payload.CustomUnitAmount.Preset)
				require.Nil(subtest, payload.UnitAmount)
			},
		},
		{
			name:   "tiered price is unsupported",
			record: billing.Price{ID: "price_4", Currency: "usd", BillingScheme: pointerTo("tiered"), TiersMode: pointerTo("graduated")},
			validate: func(subtest *testing.T, _ billing.PriceCreateParams, err error) {
				requireUnsupported(subtest, err, billing.ResourceKindPrice)
			},
		},
		{
			name:   "price without amount is unsupported",
			record: billing.Price{ID: "price_5", Currency: "usd"},
			validate: func(subtest *testing.T, _ billing.PriceCreateParams, err error) {
				requireUnsupported(subtest, err, billing.ResourceKindPrice)
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(transformSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			payload, transformError := transformer.Price(testCase.record)
			testCase.validate(subtest, payload, transformError)
		})
	}
}

func TestPromotionCodeRemapsCouponAndPassesUnknownCustomerThrough(testInstance *testing.T) {
	transformer := newTestTransformer(transform.Options{TraceabilityMetadata: true})

	payload, promotionError := transformer.PromotionCode(billing.PromotionCode{
		ID:             "promo_1",
		Active:         pointerTo(false),
		Code:           "SUMMER24",
		Coupon:         billing.Reference{ID: sourceCouponIdentifierConstant},
		Customer:       &billing.Reference{ID: unmappedCustomerIdentifierConstant},
		MaxRedemptions: pointerTo(int64(0)),
		Restrictions: &billing.PromotionCodeRestrictions{
			FirstTimeTransaction: pointerTo(true),
			MinimumAmount:        pointerTo(int64(1000)),
		},
	})
	require.NoError(testInstance, promotionError)
	require.Equal(testInstance, destinationCouponIdentifierConstant, payload.Coupon)
	require.Equal(testInstance, unmappedCustomerIdentifierConstant, *payload.Customer)
	require.False(testInstance, *payload.Active)
	require.Equal(testInstance, "SUMMER24", *payload.Code)
	require.Nil(testInstance, payload.MaxRedemptions)
	require.True(testInstance, *payload.Restrictions.FirstTimeTransaction)
	require.Nil(testInstance, payload.Restrictions.MinimumAmount)
	require.Nil(testInstance, payload.Restrictions.MinimumAmountCurrency)
	require.Equal(testInstance, "promo_1", payload.Metadata["source_promotion_code_id"])
}

func TestPaymentLinkTransformation(testInstance *testing.T) {
	transformer := newTestTransformer(transform.Options{})

	payload, linkError := transformer.PaymentLink(billing.PaymentLink{
		ID:                  "plink_1",
		AllowPromotionCodes: pointerTo(false),
		AutomaticTax:        &billing.AutomaticTax{Enabled: true},
		InvoiceCreation:     &billing.Toggle{Enabled: false},
		AfterCompletion:     &billing.AfterCompletion{Type: "redirect", Redirect: &billing.Redirect{URL: "https://example.com/thanks"}},
		LineItems: &billing.List[billing.PaymentLinkLineItem]{Data: []billing.PaymentLinkLineItem{
			{ID: "li_1", Price: &billing.Reference{ID: sourcePriceIdentifierConstant}, Quantity: pointerTo(int64(2))},
			{ID: "li_2", Price: &billing.Reference{ID: "price_unmapped"}, AdjustableQuantity: &billing.AdjustableQuantity{Enabled: true, Maximum: pointerTo(int64(10))}},
		}},
		CustomFields: []billing.CustomField{{
			Key:     "company",
			Type:    "text",
			Label:   billing.CustomFieldLabel{Custom: pointerTo("Company"), Type: "custom"},
			Text:    &billing.CustomFieldLength{MaximumLength: pointerTo(int64(40)), MinimumLength: pointerTo(int64(2))},
			Numeric: &billing.CustomFieldLength{MaximumLength: pointerTo(int64(0))},
		}},
	})
	require.NoError(testInstance, linkError)
	require.Nil(testInstance, payload.AllowPromotionCodes)
	require.True(testInstance, *payload.AutomaticTax.Enabled)
	require.Nil(testInstance, payload.InvoiceCreation)
	require.Equal(testInstance, "https://example.com/thanks", payload.AfterCompletion.Redirect.URL)
	require.Nil(testInstance, payload.AfterCompletion.HostedConfirmation)

	require.Len(testInstance, payload.LineItems, 2)
	require.Equal(testInstance, destinationPriceIdentifierConstant, payload.LineItems[0].Price)
	require.Equal(testInstance, int64(2), *payload.LineItems[0].Quantity)
	require.Equal(testInstance, "price_unmapped", payload.LineItems[1].Price)
	require.Equal(testInstance, int64(1), *payload.LineItems[1].Quantity)
	require.Equal(testInstance, int64(10), *payload.LineItems[1].AdjustableQuantity.Maximum)
	require.Nil(testInstance, payload.LineItems[1].AdjustableQuantity.Minimum)

	require.Len(testInstance, payload.CustomFields, 1)
	require.Equal(testInstance, "Company", payload.CustomFields[0].Label.Custom)
	require.Equal(testInstance, int64(40), *payload.CustomFields[0].Text.MaximumLength)
	require.Equal(testInstance, int64(2), *payload.CustomFields[0].Text.MinimumLength)
	require.Nil(testInstance, payload.CustomFields[0].Numeric)

	_, emptyError := transformer.PaymentLink(billing.PaymentLink{ID: "plink_2"})
	requireUnsupported(testInstance, emptyError, billing.ResourceKindPaymentLink)

	_, missingPriceError := transformer.PaymentLink(billing.PaymentLink{ID: "plink_3", LineItems: &billing.List[billing.PaymentLinkLineItem]{Data: []billing.PaymentLinkLineItem{{ID: "li_3"}}}})
	requireUnsupported(testInstance, missingPriceError, billing.ResourceKindPaymentLink)

	truncatedLineItems := &billing.List[billing.PaymentLinkLineItem]{
		Data:    []billing.PaymentLinkLineItem{{ID: "li_4", Price: &billing.Reference{ID: sourcePriceIdentifierConstant}}},
		HasMore: true,
	}
	_, truncatedError := transformer.PaymentLink(billing.PaymentLink{ID: "plink_4", LineItems: truncatedLineItems})
	requireUnsupported(testInstance, truncatedError, billing.ResourceKindPaymentLink)
}

func baseSubscription(status string) billing.Subscription {
	return billing.Subscription{
		ID:       "sub_1",
		Status:   status,
		Customer: billing.Reference{ID: unmappedCustomerIdentifierConstant},
		Items: billing.List[billing.SubscriptionItem]{Data: []billing.SubscriptionItem{
			{ID: "si_1", Price: &billing.Reference{ID: sourcePriceIdentifierConstant}, Quantity: pointerTo(int64(1)), TaxRates: []billing.Reference{{ID: unmappedTaxRateIdentifierConstant}}},
		}},
	}
}

func TestSubscriptionTemporalRules(testInstance *testing.T) {
	futurePeriodEnd := unixAfter(20 * 24 * time.Hour)
	futureTrialEnd := unixAfter(5 * 24 * time.Hour)
	pastTimestamp := unixAfter(-24 * time.Hour)
	futureCancel := unixAfter(60 * 24 * time.Hour)
	futureAnchor := unixAfter(10 * 24 * time.Hour)

	testCases := []struct {
		name     string
		options  transform.Options
		mutate   func(*billing.Subscription)
		validate func(*testing.T, billing.SubscriptionCreateParams)
	}{
		{
			name:    "active subscription defers billing through current period",
			options: transform.Options{DeferSubscriptionBilling: true},
			mutate: func(subscription *billing.Subscription) {
				subscription.CurrentPeriodEnd = futurePeriodEnd
				subscription.BillingCycleAnchor = futureAnchor
				subscription.TrialEnd = futureTrialEnd
			},
			validate: func(subtest *testing.T, payload billing.SubscriptionCreateParams) {
				require.Equal(subtest, *futurePeriodEnd, *payload.TrialEnd)
				require.Equal(subtest, "default_incomplete", *payload.PaymentBehavior)
				require.Nil(subtest, payload.BillingCycleAnchor)
			},
		},
		{
			name:    "trialing subscription keeps future trial",
			options: transform.Options{DeferSubscriptionBilling: true},
			mutate: func(subscription *billing.Subscription) {
				subscription.Status = "trialing"
				subscription.TrialEnd = futureTrialEnd
				subscription.TrialSettings = &billing.TrialSettings{EndBehavior: &billing.TrialEndBehavior{MissingPaymentMethod: "cancel"}}
			},
			validate: func(subtest *testing.T, payload billing.SubscriptionCreateParams) {
				require.Equal(subtest, *futureTrialEnd, *payload.TrialEnd)
				require.Nil(subtest, payload.PaymentBehavior)
				require.Equal(subtest, "cancel", payload.TrialSettings.EndBehavior.MissingPaymentMethod)
			},
		},
		{
			name: "past trial end is dropped",
			mutate: func(subscription *billing.Subscription) {
				subscription.TrialEnd = pastTimestamp
				subscription.TrialSettings = &billing.TrialSettings{EndBehavior: &billing.TrialEndBehavior{MissingPaymentMethod: "cancel"}}
			},
			validate: func(subtest *testing.T, payload billing.SubscriptionCreateParams) {
				require.Nil(subtest, payload.TrialEnd)
				require.Nil(subtest, payload.TrialSettings)
			},
		},
		{
			name: "cancel at period end wins over cancel at",
			mutate: func(subscription *billing.Subscription) {
				subscription.CancelAtPeriodEnd = pointerTo(true)
				subscription.CancelAt = futureCancel
			},
			validate: func(subtest *testing.T, payload billing.SubscriptionCreateParams) {
				require.True(subtest, *payload.CancelAtPeriodEnd)
				require.Nil(subtest, payload.CancelAt)
			},
		},
		{
			name: "future cancel at is kept",
			mutate: func(subscription *billing.Subscription) {
				subscription.CancelAtPeriodEnd = pointerTo(false)
				subscription.CancelAt = futureCancel
			},
			validate: func(subtest *testing.T, payload billing.SubscriptionCreateParams) {
				require.Nil(subtest, payload.CancelAtPeriodEnd)
				require.Equal(subtest, *futureCancel, *payload.CancelAt)
			},
		},
		{
			name: "past cancel at is dropped",
			mutate: func(subscription *billing.Subscription) {
				subscription.CancelAt = pastTimestamp
			},
			validate: func(subtest *testing.T, payload billing.SubscriptionCreateParams) {
				require.Nil(subtest, payload.CancelAt)
				require.Nil(subtest, payload.CancelAtPeriodEnd)
			},
		},
		{
			name: "future billing anchor without trial",
			mutate: func(subscription *billing.Subscription) {
				subscription.BillingCycleAnchor = futureAnchor
			},
			validate: func(subtest *testing.T, payload billing.SubscriptionCreateParams) {
				require.Equal(subtest, *futureAnchor, *payload.BillingCycleAnchor)
				require.Nil(subtest, payload.PaymentBehavior)
			},
		},
		{
			name: "anchor configuration replaces anchor timestamp",
			mutate: func(subscription *billing.Subscription) {
				subscription.BillingCycleAnchor = futureAnchor
				subscription.BillingCycleAnchorConfig = &billing.BillingCycleAnchorConfig{DayOfMonth: pointerTo(int64(15)), Hour: pointerTo(int64(0))}
			},
			validate: func(subtest *testing.T, payload billing.SubscriptionCreateParams) {
				require.Nil(subtest, payload.BillingCycleAnchor)
				require.Equal(subtest, int64(15), payload.BillingCycleAnchorConfig.DayOfMonth)
				require.Nil(subtest, payload.BillingCycleAnchorConfig.Hour)
			},
		},
		{
			name: "past billing anchor is dropped",
			mutate: func(subscription *billing.Subscription) {
				subscription.BillingCycleAnchor = pastTimestamp
			},
			validate: func(subtest *testing.T, payload billing.SubscriptionCreateParams) {
				require.Nil(subtest, payload.BillingCycleAnchor)
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(transformSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			subscription := baseSubscription("active")
			testCase.mutate(&subscription)
			payload, subscriptionError := newTestTransformer(testCase.options).Subscription(subscription)
			require.NoError(subtest, subscriptionError)
			testCase.validate(subtest, payload)
		})
	}
}

func TestSubscriptionRemapsForeignReferences(testInstance *testing.T) {
	transformer := newTestTransformer(transform.Options{TraceabilityMetadata: true})

	subscription := baseSubscription("past_due")
	subscription.DefaultPaymentMethod = &billing.Reference{ID: sourcePaymentMethodConstant}
	subscription.Discount = &billing.Discount{Coupon: billing.Reference{ID: sourceCouponIdentifierConstant}}
	subscription.CollectionMethod = pointerTo("charge_automatically")
	subscription.DaysUntilDue = pointerTo(int64(30))
	subscription.AutomaticTax = &billing.AutomaticTax{Enabled: false}
	subscription.PauseCollection = &billing.PauseCollection{Behavior: "void"}
	subscription.PaymentSettings = &billing.PaymentSettings{
		PaymentMethodTypes:   []string{"card"},
		PaymentMethodOptions: &billing.PaymentMethodOptions{Card: &billing.CardOptions{RequestThreeDSecure: pointerTo("automatic")}},
	}

	payload, subscriptionError := transformer.Subscription(subscription)
	require.NoError(testInstance, subscriptionError)
	require.Equal(testInstance, unmappedCustomerIdentifierConstant, payload.Customer)
	require.Equal(testInstance, destinationPaymentMethodConstant, *payload.DefaultPaymentMethod)
	require.Equal(testInstance, destinationCouponIdentifierConstant, *payload.Coupon)
	require.Equal(testInstance, destinationPriceIdentifierConstant, *payload.Items[0].Price)
	require.Equal(testInstance, []string{unmappedTaxRateIdentifierConstant}, payload.Items[0].TaxRates)
	require.Nil(testInstance, payload.DaysUntilDue)
	require.Nil(testInstance, payload.AutomaticTax)
	require.Equal(testInstance, "automatic", *payload.PaymentSettings.PaymentMethodOptions.Card.RequestThreeDSecure)
	require.Equal(testInstance, "sub_1", payload.Metadata["source_subscription_id"])

	_, missingItemsError := transformer.Subscription(billing.Subscription{ID: "sub_2", Customer: billing.Reference{ID: "cus_1"}})
	requireUnsupported(testInstance, missingItemsError, billing.ResourceKindSubscription)

	_, missingCustomerError := transformer.Subscription(billing.Subscription{ID: "sub_3"})
	requireUnsupported(testInstance, missingCustomerError, billing.ResourceKindSubscription)
}

func TestSubscriptionScheduleTransformation(testInstance *testing.T) {
	transformer := newTestTransformer(transform.Options{})
	firstPhaseStart := fixedNow.Add(-48 * time.Hour).Unix()

	payload, scheduleError := transformer.SubscriptionSchedule(billing.SubscriptionSchedule{
		ID:          "sub_sched_1",
		Status:      "active",
		Customer:    billing.Reference{ID: unmappedCustomerIdentifierConstant},
		EndBehavior: pointerTo("release"),
		Phases: []billing.SchedulePhase{
			{
				StartDate: firstPhaseStart,
				EndDate:   unixAfter(24 * time.Hour),
				TrialEnd:  unixAfter(-time.Hour),
				Coupon:    &billing.Reference{ID: sourceCouponIdentifierConstant},
				Items:     []billing.SchedulePhaseItem{{Price: billing.Reference{ID: sourcePriceIdentifierConstant}, Quantity: pointerTo(int64(3))}},
			},
			{
				StartDate: fixedNow.Add(24 * time.Hour).Unix(),
				TrialEnd:  unixAfter(48 * time.Hour),
				Items:     []billing.SchedulePhaseItem{{Price: billing.Reference{ID: "price_next"}}},
			},
		},
	})
	require.NoError(testInstance, scheduleError)
	require.Equal(testInstance, firstPhaseStart, *payload.StartDate)
	require.Equal(testInstance, "release", *payload.EndBehavior)
	require.Len(testInstance, payload.Phases, 2)
	require.Nil(testInstance, payload.Phases[0].TrialEnd)
	require.Equal(testInstance, destinationCouponIdentifierConstant, *payload.Phases[0].Coupon)
	require.Equal(testInstance, destinationPriceIdentifierConstant, payload.Phases[0].Items[0].Price)
	require.Equal(testInstance, int64(3), *payload.Phases[0].Items[0].Quantity)
	require.NotNil(testInstance, payload.Phases[1].TrialEnd)
	require.Nil(testInstance, payload.Phases[1].Items[0].Quantity)

	_, missingPhasesError := transformer.SubscriptionSchedule(billing.SubscriptionSchedule{ID: "sub_sched_2", Customer: billing.Reference{ID: "cus_1"}})
	requireUnsupported(testInstance, missingPhasesError, billing.ResourceKindSubscriptionSchedule)
}

func TestTransformationIsRepeatableAndLeavesRecordUntouched(testInstance *testing.T) {
	transformer := newTestTransformer(transform.Options{TraceabilityMetadata: true, DeferSubscriptionBilling: true})
	subscription := baseSubscription("active")
	subscription.Metadata = map[string]string{"plan": "pro"}
	subscription.CurrentPeriodEnd = unixAfter(time.Hour)

	firstPayload, firstError := transformer.Subscription(subscription)
	require.NoError(testInstance, firstError)
	secondPayload, secondError := transformer.Subscription(subscription)
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, firstPayload, secondPayload)

	firstPayload.Metadata["plan"] = "changed"
	*firstPayload.TrialEnd = 0
	require.Equal(testInstance, map[string]string{"plan": "pro"}, subscription.Metadata)
	require.NotEqual(testInstance, int64(0), *subscription.CurrentPeriodEnd)
}
