package transform

import (
	"fmt"
	"strings"

	"github.com/temirov/billmigrate/internal/billing"
)

// Subscription builds the subscription payload.
//
// Temporal rules, evaluated against the injected clock:
//   - an active subscription, when deferred billing is enabled, trials through its current
//     period end and is created with payment_behavior=default_incomplete;
//   - otherwise a trial end is carried only while it lies in the future;
//   - cancel_at_period_end takes precedence over cancel_at, and a past cancel_at is dropped;
//   - the billing anchor is only sent when no trial is sent, because a trial end sets the
//     anchor on the destination.
func (transformer *Transformer) Subscription(record billing.Subscription) (billing.SubscriptionCreateParams, error) {
	if len(record.Customer.ID) == 0 {
		return billing.SubscriptionCreateParams{}, UnsupportedError{Kind: billing.ResourceKindSubscription, SourceID: record.ID, Reason: missingCustomerReasonConstant}
	}
	if len(record.Items.Data) == 0 {
		return billing.SubscriptionCreateParams{}, UnsupportedError{Kind: billing.ResourceKindSubscription, SourceID: record.ID, Reason: missingSubscriptionItemsReasonConstant}
	}

	payload := billing.SubscriptionCreateParams{
		Customer:             transformer.remap(billing.ResourceKindCustomer, record.Customer.ID),
		Currency:             keepWhenNonZero(record.Currency),
		CollectionMethod:     keepWhenNonZero(record.CollectionMethod),
		DefaultPaymentMethod: transformer.remapReference(billing.ResourceKindPaymentMethod, record.DefaultPaymentMethod),
		DefaultSource:        transformer.remapReference(billing.ResourceKindPaymentMethod, record.DefaultSource),
		DefaultTaxRates:      transformer.remapAll(billing.ResourceKindTaxRate, record.DefaultTaxRates),
		Description:          keepWhenNonZero(record.Description),
		Metadata:             transformer.tracedMetadata(billing.ResourceKindSubscription, record.ID, record.Metadata),
		AutomaticTax:         enabledAutomaticTax(record.AutomaticTax),
	}

	for _, item := range record.Items.Data {
		itemParams, itemError := transformer.subscriptionItem(record.ID, item)
		if itemError != nil {
			return billing.SubscriptionCreateParams{}, itemError
		}
		payload.Items = append(payload.Items, itemParams)
	}

	if record.CollectionMethod != nil && *record.CollectionMethod == collectionMethodSendInvoiceConstant {
		payload.DaysUntilDue = keepWhenNonZero(record.DaysUntilDue)
	}

	if record.Discount != nil && len(record.Discount.Coupon.ID) > 0 {
		payload.Coupon = valuePointer(transformer.remap(billing.ResourceKindCoupon, record.Discount.Coupon.ID))
	}

	if interval := record.PendingInvoiceItemInterval; interval != nil && len(interval.Interval) > 0 {
		payload.PendingInvoiceItemInterval = &billing.PendingInvoiceItemIntervalParams{
			Interval:      interval.Interval,
			IntervalCount: keepWhenNonZero(interval.IntervalCount),
		}
	}

	payload.PaymentSettings = paymentSettingsParams(record.PaymentSettings)

	if transformer.options.DeferSubscriptionBilling && strings.EqualFold(record.Status, subscriptionStatusActiveConstant) {
		payload.PaymentBehavior = valuePointer(paymentBehaviorDefaultIncomplete)
		if transformer.future(record.CurrentPeriodEnd) {
			payload.TrialEnd = keepWhenSet(record.CurrentPeriodEnd)
		}
	} else if transformer.future(record.TrialEnd) {
		payload.TrialEnd = keepWhenSet(record.TrialEnd)
	}

	if payload.TrialEnd != nil {
		if settings := record.TrialSettings; settings != nil && settings.EndBehavior != nil && len(settings.EndBehavior.MissingPaymentMethod) > 0 {
			payload.TrialSettings = &billing.TrialSettingsParams{
				EndBehavior: &billing.TrialEndBehaviorParams{MissingPaymentMethod: settings.EndBehavior.MissingPaymentMethod},
			}
		}
	}

	switch {
	case record.CancelAtPeriodEnd != nil && *record.CancelAtPeriodEnd:
		payload.CancelAtPeriodEnd = keepTrue(record.CancelAtPeriodEnd)
	case transformer.future(record.CancelAt):
		payload.CancelAt = keepWhenSet(record.CancelAt)
	}

	if payload.TrialEnd == nil {
		if anchorConfig := record.BillingCycleAnchorConfig; anchorConfig != nil && anchorConfig.DayOfMonth != nil && *anchorConfig.DayOfMonth > 0 {
			payload.BillingCycleAnchorConfig = &billing.BillingCycleAnchorConfigParams{
				DayOfMonth: *anchorConfig.DayOfMonth,
				Hour:       keepWhenNonZero(anchorConfig.Hour),
				Minute:     keepWhenNonZero(anchorConfig.Minute),
				Month:      keepWhenNonZero(anchorConfig.Month),
				Second:     keepWhenNonZero(anchorConfig.Second),
			}
		} else if transformer.future(record.BillingCycleAnchor) {
			payload.BillingCycleAnchor = keepWhenSet(record.BillingCycleAnchor)
		}
	}

	return payload, nil
}

func (transformer *Transformer) subscriptionItem(subscriptionID string, item billing.SubscriptionItem) (billing.SubscriptionItemParams, error) {
	priceIdentifier := billing.ReferenceID(item.Price)
	if len(priceIdentifier) == 0 {
		return billing.SubscriptionItemParams{}, UnsupportedError{
			Kind:     billing.ResourceKindSubscription,
			SourceID: subscriptionID,
			Reason:   fmt.Sprintf(missingSubscriptionItemPriceTemplateConstant, item.ID),
		}
	}

	itemParams := billing.SubscriptionItemParams{
		Metadata: keepMetadata(item.Metadata),
		Price:    valuePointer(transformer.remap(billing.ResourceKindPrice, priceIdentifier)),
		Quantity: keepWhenNonZero(item.Quantity),
		TaxRates: transformer.remapAll(billing.ResourceKindTaxRate, item.TaxRates),
	}
	if thresholds := item.BillingThresholds; thresholds != nil && thresholds.UsageGTE != nil && *thresholds.UsageGTE > 0 {
		itemParams.BillingThresholds = &billing.BillingThresholdsParams{UsageGTE: keepWhenSet(thresholds.UsageGTE)}
	}
	return itemParams, nil
}

func paymentSettingsParams(settings *billing.PaymentSettings) *billing.PaymentSettingsParams {
	if settings == nil {
		return nil
	}
	params := &billing.PaymentSettingsParams{
		PaymentMethodTypes:       keepStrings(settings.PaymentMethodTypes),
		SaveDefaultPaymentMethod: keepWhenNonZero(settings.SaveDefaultPaymentMethod),
	}

	if options := settings.PaymentMethodOptions; options != nil {
		optionParams := &billing.PaymentMethodOptionsParams{
			USBankAccount: verificationOptions(options.USBankAccount),
			ACSSDebit:     verificationOptions(options.ACSSDebit),
		}
		if card := options.Card; card != nil && (card.Network != nil || card.RequestThreeDSecure != nil) {
			optionParams.Card = &billing.CardOptionsParams{
				Network:             keepWhenNonZero(card.Network),
				RequestThreeDSecure: keepWhenNonZero(card.RequestThreeDSecure),
			}
		}
		if balance := options.CustomerBalance; balance != nil {
			balanceParams := &billing.CustomerBalanceOptionsParams{FundingType: keepWhenNonZero(balance.FundingType)}
			if balance.BankTransfer != nil && balance.BankTransfer.Type != nil && len(*balance.BankTransfer.Type) > 0 {
				balanceParams.BankTransfer = &billing.BankTransferParams{Type: keepWhenSet(balance.BankTransfer.Type)}
			}
			optionParams.CustomerBalance = balanceParams
		}
		if optionParams.Card != nil || optionParams.CustomerBalance != nil || optionParams.USBankAccount != nil || optionParams.ACSSDebit != nil {
			params.PaymentMethodOptions = optionParams
		}
	}

	if params.PaymentMethodOptions == nil && params.PaymentMethodTypes == nil && params.SaveDefaultPaymentMethod == nil {
		return nil
	}
	return params
}

func verificationOptions(options *billing.VerificationOptions) *billing.VerificationOptionsParams {
	if options == nil || options.VerificationMethod == nil || len(*options.VerificationMethod) == 0 {
		return nil
	}
	return &billing.VerificationOptionsParams{VerificationMethod: keepWhenSet(options.VerificationMethod)}
}

// SubscriptionSchedule builds the schedule payload. The schedule starts at its first
// phase; phases carry their end dates and never their own start dates.
func (transformer *Transformer) SubscriptionSchedule(record billing.SubscriptionSchedule) (billing.SubscriptionScheduleCreateParams, error) {
	if len(record.Customer.ID) == 0 {
		return billing.SubscriptionScheduleCreateParams{}, UnsupportedError{Kind: billing.ResourceKindSubscriptionSchedule, SourceID: record.ID, Reason: missingCustomerReasonConstant}
	}
	if len(record.Phases) == 0 {
		return billing.SubscriptionScheduleCreateParams{}, UnsupportedError{Kind: billing.ResourceKindSubscriptionSchedule, SourceID: record.ID, Reason: missingSchedulePhasesReasonConstant}
	}

	payload := billing.SubscriptionScheduleCreateParams{
		Customer:    transformer.remap(billing.ResourceKindCustomer, record.Customer.ID),
		StartDate:   keepWhenNonZero(&record.Phases[0].StartDate),
		EndBehavior: keepWhenNonZero(record.EndBehavior),
		Metadata:    transformer.tracedMetadata(billing.ResourceKindSubscriptionSchedule, record.ID, record.Metadata),
	}

	for phaseIndex, phase := range record.Phases {
		phaseParams := billing.SchedulePhaseParams{
			EndDate:           keepWhenNonZero(phase.EndDate),
			Coupon:            transformer.remapReference(billing.ResourceKindCoupon, phase.Coupon),
			CollectionMethod:  keepWhenNonZero(phase.CollectionMethod),
			DefaultTaxRates:   transformer.remapAll(billing.ResourceKindTaxRate, phase.DefaultTaxRates),
			Metadata:          keepMetadata(phase.Metadata),
			ProrationBehavior: keepWhenNonZero(phase.ProrationBehavior),
		}
		if transformer.future(phase.TrialEnd) {
			phaseParams.TrialEnd = keepWhenSet(phase.TrialEnd)
		}
		for _, item := range phase.Items {
			if len(item.Price.ID) == 0 {
				return billing.SubscriptionScheduleCreateParams{}, UnsupportedError{
					Kind:     billing.ResourceKindSubscriptionSchedule,
					SourceID: record.ID,
					Reason:   fmt.Sprintf(missingPhaseItemPriceTemplateConstant, phaseIndex),
				}
			}
			phaseParams.Items = append(phaseParams.Items, billing.SchedulePhaseItemParams{
				Price:    transformer.remap(billing.ResourceKindPrice, item.Price.ID),
				Quantity: keepWhenNonZero(item.Quantity),
				TaxRates: transformer.remapAll(billing.ResourceKindTaxRate, item.TaxRates),
			})
		}
		payload.Phases = append(payload.Phases, phaseParams)
	}

	return payload, nil
}
