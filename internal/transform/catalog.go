package transform

import (
	"github.com/temirov/billmigrate/internal/billing"
)

// Product builds the product payload. Product identifiers are reused verbatim.
func (transformer *Transformer) Product(record billing.Product) (billing.ProductCreateParams, error) {
	payload := billing.ProductCreateParams{
		ID:                  keepText(record.ID),
		Name:                record.Name,
		Active:              keepWhenSet(record.Active),
		Description:         keepWhenNonZero(record.Description),
		Images:              keepStrings(record.Images),
		Metadata:            keepMetadata(record.Metadata),
		Shippable:           keepWhenSet(record.Shippable),
		StatementDescriptor: keepWhenNonZero(record.StatementDescriptor),
		TaxCode:             keepText(billing.ReferenceID(record.TaxCode)),
		UnitLabel:           keepWhenNonZero(record.UnitLabel),
		URL:                 keepWhenNonZero(record.URL),
	}

	for _, feature := range record.Features {
		if feature.Name == nil || len(*feature.Name) == 0 {
			continue
		}
		payload.Features = append(payload.Features, billing.ProductFeatureParams{Name: *feature.Name})
	}

	if dimensions := record.PackageDimensions; dimensions != nil {
		payload.PackageDimensions = &billing.PackageDimensionsParams{
			Height: valuePointer(dimensions.Height),
			Length: valuePointer(dimensions.Length),
			Weight: valuePointer(dimensions.Weight),
			Width:  valuePointer(dimensions.Width),
		}
	}

	return payload, nil
}

// Price builds the price payload. Tiered prices are unsupported. unit_amount wins over
// unit_amount_decimal, and a custom amount replaces both.
func (transformer *Transformer) Price(record billing.Price) (billing.PriceCreateParams, error) {
	if len(record.Tiers) > 0 || record.TiersMode != nil || (record.BillingScheme != nil && *record.BillingScheme == billingSchemeTieredConstant) {
		return billing.PriceCreateParams{}, UnsupportedError{Kind: billing.ResourceKindPrice, SourceID: record.ID, Reason: tieredPricingReasonConstant}
	}

	payload := billing.PriceCreateParams{
		Currency:      record.Currency,
		Product:       transformer.remap(billing.ResourceKindProduct, record.Product.ID),
		Active:        keepWhenSet(record.Active),
		BillingScheme: keepWhenNonZero(record.BillingScheme),
		LookupKey:     keepWhenNonZero(record.LookupKey),
		Metadata:      transformer.tracedMetadata(billing.ResourceKindPrice, record.ID, record.Metadata),
		Nickname:      keepWhenNonZero(record.Nickname),
		TaxBehavior:   keepWhenNonZero(record.TaxBehavior),
	}

	switch {
	case record.CustomUnitAmount != nil:
		payload.CustomUnitAmount = customUnitAmountParams(record.CustomUnitAmount)
	case record.UnitAmount != nil:
		payload.UnitAmount = keepWhenSet(record.UnitAmount)
	case record.UnitAmountDecimal != nil && len(*record.UnitAmountDecimal) > 0:
		payload.UnitAmountDecimal = keepWhenSet(record.UnitAmountDecimal)
	default:
		return billing.PriceCreateParams{}, UnsupportedError{Kind: billing.ResourceKindPrice, SourceID: record.ID, Reason: missingPriceAmountReasonConstant}
	}

	if recurring := record.Recurring; recurring != nil {
		payload.Recurring = &billing.RecurringParams{
			Interval:        recurring.Interval,
			IntervalCount:   keepWhenNonZero(recurring.IntervalCount),
			AggregateUsage:  keepWhenNonZero(recurring.AggregateUsage),
			UsageType:       keepWhenNonZero(recurring.UsageType),
			TrialPeriodDays: keepWhenNonZero(recurring.TrialPeriodDays),
		}
	}

	if quantity := record.TransformQuantity; quantity != nil && quantity.DivideBy > 0 {
		payload.TransformQuantity = &billing.TransformQuantityParams{
			DivideBy: valuePointer(quantity.DivideBy),
			Round:    keepText(quantity.Round),
		}
	}

	for currencyCode, option := range record.CurrencyOptions {
		if currencyCode == record.Currency {
			continue
		}
		optionParams := &billing.PriceCurrencyOptionParams{TaxBehavior: keepWhenNonZero(option.TaxBehavior)}
		switch {
		case option.CustomUnitAmount != nil:
			optionParams.CustomUnitAmount = customUnitAmountParams(option.CustomUnitAmount)
		case option.UnitAmount != nil:
			optionParams.UnitAmount = keepWhenSet(option.UnitAmount)
		case option.UnitAmountDecimal != nil && len(*option.UnitAmountDecimal) > 0:
			optionParams.UnitAmountDecimal = keepWhenSet(option.UnitAmountDecimal)
		default:
			continue
		}
		if payload.CurrencyOptions == nil {
			payload.CurrencyOptions = map[string]*billing.PriceCurrencyOptionParams{}
		}
		payload.CurrencyOptions[currencyCode] = optionParams
	}

	return payload, nil
}

func customUnitAmountParams(amount *billing.CustomUnitAmount) *billing.CustomUnitAmountParams {
	return &billing.CustomUnitAmountParams{
		Enabled: valuePointer(true),
		Maximum: keepWhenNonZero(amount.Maximum),
		Minimum: keepWhenNonZero(amount.Minimum),
		Preset:  keepWhenNonZero(amount.Preset),
	}
}

// Coupon builds the coupon payload. Coupon identifiers are reused verbatim. amount_off
// wins over percent_off and always travels with its currency.
func (transformer *Transformer) Coupon(record billing.Coupon) (billing.CouponCreateParams, error) {
	payload := billing.CouponCreateParams{
		ID:             keepText(record.ID),
		Duration:       keepText(record.Duration),
		MaxRedemptions: keepWhenNonZero(record.MaxRedemptions),
		Metadata:       keepMetadata(record.Metadata),
		Name:           keepWhenNonZero(record.Name),
		RedeemBy:       keepWhenNonZero(record.RedeemBy),
	}

	switch {
	case record.AmountOff != nil:
		currency := keepWhenNonZero(record.Currency)
		if currency == nil {
			return billing.CouponCreateParams{}, UnsupportedError{Kind: billing.ResourceKindCoupon, SourceID: record.ID, Reason: missingCurrencyReasonConstant}
		}
		payload.AmountOff = keepWhenSet(record.AmountOff)
		payload.Currency = currency
		for currencyCode, option := range record.CurrencyOptions {
			if option.AmountOff == nil || currencyCode == *currency {
				continue
			}
			if payload.CurrencyOptions == nil {
				payload.CurrencyOptions = map[string]*billing.CouponCurrencyOptionParams{}
			}
			payload.CurrencyOptions[currencyCode] = &billing.CouponCurrencyOptionParams{AmountOff: keepWhenSet(option.AmountOff)}
		}
	case record.PercentOff != nil:
		payload.PercentOff = keepWhenSet(record.PercentOff)
	default:
		return billing.CouponCreateParams{}, UnsupportedError{Kind: billing.ResourceKindCoupon, SourceID: record.ID, Reason: missingDiscountReasonConstant}
	}

	if record.Duration == couponDurationRepeatingConstant {
		payload.DurationInMonths = keepWhenNonZero(record.DurationInMonths)
	}

	if appliesTo := record.AppliesTo; appliesTo != nil && len(appliesTo.Products) > 0 {
		products := make([]string, 0, len(appliesTo.Products))
		for _, productIdentifier := range appliesTo.Products {
			products = append(products, transformer.remap(billing.ResourceKindProduct, productIdentifier))
		}
		payload.AppliesTo = &billing.CouponAppliesToParams{Products: products}
	}

	return payload, nil
}

// PromotionCode builds the promotion code payload. The coupon reference is remapped.
func (transformer *Transformer) PromotionCode(record billing.PromotionCode) (billing.PromotionCodeCreateParams, error) {
	payload := billing.PromotionCodeCreateParams{
		Coupon:         transformer.remap(billing.ResourceKindCoupon, record.Coupon.ID),
		Active:         keepWhenSet(record.Active),
		Code:           keepText(record.Code),
		Customer:       transformer.remapReference(billing.ResourceKindCustomer, record.Customer),
		MaxRedemptions: keepWhenNonZero(record.MaxRedemptions),
		ExpiresAt:      keepWhenNonZero(record.ExpiresAt),
		Metadata:       transformer.tracedMetadata(billing.ResourceKindPromotionCode, record.ID, record.Metadata),
	}

	if restrictions := record.Restrictions; restrictions != nil {
		restrictionParams := &billing.PromotionCodeRestrictionsParams{
			FirstTimeTransaction: keepWhenSet(restrictions.FirstTimeTransaction),
		}
		minimumAmount := keepWhenNonZero(restrictions.MinimumAmount)
		minimumCurrency := keepWhenNonZero(restrictions.MinimumAmountCurrency)
		if minimumAmount != nil && minimumCurrency != nil {
			restrictionParams.MinimumAmount = minimumAmount
			restrictionParams.MinimumAmountCurrency = minimumCurrency
			for currencyCode, option := range restrictions.CurrencyOptions {
				if option.MinimumAmount == nil || currencyCode == *minimumCurrency {
					continue
				}
				if restrictionParams.CurrencyOptions == nil {
					restrictionParams.CurrencyOptions = map[string]*billing.PromotionCodeCurrencyOptionParams{}
				}
				restrictionParams.CurrencyOptions[currencyCode] = &billing.PromotionCodeCurrencyOptionParams{MinimumAmount: keepWhenSet(option.MinimumAmount)}
			}
		}
		payload.Restrictions = restrictionParams
	}

	return payload, nil
}
