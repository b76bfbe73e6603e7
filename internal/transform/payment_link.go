package transform

import (
	"fmt"

	"github.com/temirov/billmigrate/internal/billing"
)

const defaultLineItemQuantityConstant int64 = 1

// PaymentLink builds the payment link payload. Every line item price is remapped and a
// missing quantity defaults to one, since the destination requires it.
func (transformer *Transformer) PaymentLink(record billing.PaymentLink) (billing.PaymentLinkCreateParams, error) {
	if record.LineItems == nil || len(record.LineItems.Data) == 0 {
		return billing.PaymentLinkCreateParams{}, UnsupportedError{Kind: billing.ResourceKindPaymentLink, SourceID: record.ID, Reason: missingLineItemsReasonConstant}
	}
	if record.LineItems.HasMore {
		return billing.PaymentLinkCreateParams{}, UnsupportedError{Kind: billing.ResourceKindPaymentLink, SourceID: record.ID, Reason: truncatedLineItemsReasonConstant}
	}

	payload := billing.PaymentLinkCreateParams{
		AllowPromotionCodes:      keepTrue(record.AllowPromotionCodes),
		BillingAddressCollection: keepWhenNonZero(record.BillingAddressCollection),
		Currency:                 keepWhenNonZero(record.Currency),
		CustomerCreation:         keepWhenNonZero(record.CustomerCreation),
		InactiveMessage:          keepWhenNonZero(record.InactiveMessage),
		Metadata:                 transformer.tracedMetadata(billing.ResourceKindPaymentLink, record.ID, record.Metadata),
		PaymentMethodCollection:  keepWhenNonZero(record.PaymentMethodCollection),
		PaymentMethodTypes:       keepStrings(record.PaymentMethodTypes),
		SubmitType:               keepWhenNonZero(record.SubmitType),
		AutomaticTax:             enabledAutomaticTax(record.AutomaticTax),
		InvoiceCreation:          enabledToggle(record.InvoiceCreation),
		PhoneNumberCollection:    enabledToggle(record.PhoneNumberCollection),
		TaxIDCollection:          enabledToggle(record.TaxIDCollection),
	}

	for _, lineItem := range record.LineItems.Data {
		priceIdentifier := billing.ReferenceID(lineItem.Price)
		if len(priceIdentifier) == 0 {
			return billing.PaymentLinkCreateParams{}, UnsupportedError{
				Kind:     billing.ResourceKindPaymentLink,
				SourceID: record.ID,
				Reason:   fmt.Sprintf(missingLineItemPriceTemplateConstant, lineItem.ID),
			}
		}
		lineItemParams := billing.PaymentLinkLineItemParams{
			Price:    transformer.remap(billing.ResourceKindPrice, priceIdentifier),
			Quantity: keepWhenNonZero(lineItem.Quantity),
		}
		if lineItemParams.Quantity == nil {
			lineItemParams.Quantity = valuePointer(defaultLineItemQuantityConstant)
		}
		if adjustable := lineItem.AdjustableQuantity; adjustable != nil && adjustable.Enabled {
			lineItemParams.AdjustableQuantity = &billing.AdjustableQuantityParams{
				Enabled: valuePointer(true),
				Maximum: keepWhenNonZero(adjustable.Maximum),
				Minimum: keepWhenNonZero(adjustable.Minimum),
			}
		}
		payload.LineItems = append(payload.LineItems, lineItemParams)
	}

	if afterCompletion := record.AfterCompletion; afterCompletion != nil && len(afterCompletion.Type) > 0 {
		afterCompletionParams := &billing.AfterCompletionParams{Type: afterCompletion.Type}
		if confirmation := afterCompletion.HostedConfirmation; confirmation != nil && confirmation.CustomMessage != nil && len(*confirmation.CustomMessage) > 0 {
			afterCompletionParams.HostedConfirmation = &billing.HostedConfirmationParams{CustomMessage: keepWhenSet(confirmation.CustomMessage)}
		}
		if redirect := afterCompletion.Redirect; redirect != nil && len(redirect.URL) > 0 {
			afterCompletionParams.Redirect = &billing.RedirectParams{URL: redirect.URL}
		}
		payload.AfterCompletion = afterCompletionParams
	}

	if consent := record.ConsentCollection; consent != nil {
		consentParams := &billing.ConsentCollectionParams{
			Promotions:     keepWhenNonZero(consent.Promotions),
			TermsOfService: keepWhenNonZero(consent.TermsOfService),
		}
		if agreement := consent.PaymentMethodReuseAgreement; agreement != nil && len(agreement.Position) > 0 {
			consentParams.PaymentMethodReuseAgreement = &billing.PaymentMethodReuseAgreementParams{Position: agreement.Position}
		}
		if consentParams.Promotions != nil || consentParams.TermsOfService != nil || consentParams.PaymentMethodReuseAgreement != nil {
			payload.ConsentCollection = consentParams
		}
	}

	for _, customField := range record.CustomFields {
		payload.CustomFields = append(payload.CustomFields, customFieldParams(customField))
	}

	if customText := record.CustomText; customText != nil {
		customTextParams := &billing.CustomTextParams{
			AfterSubmit:              customTextMessage(customText.AfterSubmit),
			ShippingAddress:          customTextMessage(customText.ShippingAddress),
			Submit:                   customTextMessage(customText.Submit),
			TermsOfServiceAcceptance: customTextMessage(customText.TermsOfServiceAcceptance),
		}
		if customTextParams.AfterSubmit != nil || customTextParams.ShippingAddress != nil || customTextParams.Submit != nil || customTextParams.TermsOfServiceAcceptance != nil {
			payload.CustomText = customTextParams
		}
	}

	if restrictions := record.Restrictions; restrictions != nil && restrictions.CompletedSessions != nil && restrictions.CompletedSessions.Limit > 0 {
		payload.Restrictions = &billing.PaymentLinkRestrictionsParams{
			CompletedSessions: &billing.CompletedSessionsParams{Limit: restrictions.CompletedSessions.Limit},
		}
	}

	if shipping := record.ShippingAddressCollection; shipping != nil && len(shipping.AllowedCountries) > 0 {
		payload.ShippingAddressCollection = &billing.ShippingAddressCollectionParams{AllowedCountries: keepStrings(shipping.AllowedCountries)}
	}

	return payload, nil
}

// customFieldParams rebuilds a custom field. Length bounds are kept independently so a
// minimum never overwrites a maximum.
func customFieldParams(customField billing.CustomField) billing.CustomFieldParams {
	params := billing.CustomFieldParams{
		Key:      customField.Key,
		Type:     customField.Type,
		Optional: keepWhenSet(customField.Optional),
		Numeric:  customFieldLength(customField.Numeric),
		Text:     customFieldLength(customField.Text),
		Label: billing.CustomFieldLabelParams{
			Type: customField.Label.Type,
		},
	}
	if customField.Label.Custom != nil {
		params.Label.Custom = *customField.Label.Custom
	}
	if dropdown := customField.Dropdown; dropdown != nil && len(dropdown.Options) > 0 {
		dropdownParams := &billing.CustomFieldDropdownParams{}
		for _, option := range dropdown.Options {
			dropdownParams.Options = append(dropdownParams.Options, billing.CustomFieldOptionParams{Label: option.Label, Value: option.Value})
		}
		params.Dropdown = dropdownParams
	}
	return params
}

func customFieldLength(length *billing.CustomFieldLength) *billing.CustomFieldLengthParams {
	if length == nil {
		return nil
	}
	params := &billing.CustomFieldLengthParams{
		MaximumLength: keepWhenNonZero(length.MaximumLength),
		MinimumLength: keepWhenNonZero(length.MinimumLength),
	}
	if params.MaximumLength == nil && params.MinimumLength == nil {
		return nil
	}
	return params
}

func customTextMessage(message *billing.CustomTextMessage) *billing.CustomTextMessageParams {
	if message == nil || len(message.Message) == 0 {
		return nil
	}
	return &billing.CustomTextMessageParams{Message: message.Message}
}

func enabledAutomaticTax(automaticTax *billing.AutomaticTax) *billing.AutomaticTaxParams {
	if automaticTax == nil || !automaticTax.Enabled {
		return nil
	}
	return &billing.AutomaticTaxParams{Enabled: valuePointer(true)}
}

func enabledToggle(toggle *billing.Toggle) *billing.ToggleParams {
	if toggle == nil || !toggle.Enabled {
		return nil
	}
	return &billing.ToggleParams{Enabled: valuePointer(true)}
}
