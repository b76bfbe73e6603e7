package billing

// Creation payloads. Every optional field is a pointer, slice, or map: a nil value
// is omitted from the request body and a non-nil value is always sent.

// ProductCreateParams creates a product.
type ProductCreateParams struct {
	ID                  *string                  `form:"id"`
	Name                string                   `form:"name"`
	Active              *bool                    `form:"active"`
	Description         *string                  `form:"description"`
	Features            []ProductFeatureParams   `form:"features"`
	Images              []string                 `form:"images"`
	Metadata            map[string]string        `form:"metadata"`
	PackageDimensions   *PackageDimensionsParams `form:"package_dimensions"`
	Shippable           *bool                    `form:"shippable"`
	StatementDescriptor *string                  `form:"statement_descriptor"`
	TaxCode             *string                  `form:"tax_code"`
	UnitLabel           *string                  `form:"unit_label"`
	URL                 *string                  `form:"url"`
}

// ProductFeatureParams is a product feature line.
type ProductFeatureParams struct {
	Name string `form:"name"`
}

// PackageDimensionsParams describes a shipping package.
type PackageDimensionsParams struct {
	Height *float64 `form:"height"`
	Length *float64 `form:"length"`
	Weight *float64 `form:"weight"`
	Width  *float64 `form:"width"`
}

// PriceCreateParams creates a price.
type PriceCreateParams struct {
	Currency          string                                `form:"currency"`
	Product           string                                `form:"product"`
	Active            *bool                                 `form:"active"`
	BillingScheme     *string                               `form:"billing_scheme"`
	CurrencyOptions   map[string]*PriceCurrencyOptionParams `form:"currency_options"`
	CustomUnitAmount  *CustomUnitAmountParams               `form:"custom_unit_amount"`
	LookupKey         *string                               `form:"lookup_key"`
	Metadata          map[string]string                     `form:"metadata"`
	Nickname          *string                               `form:"nickname"`
	Recurring         *RecurringParams                      `form:"recurring"`
	TaxBehavior       *string                               `form:"tax_behavior"`
	TransformQuantity *TransformQuantityParams              `form:"transform_quantity"`
	UnitAmount        *int64                                `form:"unit_amount"`
	UnitAmountDecimal *string                               `form:"unit_amount_decimal"`
}

// PriceCurrencyOptionParams is a per-currency price override.
type PriceCurrencyOptionParams struct {
	CustomUnitAmount  *CustomUnitAmountParams `form:"custom_unit_amount"`
	TaxBehavior       *string                 `form:"tax_behavior"`
	UnitAmount        *int64                  `form:"unit_amount"`
	UnitAmountDecimal *string                 `form:"unit_amount_decimal"`
}

// CustomUnitAmountParams enables a customer-chosen amount.
type CustomUnitAmountParams struct {
	Enabled *bool  `form:"enabled"`
	Maximum *int64 `form:"maximum"`
	Minimum *int64 `form:"minimum"`
	Preset  *int64 `form:"preset"`
}

// RecurringParams holds recurring terms.
type RecurringParams struct {
	Interval        string  `form:"interval"`
	IntervalCount   *int64  `form:"interval_count"`
	AggregateUsage  *string `form:"aggregate_usage"`
	UsageType       *string `form:"usage_type"`
	TrialPeriodDays *int64  `form:"trial_period_days"`
}

// TransformQuantityParams buckets quantities before billing.
type TransformQuantityParams struct {
	DivideBy *int64  `form:"divide_by"`
	Round    *string `form:"round"`
}

// CouponCreateParams creates a coupon.
type CouponCreateParams struct {
	ID               *string                                `form:"id"`
	AmountOff        *int64                                 `form:"amount_off"`
	AppliesTo        *CouponAppliesToParams                 `form:"applies_to"`
	Currency         *string                                `form:"currency"`
	CurrencyOptions  map[string]*CouponCurrencyOptionParams `form:"currency_options"`
	Duration         *string                                `form:"duration"`
	DurationInMonths *int64                                 `form:"duration_in_months"`
	MaxRedemptions   *int64                                 `form:"max_redemptions"`
	Metadata         map[string]string                      `form:"metadata"`
	Name             *string                                `form:"name"`
	PercentOff       *float64                               `form:"percent_off"`
	RedeemBy         *int64                                 `form:"redeem_by"`
}

// CouponAppliesToParams restricts a coupon to products.
type CouponAppliesToParams struct {
	Products []string `form:"products"`
}

// CouponCurrencyOptionParams is a per-currency amount override.
type CouponCurrencyOptionParams struct {
	AmountOff *int64 `form:"amount_off"`
}

// PromotionCodeCreateParams creates a promotion code.
type PromotionCodeCreateParams struct {
	Coupon         string                           `form:"coupon"`
	Active         *bool                            `form:"active"`
	Code           *string                          `form:"code"`
	Customer       *string                          `form:"customer"`
	ExpiresAt      *int64                           `form:"expires_at"`
	MaxRedemptions *int64                           `form:"max_redemptions"`
	Metadata       map[string]string                `form:"metadata"`
	Restrictions   *PromotionCodeRestrictionsParams `form:"restrictions"`
}

// PromotionCodeRestrictionsParams limits when a promotion code applies.
type PromotionCodeRestrictionsParams struct {
	CurrencyOptions       map[string]*PromotionCodeCurrencyOptionParams `form:"currency_options"`
	FirstTimeTransaction  *bool                                         `form:"first_time_transaction"`
	MinimumAmount         *int64                                        `form:"minimum_amount"`
	MinimumAmountCurrency *string                                       `form:"minimum_amount_currency"`
}

// PromotionCodeCurrencyOptionParams is a per-currency minimum amount.
type PromotionCodeCurrencyOptionParams struct {
	MinimumAmount *int64 `form:"minimum_amount"`
}

// PaymentLinkCreateParams creates a payment link.
type PaymentLinkCreateParams struct {
	LineItems                 []PaymentLinkLineItemParams      `form:"line_items"`
	AfterCompletion           *AfterCompletionParams           `form:"after_completion"`
	AllowPromotionCodes       *bool                            `form:"allow_promotion_codes"`
	AutomaticTax              *AutomaticTaxParams              `form:"automatic_tax"`
	BillingAddressCollection  *string                          `form:"billing_address_collection"`
	ConsentCollection         *ConsentCollectionParams         `form:"consent_collection"`
	Currency                  *string                          `form:"currency"`
	CustomFields              []CustomFieldParams              `form:"custom_fields"`
	CustomText                *CustomTextParams                `form:"custom_text"`
	CustomerCreation          *string                          `form:"customer_creation"`
	InactiveMessage           *string                          `form:"inactive_message"`
	InvoiceCreation           *ToggleParams                    `form:"invoice_creation"`
	Metadata                  map[string]string                `form:"metadata"`
	PaymentMethodCollection   *string                          `form:"payment_method_collection"`
	PaymentMethodTypes        []string                         `form:"payment_method_types"`
	PhoneNumberCollection     *ToggleParams                    `form:"phone_number_collection"`
	Restrictions              *PaymentLinkRestrictionsParams   `form:"restrictions"`
	ShippingAddressCollection *ShippingAddressCollectionParams `form:"shipping_address_collection"`
	SubmitType                *string                          `form:"submit_type"`
	TaxIDCollection           *ToggleParams                    `form:"tax_id_collection"`
}

// PaymentLinkLineItemParams is a payment link line item.
type PaymentLinkLineItemParams struct {
	Price              string                    `form:"price"`
	Quantity           *int64                    `form:"quantity"`
	AdjustableQuantity *AdjustableQuantityParams `form:"adjustable_quantity"`
}

// AdjustableQuantityParams lets customers change a quantity.
type AdjustableQuantityParams struct {
	Enabled *bool  `form:"enabled"`
	Maximum *int64 `form:"maximum"`
	Minimum *int64 `form:"minimum"`
}

// AfterCompletionParams describes post-checkout behaviour.
type AfterCompletionParams struct {
	Type               string                    `form:"type"`
	HostedConfirmation *HostedConfirmationParams `form:"hosted_confirmation"`
	Redirect           *RedirectParams           `form:"redirect"`
}

// HostedConfirmationParams carries the confirmation message.
type HostedConfirmationParams struct {
	CustomMessage *string `form:"custom_message"`
}

// RedirectParams carries the redirect target.
type RedirectParams struct {
	URL string `form:"url"`
}

// AutomaticTaxParams enables automatic tax.
type AutomaticTaxParams struct {
	Enabled *bool `form:"enabled"`
}

// ToggleParams carries a single enabled flag.
type ToggleParams struct {
	Enabled *bool `form:"enabled"`
}

// ConsentCollectionParams lists checkout consents.
type ConsentCollectionParams struct {
	PaymentMethodReuseAgreement *PaymentMethodReuseAgreementParams `form:"payment_method_reuse_agreement"`
	Promotions                  *string                            `form:"promotions"`
	TermsOfService              *string                            `form:"terms_of_service"`
}

// PaymentMethodReuseAgreementParams positions the reuse agreement.
type PaymentMethodReuseAgreementParams struct {
	Position string `form:"position"`
}

// CustomFieldParams is a checkout custom field.
type CustomFieldParams struct {
	Key      string                     `form:"key"`
	Type     string                     `form:"type"`
	Label    CustomFieldLabelParams     `form:"label"`
	Optional *bool                      `form:"optional"`
	Dropdown *CustomFieldDropdownParams `form:"dropdown"`
	Numeric  *CustomFieldLengthParams   `form:"numeric"`
	Text     *CustomFieldLengthParams   `form:"text"`
}

// CustomFieldLabelParams labels a custom field.
type CustomFieldLabelParams struct {
	Custom string `form:"custom"`
	Type   string `form:"type"`
}

// CustomFieldDropdownParams lists dropdown choices.
type CustomFieldDropdownParams struct {
	Options []CustomFieldOptionParams `form:"options"`
}

// CustomFieldOptionParams is a dropdown choice.
type CustomFieldOptionParams struct {
	Label string `form:"label"`
	Value string `form:"value"`
}

// CustomFieldLengthParams bounds a field length.
type CustomFieldLengthParams struct {
	MaximumLength *int64 `form:"maximum_length"`
	MinimumLength *int64 `form:"minimum_length"`
}

// CustomTextParams holds checkout copy.
type CustomTextParams struct {
	AfterSubmit              *CustomTextMessageParams `form:"after_submit"`
	ShippingAddress          *CustomTextMessageParams `form:"shipping_address"`
	Submit                   *CustomTextMessageParams `form:"submit"`
	TermsOfServiceAcceptance *CustomTextMessageParams `form:"terms_of_service_acceptance"`
}

// CustomTextMessageParams is a checkout message.
type CustomTextMessageParams struct {
	Message string `form:"message"`
}

// PaymentLinkRestrictionsParams caps completed sessions.
type PaymentLinkRestrictionsParams struct {
	CompletedSessions *CompletedSessionsParams `form:"completed_sessions"`
}

// CompletedSessionsParams is the completed session limit.
type CompletedSessionsParams struct {
	Limit int64 `form:"limit"`
}

// ShippingAddressCollectionParams lists shipping countries.
type ShippingAddressCollectionParams struct {
	AllowedCountries []string `form:"allowed_countries"`
}

// SubscriptionCreateParams creates a subscription.
type SubscriptionCreateParams struct {
	Customer                   string                            `form:"customer"`
	Items                      []SubscriptionItemParams          `form:"items"`
	AutomaticTax               *AutomaticTaxParams               `form:"automatic_tax"`
	BillingCycleAnchor         *int64                            `form:"billing_cycle_anchor"`
	BillingCycleAnchorConfig   *BillingCycleAnchorConfigParams   `form:"billing_cycle_anchor_config"`
	CancelAt                   *int64                            `form:"cancel_at"`
	CancelAtPeriodEnd          *bool                             `form:"cancel_at_period_end"`
	CollectionMethod           *string                           `form:"collection_method"`
	Coupon                     *string                           `form:"coupon"`
	Currency                   *string                           `form:"currency"`
	DaysUntilDue               *int64                            `form:"days_until_due"`
	DefaultPaymentMethod       *string                           `form:"default_payment_method"`
	DefaultSource              *string                           `form:"default_source"`
	DefaultTaxRates            []string                          `form:"default_tax_rates"`
	Description                *string                           `form:"description"`
	Metadata                   map[string]string                 `form:"metadata"`
	PaymentBehavior            *string                           `form:"payment_behavior"`
	PaymentSettings            *PaymentSettingsParams            `form:"payment_settings"`
	PendingInvoiceItemInterval *PendingInvoiceItemIntervalParams `form:"pending_invoice_item_interval"`
	TrialEnd                   *int64                            `form:"trial_end"`
	TrialSettings              *TrialSettingsParams              `form:"trial_settings"`
}

// SubscriptionItemParams is a subscription line.
type SubscriptionItemParams struct {
	BillingThresholds *BillingThresholdsParams `form:"billing_thresholds"`
	Metadata          map[string]string        `form:"metadata"`
	Price             *string                  `form:"price"`
	Quantity          *int64                   `form:"quantity"`
	TaxRates          []string                 `form:"tax_rates"`
}

// BillingThresholdsParams triggers invoicing on usage.
type BillingThresholdsParams struct {
	UsageGTE *int64 `form:"usage_gte"`
}

// BillingCycleAnchorConfigParams pins the billing anchor.
type BillingCycleAnchorConfigParams struct {
	DayOfMonth int64  `form:"day_of_month"`
	Hour       *int64 `form:"hour"`
	Minute     *int64 `form:"minute"`
	Month      *int64 `form:"month"`
	Second     *int64 `form:"second"`
}

// PaymentSettingsParams configures invoice payment.
type PaymentSettingsParams struct {
	PaymentMethodOptions     *PaymentMethodOptionsParams `form:"payment_method_options"`
	PaymentMethodTypes       []string                    `form:"payment_method_types"`
	SaveDefaultPaymentMethod *string                     `form:"save_default_payment_method"`
}

// PaymentMethodOptionsParams holds per-method options.
type PaymentMethodOptionsParams struct {
	Card            *CardOptionsParams            `form:"card"`
	CustomerBalance *CustomerBalanceOptionsParams `form:"customer_balance"`
	USBankAccount   *VerificationOptionsParams    `form:"us_bank_account"`
	ACSSDebit       *VerificationOptionsParams    `form:"acss_debit"`
}

// CardOptionsParams holds card options.
type CardOptionsParams struct {
	Network             *string `form:"network"`
	RequestThreeDSecure *string `form:"request_three_d_secure"`
}

// CustomerBalanceOptionsParams holds customer balance options.
type CustomerBalanceOptionsParams struct {
	BankTransfer *BankTransferParams `form:"bank_transfer"`
	FundingType  *string             `form:"funding_type"`
}

// BankTransferParams selects a bank transfer type.
type BankTransferParams struct {
	Type *string `form:"type"`
}

// VerificationOptionsParams selects a verification method.
type VerificationOptionsParams struct {
	VerificationMethod *string `form:"verification_method"`
}

// PendingInvoiceItemIntervalParams schedules pending item invoicing.
type PendingInvoiceItemIntervalParams struct {
	Interval      string `form:"interval"`
	IntervalCount *int64 `form:"interval_count"`
}

// TrialSettingsParams controls trial end behaviour.
type TrialSettingsParams struct {
	EndBehavior *TrialEndBehaviorParams `form:"end_behavior"`
}

// TrialEndBehaviorParams decides the outcome without a payment method.
type TrialEndBehaviorParams struct {
	MissingPaymentMethod string `form:"missing_payment_method"`
}

// SubscriptionScheduleCreateParams creates a subscription schedule.
type SubscriptionScheduleCreateParams struct {
	Customer    string                `form:"customer"`
	StartDate   *int64                `form:"start_date"`
	EndBehavior *string               `form:"end_behavior"`
	Metadata    map[string]string     `form:"metadata"`
	Phases      []SchedulePhaseParams `form:"phases"`
}

// SchedulePhaseParams is a schedule phase.
type SchedulePhaseParams struct {
	Items             []SchedulePhaseItemParams `form:"items"`
	EndDate           *int64                    `form:"end_date"`
	Coupon            *string                   `form:"coupon"`
	CollectionMethod  *string                   `form:"collection_method"`
	DefaultTaxRates   []string                  `form:"default_tax_rates"`
	Metadata          map[string]string         `form:"metadata"`
	ProrationBehavior *string                   `form:"proration_behavior"`
	TrialEnd          *int64                    `form:"trial_end"`
}

// SchedulePhaseItemParams is a schedule phase line.
type SchedulePhaseItemParams struct {
	Price    string   `form:"price"`
	Quantity *int64   `form:"quantity"`
	TaxRates []string `form:"tax_rates"`
}

// SubscriptionPauseParams pauses invoice collection of a source subscription.
type SubscriptionPauseParams struct {
	PauseCollection *PauseCollectionParams `form:"pause_collection"`
}

// PauseCollectionParams pauses invoice collection.
type PauseCollectionParams struct {
	Behavior  string `form:"behavior"`
	ResumesAt *int64 `form:"resumes_at"`
}

// SubscriptionResumeParams clears the pause state. The pointer is set to an empty
// string so the request carries an explicit empty pause_collection value.
type SubscriptionResumeParams struct {
	PauseCollection *string `form:"pause_collection"`
}
