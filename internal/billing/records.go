package billing

// List is the envelope the platform uses for embedded collections such as subscription items.
type List[T any] struct {
	Data    []T  `json:"data"`
	HasMore bool `json:"has_more"`
}

// AutomaticTax mirrors the automatic tax toggle shared by several resources.
type AutomaticTax struct {
	Enabled bool `json:"enabled"`
}

// Product is a source product record.
type Product struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Active              *bool              `json:"active"`
	Description         *string            `json:"description"`
	Images              []string           `json:"images"`
	Metadata            map[string]string  `json:"metadata"`
	Features            []ProductFeature   `json:"features"`
	PackageDimensions   *PackageDimensions `json:"package_dimensions"`
	Shippable           *bool              `json:"shippable"`
	StatementDescriptor *string            `json:"statement_descriptor"`
	TaxCode             *Reference         `json:"tax_code"`
	UnitLabel           *string            `json:"unit_label"`
	URL                 *string            `json:"url"`
	Created             int64              `json:"created"`
}

// ProductFeature is a marketing feature line of a product.
type ProductFeature struct {
	Name *string `json:"name"`
}

// PackageDimensions describes the shipping package of a product.
type PackageDimensions struct {
	Height float64 `json:"height"`
	Length float64 `json:"length"`
	Weight float64 `json:"weight"`
	Width  float64 `json:"width"`
}

// Price is a source price record.
type Price struct {
	ID                string                         `json:"id"`
	Active            *bool                          `json:"active"`
	BillingScheme     *string                        `json:"billing_scheme"`
	Currency          string                         `json:"currency"`
	CurrencyOptions   map[string]PriceCurrencyOption `json:"currency_options"`
	CustomUnitAmount  *CustomUnitAmount              `json:"custom_unit_amount"`
	LookupKey         *string                        `json:"lookup_key"`
	Metadata          map[string]string              `json:"metadata"`
	Nickname          *string                        `json:"nickname"`
	Product           Reference                      `json:"product"`
	Recurring         *Recurring                     `json:"recurring"`
	TaxBehavior       *string                        `json:"tax_behavior"`
	Tiers             []PriceTier                    `json:"tiers"`
	TiersMode         *string                        `json:"tiers_mode"`
	TransformQuantity *TransformQuantity             `json:"transform_quantity"`
	Type              string                         `json:"type"`
	UnitAmount        *int64                         `json:"unit_amount"`
	UnitAmountDecimal *string                        `json:"unit_amount_decimal"`
}

// PriceCurrencyOption is a per-currency override of a price.
type PriceCurrencyOption struct {
	CustomUnitAmount  *CustomUnitAmount `json:"custom_unit_amount"`
	TaxBehavior       *string           `json:"tax_behavior"`
	UnitAmount        *int64            `json:"unit_amount"`
	UnitAmountDecimal *string           `json:"unit_amount_decimal"`
}

// CustomUnitAmount describes a customer-chosen amount.
type CustomUnitAmount struct {
	Maximum *int64 `json:"maximum"`
	Minimum *int64 `json:"minimum"`
	Preset  *int64 `json:"preset"`
}

// Recurring holds the recurring terms of a price.
type Recurring struct {
	Interval        string  `json:"interval"`
	IntervalCount   *int64  `json:"interval_count"`
	AggregateUsage  *string `json:"aggregate_usage"`
	UsageType       *string `json:"usage_type"`
	TrialPeriodDays *int64  `json:"trial_period_days"`
}

// PriceTier is one tier of a tiered price. Tiered prices are not migrated.
type PriceTier struct {
	FlatAmount *int64 `json:"flat_amount"`
	UnitAmount *int64 `json:"unit_amount"`
	UpTo       *int64 `json:"up_to"`
}

// TransformQuantity describes quantity bucketing before billing.
type TransformQuantity struct {
	DivideBy int64  `json:"divide_by"`
	Round    string `json:"round"`
}

// Coupon is a source coupon record.
type Coupon struct {
	ID               string                          `json:"id"`
	AmountOff        *int64                          `json:"amount_off"`
	AppliesTo        *CouponAppliesTo                `json:"applies_to"`
	Currency         *string                         `json:"currency"`
	CurrencyOptions  map[string]CouponCurrencyOption `json:"currency_options"`
	Duration         string                          `json:"duration"`
	DurationInMonths *int64                          `json:"duration_in_months"`
	MaxRedemptions   *int64                          `json:"max_redemptions"`
	Metadata         map[string]string               `json:"metadata"`
	Name             *string                         `json:"name"`
	PercentOff       *float64                        `json:"percent_off"`
	RedeemBy         *int64                          `json:"redeem_by"`
	Valid            *bool                           `json:"valid"`
}

// CouponAppliesTo restricts a coupon to specific products.
type CouponAppliesTo struct {
	Products []string `json:"products"`
}

// CouponCurrencyOption is a per-currency amount override.
type CouponCurrencyOption struct {
	AmountOff *int64 `json:"amount_off"`
}

// PromotionCode is a source promotion code record.
type PromotionCode struct {
	ID             string                     `json:"id"`
	Active         *bool                      `json:"active"`
	Code           string                     `json:"code"`
	Coupon         Reference                  `json:"coupon"`
	Customer       *Reference                 `json:"customer"`
	ExpiresAt      *int64                     `json:"expires_at"`
	MaxRedemptions *int64                     `json:"max_redemptions"`
	Metadata       map[string]string          `json:"metadata"`
	Restrictions   *PromotionCodeRestrictions `json:"restrictions"`
}

// PromotionCodeRestrictions limits when a promotion code applies.
type PromotionCodeRestrictions struct {
	CurrencyOptions       map[string]PromotionCodeCurrencyOption `json:"currency_options"`
	FirstTimeTransaction  *bool                                  `json:"first_time_transaction"`
	MinimumAmount         *int64                                 `json:"minimum_amount"`
	MinimumAmountCurrency *string                                `json:"minimum_amount_currency"`
}

// PromotionCodeCurrencyOption is a per-currency minimum amount.
type PromotionCodeCurrencyOption struct {
	MinimumAmount *int64 `json:"minimum_amount"`
}

// PaymentLinkLineItemsExpansion is the list expansion that inlines payment link line
// items. The platform omits them from list responses otherwise.
const PaymentLinkLineItemsExpansion = "data.line_items"

// PaymentLink is a source payment link record. LineItems is only populated when the list
// request expands PaymentLinkLineItemsExpansion.
type PaymentLink struct {
	ID                        string                     `json:"id"`
	Active                    *bool                      `json:"active"`
	AfterCompletion           *AfterCompletion           `json:"after_completion"`
	AllowPromotionCodes       *bool                      `json:"allow_promotion_codes"`
	AutomaticTax              *AutomaticTax              `json:"automatic_tax"`
	BillingAddressCollection  *string                    `json:"billing_address_collection"`
	ConsentCollection         *ConsentCollection         `json:"consent_collection"`
	Currency                  *string                    `json:"currency"`
	CustomFields              []CustomField              `json:"custom_fields"`
	CustomText                *CustomText                `json:"custom_text"`
	CustomerCreation          *string                    `json:"customer_creation"`
	InactiveMessage           *string                    `json:"inactive_message"`
	InvoiceCreation           *Toggle                    `json:"invoice_creation"`
	LineItems                 *List[PaymentLinkLineItem] `json:"line_items"`
	Metadata                  map[string]string          `json:"metadata"`
	PaymentMethodCollection   *string                    `json:"payment_method_collection"`
	PaymentMethodTypes        []string                   `json:"payment_method_types"`
	PhoneNumberCollection     *Toggle                    `json:"phone_number_collection"`
	Restrictions              *PaymentLinkRestrictions   `json:"restrictions"`
	ShippingAddressCollection *ShippingAddressCollection `json:"shipping_address_collection"`
	SubmitType                *string                    `json:"submit_type"`
	TaxIDCollection           *Toggle                    `json:"tax_id_collection"`
}

// Toggle is an object carrying a single enabled flag.
type Toggle struct {
	Enabled bool `json:"enabled"`
}

// AfterCompletion describes what happens after a payment link checkout.
type AfterCompletion struct {
	Type               string              `json:"type"`
	HostedConfirmation *HostedConfirmation `json:"hosted_confirmation"`
	Redirect           *Redirect           `json:"redirect"`
}

// HostedConfirmation carries the confirmation page message.
type HostedConfirmation struct {
	CustomMessage *string `json:"custom_message"`
}

// Redirect carries the post-checkout redirect target.
type Redirect struct {
	URL string `json:"url"`
}

// ConsentCollection lists the consents gathered at checkout.
type ConsentCollection struct {
	PaymentMethodReuseAgreement *PaymentMethodReuseAgreement `json:"payment_method_reuse_agreement"`
	Promotions                  *string                      `json:"promotions"`
	TermsOfService              *string                      `json:"terms_of_service"`
}

// PaymentMethodReuseAgreement positions the reuse agreement text.
type PaymentMethodReuseAgreement struct {
	Position string `json:"position"`
}

// CustomField is a checkout custom field.
type CustomField struct {
	Key      string               `json:"key"`
	Type     string               `json:"type"`
	Label    CustomFieldLabel     `json:"label"`
	Optional *bool                `json:"optional"`
	Dropdown *CustomFieldDropdown `json:"dropdown"`
	Numeric  *CustomFieldLength   `json:"numeric"`
	Text     *CustomFieldLength   `json:"text"`
}

// CustomFieldLabel is the label of a custom field.
type CustomFieldLabel struct {
	Custom *string `json:"custom"`
	Type   string  `json:"type"`
}

// CustomFieldDropdown lists dropdown choices.
type CustomFieldDropdown struct {
	Options []CustomFieldOption `json:"options"`
}

// CustomFieldOption is one dropdown choice.
type CustomFieldOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// CustomFieldLength bounds numeric and text custom fields.
type CustomFieldLength struct {
	MaximumLength *int64 `json:"maximum_length"`
	MinimumLength *int64 `json:"minimum_length"`
}

// CustomText holds optional checkout copy.
type CustomText struct {
	AfterSubmit              *CustomTextMessage `json:"after_submit"`
	ShippingAddress          *CustomTextMessage `json:"shipping_address"`
	Submit                   *CustomTextMessage `json:"submit"`
	TermsOfServiceAcceptance *CustomTextMessage `json:"terms_of_service_acceptance"`
}

// CustomTextMessage is a single checkout message.
type CustomTextMessage struct {
	Message string `json:"message"`
}

// PaymentLinkLineItem is a line item of a payment link.
type PaymentLinkLineItem struct {
	ID                 string              `json:"id"`
	Price              *Reference          `json:"price"`
	Quantity           *int64              `json:"quantity"`
	AdjustableQuantity *AdjustableQuantity `json:"adjustable_quantity"`
}

// AdjustableQuantity lets customers change a line item quantity.
type AdjustableQuantity struct {
	Enabled bool   `json:"enabled"`
	Maximum *int64 `json:"maximum"`
	Minimum *int64 `json:"minimum"`
}

// PaymentLinkRestrictions caps the number of completed sessions.
type PaymentLinkRestrictions struct {
	CompletedSessions *CompletedSessions `json:"completed_sessions"`
}

// CompletedSessions is the completed session limit.
type CompletedSessions struct {
	Limit int64 `json:"limit"`
}

// ShippingAddressCollection lists countries shipping is collected for.
type ShippingAddressCollection struct {
	AllowedCountries []string `json:"allowed_countries"`
}

// Subscription is a source subscription record.
type Subscription struct {
	ID                         string                      `json:"id"`
	Status                     string                      `json:"status"`
	Customer                   Reference                   `json:"customer"`
	AutomaticTax               *AutomaticTax               `json:"automatic_tax"`
	BillingCycleAnchor         *int64                      `json:"billing_cycle_anchor"`
	BillingCycleAnchorConfig   *BillingCycleAnchorConfig   `json:"billing_cycle_anchor_config"`
	CancelAt                   *int64                      `json:"cancel_at"`
	CancelAtPeriodEnd          *bool                       `json:"cancel_at_period_end"`
	CollectionMethod           *string                     `json:"collection_method"`
	Currency                   *string                     `json:"currency"`
	CurrentPeriodEnd           *int64                      `json:"current_period_end"`
	CurrentPeriodStart         *int64                      `json:"current_period_start"`
	DaysUntilDue               *int64                      `json:"days_until_due"`
	DefaultPaymentMethod       *Reference                  `json:"default_payment_method"`
	DefaultSource              *Reference                  `json:"default_source"`
	DefaultTaxRates            []Reference                 `json:"default_tax_rates"`
	Description                *string                     `json:"description"`
	Discount                   *Discount                   `json:"discount"`
	Items                      List[SubscriptionItem]      `json:"items"`
	Metadata                   map[string]string           `json:"metadata"`
	PauseCollection            *PauseCollection            `json:"pause_collection"`
	PaymentSettings            *PaymentSettings            `json:"payment_settings"`
	PendingInvoiceItemInterval *PendingInvoiceItemInterval `json:"pending_invoice_item_interval"`
	TrialEnd                   *int64                      `json:"trial_end"`
	TrialSettings              *TrialSettings              `json:"trial_settings"`
}

// SubscriptionItem is one line of a subscription.
type SubscriptionItem struct {
	ID                string             `json:"id"`
	BillingThresholds *BillingThresholds `json:"billing_thresholds"`
	Metadata          map[string]string  `json:"metadata"`
	Price             *Reference         `json:"price"`
	Quantity          *int64             `json:"quantity"`
	TaxRates          []Reference        `json:"tax_rates"`
}

// BillingThresholds triggers invoicing on usage.
type BillingThresholds struct {
	UsageGTE *int64 `json:"usage_gte"`
}

// BillingCycleAnchorConfig pins the billing anchor to a calendar position.
type BillingCycleAnchorConfig struct {
	DayOfMonth *int64 `json:"day_of_month"`
	Hour       *int64 `json:"hour"`
	Minute     *int64 `json:"minute"`
	Month      *int64 `json:"month"`
	Second     *int64 `json:"second"`
}

// Discount is the discount applied to a subscription.
type Discount struct {
	Coupon Reference `json:"coupon"`
}

// PauseCollection is the pause state of a subscription.
type PauseCollection struct {
	Behavior  string `json:"behavior"`
	ResumesAt *int64 `json:"resumes_at"`
}

// PaymentSettings configures how subscription invoices are paid.
type PaymentSettings struct {
	PaymentMethodOptions     *PaymentMethodOptions `json:"payment_method_options"`
	PaymentMethodTypes       []string              `json:"payment_method_types"`
	SaveDefaultPaymentMethod *string               `json:"save_default_payment_method"`
}

// PaymentMethodOptions holds per-method payment options.
type PaymentMethodOptions struct {
	Card            *CardOptions            `json:"card"`
	CustomerBalance *CustomerBalanceOptions `json:"customer_balance"`
	USBankAccount   *VerificationOptions    `json:"us_bank_account"`
	ACSSDebit       *VerificationOptions    `json:"acss_debit"`
}

// CardOptions holds card payment options.
type CardOptions struct {
	Network             *string `json:"network"`
	RequestThreeDSecure *string `json:"request_three_d_secure"`
}

// CustomerBalanceOptions holds customer balance payment options.
type CustomerBalanceOptions struct {
	BankTransfer *BankTransfer `json:"bank_transfer"`
	FundingType  *string       `json:"funding_type"`
}

// BankTransfer selects the bank transfer type.
type BankTransfer struct {
	Type *string `json:"type"`
}

// VerificationOptions holds the verification method of a debit payment method.
type VerificationOptions struct {
	VerificationMethod *string `json:"verification_method"`
}

// PendingInvoiceItemInterval schedules pending item invoicing.
type PendingInvoiceItemInterval struct {
	Interval      string `json:"interval"`
	IntervalCount *int64 `json:"interval_count"`
}

// TrialSettings controls what happens when a trial ends.
type TrialSettings struct {
	EndBehavior *TrialEndBehavior `json:"end_behavior"`
}

// TrialEndBehavior decides the outcome of a trial without payment method.
type TrialEndBehavior struct {
	MissingPaymentMethod string `json:"missing_payment_method"`
}

// SubscriptionSchedule is a source subscription schedule record.
type SubscriptionSchedule struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	Customer    Reference         `json:"customer"`
	EndBehavior *string           `json:"end_behavior"`
	Metadata    map[string]string `json:"metadata"`
	Phases      []SchedulePhase   `json:"phases"`
}

// SchedulePhase is one phase of a subscription schedule.
type SchedulePhase struct {
	StartDate         int64               `json:"start_date"`
	EndDate           *int64              `json:"end_date"`
	Coupon            *Reference          `json:"coupon"`
	CollectionMethod  *string             `json:"collection_method"`
	DefaultTaxRates   []Reference         `json:"default_tax_rates"`
	Items             []SchedulePhaseItem `json:"items"`
	Metadata          map[string]string   `json:"metadata"`
	ProrationBehavior *string             `json:"proration_behavior"`
	TrialEnd          *int64              `json:"trial_end"`
}

// SchedulePhaseItem is one line of a schedule phase.
type SchedulePhaseItem struct {
	Price    Reference   `json:"price"`
	Quantity *int64      `json:"quantity"`
	TaxRates []Reference `json:"tax_rates"`
}

// Invoice is a source invoice record.
type Invoice struct {
	ID                string             `json:"id"`
	Number            *string            `json:"number"`
	Status            string             `json:"status"`
	Total             int64              `json:"total"`
	Subtotal          int64              `json:"subtotal"`
	AmountDue         int64              `json:"amount_due"`
	AmountPaid        int64              `json:"amount_paid"`
	AmountRemaining   int64              `json:"amount_remaining"`
	Currency          string             `json:"currency"`
	Tax               *int64             `json:"tax"`
	Customer          *Reference         `json:"customer"`
	CustomerAddress   *InvoiceAddress    `json:"customer_address"`
	CustomerEmail     *string            `json:"customer_email"`
	CustomerName      *string            `json:"customer_name"`
	Subscription      *Reference         `json:"subscription"`
	BillingReason     *string            `json:"billing_reason"`
	CollectionMethod  *string            `json:"collection_method"`
	Created           int64              `json:"created"`
	PeriodStart       int64              `json:"period_start"`
	PeriodEnd         int64              `json:"period_end"`
	Paid              bool               `json:"paid"`
	HostedInvoiceURL  *string            `json:"hosted_invoice_url"`
	InvoicePDF        *string            `json:"invoice_pdf"`
	StatusTransitions *StatusTransitions `json:"status_transitions"`
	Metadata          map[string]string  `json:"metadata"`
	Lines             List[InvoiceLine]  `json:"lines"`
}

// InvoiceAddress is the billing address captured on an invoice.
type InvoiceAddress struct {
	Country *string `json:"country"`
}

// StatusTransitions records when an invoice changed state.
type StatusTransitions struct {
	FinalizedAt *int64 `json:"finalized_at"`
	PaidAt      *int64 `json:"paid_at"`
}

// InvoiceLine is one line of an invoice.
type InvoiceLine struct {
	ID          string     `json:"id"`
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	Description *string    `json:"description"`
	Quantity    *int64     `json:"quantity"`
	Price       *Reference `json:"price"`
}
