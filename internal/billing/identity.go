package billing

// Record is implemented by every source record the migrator walks.
type Record interface {
	SourceID() string
}

// SourceID returns the product identifier.
func (record Product) SourceID() string { return record.ID }

// SourceID returns the price identifier.
func (record Price) SourceID() string { return record.ID }

// SourceID returns the coupon identifier.
func (record Coupon) SourceID() string { return record.ID }

// SourceID returns the promotion code identifier.
func (record PromotionCode) SourceID() string { return record.ID }

// SourceID returns the payment link identifier.
func (record PaymentLink) SourceID() string { return record.ID }

// SourceID returns the subscription identifier.
func (record Subscription) SourceID() string { return record.ID }

// SourceID returns the subscription schedule identifier.
func (record SubscriptionSchedule) SourceID() string { return record.ID }

// SourceID returns the invoice identifier.
func (record Invoice) SourceID() string { return record.ID }
