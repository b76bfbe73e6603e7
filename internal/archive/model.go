package archive

import (
	"encoding/json"
	"time"

	"github.com/temirov/billmigrate/internal/billing"
)

const invoiceArchiveTableNameConstant = "invoice_archive"

// InvoiceRecord is one archived invoice. Raw keeps the source record as received.
type InvoiceRecord struct {
	ID               uint   `gorm:"primaryKey"`
	SourceID         string `gorm:"size:64;uniqueIndex;not null"`
	Number           string `gorm:"size:64"`
	Status           string `gorm:"size:32;index"`
	Currency         string `gorm:"size:3"`
	CustomerID       string `gorm:"size:64;index"`
	CustomerEmail    string `gorm:"size:255"`
	CustomerName     string `gorm:"size:255"`
	SubscriptionID   string `gorm:"size:64;index"`
	BillingReason    string `gorm:"size:64"`
	CollectionMethod string `gorm:"size:32"`
	Total            int64
	Subtotal         int64
	AmountDue        int64
	AmountPaid       int64
	AmountRemaining  int64
	Paid             bool
	IssuedAt         time.Time
	PeriodStart      time.Time
	PeriodEnd        time.Time
	PaidAt           *time.Time
	HostedInvoiceURL string    `gorm:"size:1024"`
	InvoicePDF       string    `gorm:"size:1024"`
	Raw              string    `gorm:"type:longtext"`
	ImportedAt       time.Time `gorm:"autoCreateTime"`
}

// TableName pins the table name.
func (InvoiceRecord) TableName() string {
	return invoiceArchiveTableNameConstant
}

// NewInvoiceRecord projects an invoice onto an archive row.
func NewInvoiceRecord(invoice billing.Invoice, raw json.RawMessage) InvoiceRecord {
	record := InvoiceRecord{
		SourceID:         invoice.ID,
		Number:           textValue(invoice.Number),
		Status:           invoice.Status,
		Currency:         invoice.Currency,
		CustomerID:       billing.ReferenceID(invoice.Customer),
		CustomerEmail:    textValue(invoice.CustomerEmail),
		CustomerName:     textValue(invoice.CustomerName),
		SubscriptionID:   billing.ReferenceID(invoice.Subscription),
		BillingReason:    textValue(invoice.BillingReason),
		CollectionMethod: textValue(invoice.CollectionMethod),
		Total:            invoice.Total,
		Subtotal:         invoice.Subtotal,
		AmountDue:        invoice.AmountDue,
		AmountPaid:       invoice.AmountPaid,
		AmountRemaining:  invoice.AmountRemaining,
		Paid:             invoice.Paid,
		IssuedAt:         unixTime(invoice.Created),
		PeriodStart:      unixTime(invoice.PeriodStart),
		PeriodEnd:        unixTime(invoice.PeriodEnd),
		HostedInvoiceURL: textValue(invoice.HostedInvoiceURL),
		InvoicePDF:       textValue(invoice.InvoicePDF),
		Raw:              string(raw),
	}
	if invoice.StatusTransitions != nil && invoice.StatusTransitions.PaidAt != nil {
		paidAt := unixTime(*invoice.StatusTransitions.PaidAt)
		record.PaidAt = &paidAt
	}
	return record
}

func textValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func unixTime(seconds int64) time.Time {
	return time.Unix(seconds, 0).UTC()
}
