package inventory

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/juju/collections/set"
	"gopkg.in/yaml.v3"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/workflow"
)

const (
	summaryTitleConstant           = "Invoices"
	summaryHeaderMetricConstant    = "Metric"
	summaryHeaderValueConstant     = "Value"
	summaryHeaderCurrencyConstant  = "Currency"
	summaryHeaderCountryConstant   = "Country"
	summaryHeaderInvoicesConstant  = "Invoices"
	summaryHeaderAmountDueConstant = "Amount Due"
	summaryHeaderPaidConstant      = "Amount Paid"
	summaryHeaderTaxConstant       = "Tax"
	summaryMetricInvoicesConstant  = "Invoices"
	summaryMetricCustomersConstant = "Customers"
	summaryMetricAmountDueConstant = "Amount due (all currencies)"
	summaryMetricPaidConstant      = "Amount paid (all currencies)"
	summaryMetricTaxConstant       = "Tax (all currencies)"
)

// CurrencyTotals aggregates the invoices of one currency. Amounts are in minor units.
type CurrencyTotals struct {
	Currency   string `json:"currency" yaml:"currency"`
	Invoices   int    `json:"invoices" yaml:"invoices"`
	AmountDue  int64  `json:"amount_due" yaml:"amount_due"`
	AmountPaid int64  `json:"amount_paid" yaml:"amount_paid"`
	Tax        int64  `json:"tax" yaml:"tax"`
}

// CountryTotals counts the invoices billed to one country.
type CountryTotals struct {
	Country  string `json:"country" yaml:"country"`
	Invoices int    `json:"invoices" yaml:"invoices"`
}

// InvoiceSummary describes a set of exported invoices. The all-currency sums add minor
// units of different currencies and only make sense for single-currency accounts.
type InvoiceSummary struct {
	Invoices   int              `json:"invoices" yaml:"invoices"`
	Customers  int              `json:"customers" yaml:"customers"`
	AmountDue  int64            `json:"amount_due" yaml:"amount_due"`
	AmountPaid int64            `json:"amount_paid" yaml:"amount_paid"`
	Tax        int64            `json:"tax" yaml:"tax"`
	Currencies []CurrencyTotals `json:"currencies" yaml:"currencies"`
	Countries  []CountryTotals  `json:"countries" yaml:"countries"`
}

// SummarizeInvoices aggregates invoices. Invoices without a customer address are left out
// of the country breakdown. Currencies are sorted by code; countries by invoice count,
// then code.
func SummarizeInvoices(invoices []billing.Invoice) InvoiceSummary {
	summary := InvoiceSummary{Invoices: len(invoices)}
	customers := set.NewStrings()
	currencyTotals := map[string]*CurrencyTotals{}
	countryCounts := map[string]int{}

	for _, invoice := range invoices {
		if customerID := billing.ReferenceID(invoice.Customer); len(customerID) > 0 {
			customers.Add(customerID)
		}

		var tax int64
		if invoice.Tax != nil {
			tax = *invoice.Tax
		}
		summary.AmountDue += invoice.AmountDue
		summary.AmountPaid += invoice.AmountPaid
		summary.Tax += tax

		currency := strings.ToLower(invoice.Currency)
		totals, known := currencyTotals[currency]
		if !known {
			totals = &CurrencyTotals{Currency: currency}
			currencyTotals[currency] = totals
		}
		totals.Invoices++
		totals.AmountDue += invoice.AmountDue
		totals.AmountPaid += invoice.AmountPaid
		totals.Tax += tax

		if invoice.CustomerAddress != nil && invoice.CustomerAddress.Country != nil {
			if country := strings.ToUpper(strings.TrimSpace(*invoice.CustomerAddress.Country)); len(country) > 0 {
				countryCounts[country]++
			}
		}
	}

	summary.Customers = customers.Size()
	for _, totals := range currencyTotals {
		summary.Currencies = append(summary.Currencies, *totals)
	}
	sort.Slice(summary.Currencies, func(left, right int) bool {
		return summary.Currencies[left].Currency < summary.Currencies[right].Currency
	})
	for country, count := range countryCounts {
		summary.Countries = append(summary.Countries, CountryTotals{Country: country, Invoices: count})
	}
	sort.Slice(summary.Countries, func(left, right int) bool {
		if summary.Countries[left].Invoices != summary.Countries[right].Invoices {
			return summary.Countries[left].Invoices > summary.Countries[right].Invoices
		}
		return summary.Countries[left].Country < summary.Countries[right].Country
	})
	return summary
}

// RenderInvoiceSummary writes summary to writer in format.
func RenderInvoiceSummary(writer io.Writer, summary InvoiceSummary, format workflow.ReportFormat) error {
	switch format {
	case workflow.ReportFormatTable, "":
		renderInvoiceSummaryTables(writer, summary)
		return nil
	case workflow.ReportFormatYAML:
		encoder := yaml.NewEncoder(writer)
		if encodeError := encoder.Encode(summary); encodeError != nil {
			return encodeError
		}
		return encoder.Close()
	case workflow.ReportFormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", jsonIndentConstant)
		return encoder.Encode(summary)
	default:
		return fmt.Errorf(unsupportedFormatTemplate, format)
	}
}

func renderInvoiceSummaryTables(writer io.Writer, summary InvoiceSummary) {
	overview := table.NewWriter()
	overview.SetOutputMirror(writer)
	overview.SetTitle(summaryTitleConstant)
	overview.AppendHeader(table.Row{summaryHeaderMetricConstant, summaryHeaderValueConstant})
	overview.AppendRows([]table.Row{
		{summaryMetricInvoicesConstant, summary.Invoices},
		{summaryMetricCustomersConstant, summary.Customers},
		{summaryMetricAmountDueConstant, summary.AmountDue},
		{summaryMetricPaidConstant, summary.AmountPaid},
		{summaryMetricTaxConstant, summary.Tax},
	})
	overview.Render()

	if len(summary.Currencies) > 0 {
		currencies := table.NewWriter()
		currencies.SetOutputMirror(writer)
		currencies.AppendHeader(table.Row{summaryHeaderCurrencyConstant, summaryHeaderInvoicesConstant, summaryHeaderAmountDueConstant, summaryHeaderPaidConstant, summaryHeaderTaxConstant})
		for _, totals := range summary.Currencies {
			currencies.AppendRow(table.Row{totals.Currency, totals.Invoices, totals.AmountDue, totals.AmountPaid, totals.Tax})
		}
		currencies.Render()
	}

	if len(summary.Countries) > 0 {
		countries := table.NewWriter()
		countries.SetOutputMirror(writer)
		countries.AppendHeader(table.Row{summaryHeaderCountryConstant, summaryHeaderInvoicesConstant})
		for _, totals := range summary.Countries {
			countries.AppendRow(table.Row{totals.Country, totals.Invoices})
		}
		countries.Render()
	}
}
