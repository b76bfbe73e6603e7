package policy

import (
	"net/url"
	"strings"

	"github.com/juju/collections/set"

	"github.com/temirov/billmigrate/internal/billing"
)

// Rule names reported in decisions and logs.
const (
	RuleActiveOnly        = "active_only"
	RuleValidOnly         = "valid_only"
	RuleExcludedPriceIDs  = "excluded_price_ids"
	RuleAllowedPriceIDs   = "allowed_price_ids"
	RuleRecurringOnly     = "recurring_only"
	RuleExcludedStatuses  = "excluded_statuses"
	RuleOnlyPaid          = "only_paid"
	RuleExcludeZeroAmount = "exclude_zero_amount"
)

const (
	invoiceStatusPaidConstant          = "paid"
	invoiceStatusFilterNameConstant    = "status"
	invoicePaidNonZeroSearchConstant   = `status:"paid" AND total>0`
	invoiceNonZeroSearchConstant       = `total>0`
	subscriptionStatusCanceledConstant = "canceled"
	subscriptionStatusExpiredConstant  = "incomplete_expired"
	scheduleStatusCanceledConstant     = "canceled"
	scheduleStatusCompletedConstant    = "completed"
	scheduleStatusReleasedConstant     = "released"
)

// ActivityConfiguration toggles the active-only rule of kinds carrying an active flag.
type ActivityConfiguration struct {
	ActiveOnly bool `mapstructure:"active_only" yaml:"active_only"`
}

// PriceConfiguration configures the price policy.
type PriceConfiguration struct {
	ActiveOnly       bool     `mapstructure:"active_only" yaml:"active_only"`
	RecurringOnly    bool     `mapstructure:"recurring_only" yaml:"recurring_only"`
	ExcludedPriceIDs []string `mapstructure:"excluded_price_ids" yaml:"excluded_price_ids"`
	AllowedPriceIDs  []string `mapstructure:"allowed_price_ids" yaml:"allowed_price_ids"`
}

// CouponConfiguration configures the coupon policy.
type CouponConfiguration struct {
	ValidOnly bool `mapstructure:"valid_only" yaml:"valid_only"`
}

// SubscriptionConfiguration configures the subscription policy.
type SubscriptionConfiguration struct {
	ExcludedStatuses []string `mapstructure:"excluded_statuses" yaml:"excluded_statuses"`
	ExcludedPriceIDs []string `mapstructure:"excluded_price_ids" yaml:"excluded_price_ids"`
}

// ScheduleConfiguration configures the subscription schedule policy.
type ScheduleConfiguration struct {
	ExcludedStatuses []string `mapstructure:"excluded_statuses" yaml:"excluded_statuses"`
}

// InvoiceConfiguration configures the invoice policy and its remote query.
type InvoiceConfiguration struct {
	OnlyPaid          bool `mapstructure:"only_paid" yaml:"only_paid"`
	ExcludeZeroAmount bool `mapstructure:"exclude_zero_amount" yaml:"exclude_zero_amount"`
	// UseSearch pushes both filters to the search endpoint instead of the list filter.
	UseSearch bool `mapstructure:"use_search" yaml:"use_search"`
}

// DefaultSubscriptionExcludedStatuses lists subscription statuses that never migrate.
func DefaultSubscriptionExcludedStatuses() []string {
	return []string{subscriptionStatusCanceledConstant, subscriptionStatusExpiredConstant}
}

// DefaultScheduleExcludedStatuses lists schedule statuses that never migrate.
func DefaultScheduleExcludedStatuses() []string {
	return []string{scheduleStatusCanceledConstant, scheduleStatusCompletedConstant, scheduleStatusReleasedConstant}
}

// ProductPolicy builds the product policy.
func ProductPolicy(configuration ActivityConfiguration) Policy[billing.Product] {
	var rules []Rule[billing.Product]
	if configuration.ActiveOnly {
		rules = append(rules, Rule[billing.Product]{Name: RuleActiveOnly, Excludes: func(record billing.Product) bool {
			return !flagSet(record.Active)
		}})
	}
	return New(rules...)
}

// PricePolicy builds the price policy. Exclusion wins over the allow list.
func PricePolicy(configuration PriceConfiguration) Policy[billing.Price] {
	var rules []Rule[billing.Price]
	excludedPrices := normalizedSet(configuration.ExcludedPriceIDs)
	if !excludedPrices.IsEmpty() {
		rules = append(rules, Rule[billing.Price]{Name: RuleExcludedPriceIDs, Excludes: func(record billing.Price) bool {
			return excludedPrices.Contains(record.ID)
		}})
	}
	allowedPrices := normalizedSet(configuration.AllowedPriceIDs)
	if !allowedPrices.IsEmpty() {
		rules = append(rules, Rule[billing.Price]{Name: RuleAllowedPriceIDs, Excludes: func(record billing.Price) bool {
			return !allowedPrices.Contains(record.ID)
		}})
	}
	if configuration.RecurringOnly {
		rules = append(rules, Rule[billing.Price]{Name: RuleRecurringOnly, Excludes: func(record billing.Price) bool {
			return record.Recurring == nil
		}})
	}
	if configuration.ActiveOnly {
		rules = append(rules, Rule[billing.Price]{Name: RuleActiveOnly, Excludes: func(record billing.Price) bool {
			return !flagSet(record.Active)
		}})
	}
	return New(rules...)
}

// CouponPolicy builds the coupon policy.
func CouponPolicy(configuration CouponConfiguration) Policy[billing.Coupon] {
	var rules []Rule[billing.Coupon]
	if configuration.ValidOnly {
		rules = append(rules, Rule[billing.Coupon]{Name: RuleValidOnly, Excludes: func(record billing.Coupon) bool {
			return !flagSet(record.Valid)
		}})
	}
	return New(rules...)
}

// PromotionCodePolicy builds the promotion code policy.
func PromotionCodePolicy(configuration ActivityConfiguration) Policy[billing.PromotionCode] {
	var rules []Rule[billing.PromotionCode]
	if configuration.ActiveOnly {
		rules = append(rules, Rule[billing.PromotionCode]{Name: RuleActiveOnly, Excludes: func(record billing.PromotionCode) bool {
			return !flagSet(record.Active)
		}})
	}
	return New(rules...)
}

// PaymentLinkPolicy builds the payment link policy.
func PaymentLinkPolicy(configuration ActivityConfiguration) Policy[billing.PaymentLink] {
	var rules []Rule[billing.PaymentLink]
	if configuration.ActiveOnly {
		rules = append(rules, Rule[billing.PaymentLink]{Name: RuleActiveOnly, Excludes: func(record billing.PaymentLink) bool {
			return !flagSet(record.Active)
		}})
	}
	return New(rules...)
}

// SubscriptionPolicy builds the subscription policy. A subscription is excluded when any
// of its items bills an excluded price.
func SubscriptionPolicy(configuration SubscriptionConfiguration) Policy[billing.Subscription] {
	var rules []Rule[billing.Subscription]
	excludedStatuses := normalizedStatusSet(configuration.ExcludedStatuses)
	if !excludedStatuses.IsEmpty() {
		rules = append(rules, Rule[billing.Subscription]{Name: RuleExcludedStatuses, Excludes: func(record billing.Subscription) bool {
			return excludedStatuses.Contains(strings.ToLower(record.Status))
		}})
	}
	excludedPrices := normalizedSet(configuration.ExcludedPriceIDs)
	if !excludedPrices.IsEmpty() {
		rules = append(rules, Rule[billing.Subscription]{Name: RuleExcludedPriceIDs, Excludes: func(record billing.Subscription) bool {
			for _, item := range record.Items.Data {
				if excludedPrices.Contains(billing.ReferenceID(item.Price)) {
					return true
				}
			}
			return false
		}})
	}
	return New(rules...)
}

// SubscriptionSchedulePolicy builds the subscription schedule policy.
func SubscriptionSchedulePolicy(configuration ScheduleConfiguration) Policy[billing.SubscriptionSchedule] {
	var rules []Rule[billing.SubscriptionSchedule]
	excludedStatuses := normalizedStatusSet(configuration.ExcludedStatuses)
	if !excludedStatuses.IsEmpty() {
		rules = append(rules, Rule[billing.SubscriptionSchedule]{Name: RuleExcludedStatuses, Excludes: func(record billing.SubscriptionSchedule) bool {
			return excludedStatuses.Contains(strings.ToLower(record.Status))
		}})
	}
	return New(rules...)
}

// InvoicePolicy builds the invoice policy.
func InvoicePolicy(configuration InvoiceConfiguration) Policy[billing.Invoice] {
	var rules []Rule[billing.Invoice]
	if configuration.OnlyPaid {
		rules = append(rules, Rule[billing.Invoice]{Name: RuleOnlyPaid, Excludes: func(record billing.Invoice) bool {
			return record.Status != invoiceStatusPaidConstant
		}})
	}
	if configuration.ExcludeZeroAmount {
		rules = append(rules, Rule[billing.Invoice]{Name: RuleExcludeZeroAmount, Excludes: func(record billing.Invoice) bool {
			return record.Total <= 0
		}})
	}
	return New(rules...)
}

// InvoiceQuery translates the invoice configuration into a remote query so fewer
// records cross the wire. The filters are advisory; InvoicePolicy still decides.
func InvoiceQuery(configuration InvoiceConfiguration) (search string, filters url.Values) {
	if configuration.UseSearch {
		switch {
		case configuration.OnlyPaid && configuration.ExcludeZeroAmount:
			return invoicePaidNonZeroSearchConstant, nil
		case configuration.ExcludeZeroAmount:
			return invoiceNonZeroSearchConstant, nil
		}
	}
	if configuration.OnlyPaid {
		return "", url.Values{invoiceStatusFilterNameConstant: []string{invoiceStatusPaidConstant}}
	}
	return "", nil
}

func flagSet(flag *bool) bool {
	return flag != nil && *flag
}

func normalizedSet(values []string) set.Strings {
	normalized := set.NewStrings()
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if len(trimmed) == 0 {
			continue
		}
		normalized.Add(trimmed)
	}
	return normalized
}

func normalizedStatusSet(values []string) set.Strings {
	lowered := make([]string, 0, len(values))
	for _, value := range values {
		lowered = append(lowered, strings.ToLower(value))
	}
	return normalizedSet(lowered)
}
