package migrate

import (
	"time"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/export"
	"github.com/temirov/billmigrate/internal/mapping"
	"github.com/temirov/billmigrate/internal/pagination"
	"github.com/temirov/billmigrate/internal/policy"
	"github.com/temirov/billmigrate/internal/utils"
	pathutils "github.com/temirov/billmigrate/internal/utils/path"
)

const (
	defaultRateLimitConstant      = 20.0
	defaultRateBurstConstant      = 1
	defaultRequestTimeoutConstant = 60 * time.Second
	defaultSQLitePathConstant     = "output/id_mappings.db"
	defaultFailureLogPathConstant = "output/failed_migrations.log"
	defaultExportDirectoryConst   = "output"
)

// ActivityTaskConfiguration configures kinds filtered only by their active flag.
type ActivityTaskConfiguration struct {
	Enabled                      bool `mapstructure:"enabled" yaml:"enabled"`
	policy.ActivityConfiguration `mapstructure:",squash" yaml:",inline"`
}

// PriceTaskConfiguration configures the price task.
type PriceTaskConfiguration struct {
	Enabled                   bool `mapstructure:"enabled" yaml:"enabled"`
	policy.PriceConfiguration `mapstructure:",squash" yaml:",inline"`
}

// CouponTaskConfiguration configures the coupon task.
type CouponTaskConfiguration struct {
	Enabled                    bool `mapstructure:"enabled" yaml:"enabled"`
	policy.CouponConfiguration `mapstructure:",squash" yaml:",inline"`
}

// SubscriptionTaskConfiguration configures the subscription task.
type SubscriptionTaskConfiguration struct {
	Enabled                          bool `mapstructure:"enabled" yaml:"enabled"`
	policy.SubscriptionConfiguration `mapstructure:",squash" yaml:",inline"`
}

// ScheduleTaskConfiguration configures the subscription schedule task.
type ScheduleTaskConfiguration struct {
	Enabled                      bool `mapstructure:"enabled" yaml:"enabled"`
	policy.ScheduleConfiguration `mapstructure:",squash" yaml:",inline"`
}

// InvoiceTaskConfiguration configures the invoice task.
type InvoiceTaskConfiguration struct {
	Enabled                     bool `mapstructure:"enabled" yaml:"enabled"`
	policy.InvoiceConfiguration `mapstructure:",squash" yaml:",inline"`
}

// TasksConfiguration holds one section per resource kind.
type TasksConfiguration struct {
	Products              ActivityTaskConfiguration     `mapstructure:"products" yaml:"products"`
	Prices                PriceTaskConfiguration        `mapstructure:"prices" yaml:"prices"`
	Coupons               CouponTaskConfiguration       `mapstructure:"coupons" yaml:"coupons"`
	PromotionCodes        ActivityTaskConfiguration     `mapstructure:"promotion_codes" yaml:"promotion_codes"`
	PaymentLinks          ActivityTaskConfiguration     `mapstructure:"payment_links" yaml:"payment_links"`
	Subscriptions         SubscriptionTaskConfiguration `mapstructure:"subscriptions" yaml:"subscriptions"`
	SubscriptionSchedules ScheduleTaskConfiguration     `mapstructure:"subscription_schedules" yaml:"subscription_schedules"`
	Invoices              InvoiceTaskConfiguration      `mapstructure:"invoices" yaml:"invoices"`
}

// EnabledKinds maps every migratable kind to its enabled flag.
func (tasks TasksConfiguration) EnabledKinds() map[billing.ResourceKind]bool {
	return map[billing.ResourceKind]bool{
		billing.ResourceKindProduct:              tasks.Products.Enabled,
		billing.ResourceKindPrice:                tasks.Prices.Enabled,
		billing.ResourceKindCoupon:               tasks.Coupons.Enabled,
		billing.ResourceKindPromotionCode:        tasks.PromotionCodes.Enabled,
		billing.ResourceKindPaymentLink:          tasks.PaymentLinks.Enabled,
		billing.ResourceKindSubscription:         tasks.Subscriptions.Enabled,
		billing.ResourceKindSubscriptionSchedule: tasks.SubscriptionSchedules.Enabled,
		billing.ResourceKindInvoice:              tasks.Invoices.Enabled,
	}
}

// ArchiveConfiguration locates the invoice archive. An empty DSN disables archiving.
type ArchiveConfiguration struct {
	DSN       string `mapstructure:"dsn" yaml:"dsn"`
	BatchSize int    `mapstructure:"batch_size" yaml:"batch_size" validate:"gte=0"`
}

// Configuration captures the migrate command settings.
type Configuration struct {
	PageSize                 int                        `mapstructure:"page_size" yaml:"page_size" validate:"gte=1,lte=100"`
	APIBaseURL               string                     `mapstructure:"api_base_url" yaml:"api_base_url" validate:"omitempty,url"`
	APIVersion               string                     `mapstructure:"api_version" yaml:"api_version"`
	RateLimit                float64                    `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gt=0"`
	RateBurst                int                        `mapstructure:"rate_burst" yaml:"rate_burst" validate:"gte=1"`
	RequestTimeout           time.Duration              `mapstructure:"request_timeout" yaml:"request_timeout" validate:"gte=0"`
	DryRun                   bool                       `mapstructure:"dry_run" yaml:"dry_run"`
	ReportFormat             string                     `mapstructure:"report_format" yaml:"report_format" validate:"omitempty,oneof=table yaml json"`
	FailureLogPath           string                     `mapstructure:"failure_log" yaml:"failure_log"`
	TraceabilityMetadata     bool                       `mapstructure:"traceability_metadata" yaml:"traceability_metadata"`
	DeferSubscriptionBilling bool                       `mapstructure:"defer_subscription_billing" yaml:"defer_subscription_billing"`
	Mapping                  mapping.StoreConfiguration `mapstructure:"mapping" yaml:"mapping"`
	Export                   export.Configuration       `mapstructure:"export" yaml:"export"`
	Archive                  ArchiveConfiguration       `mapstructure:"archive" yaml:"archive"`
	Tasks                    TasksConfiguration         `mapstructure:"tasks" yaml:"tasks"`
}

// DefaultConfigurationValues returns the baseline migrate configuration.
func DefaultConfigurationValues() Configuration {
	return Configuration{
		PageSize:                 pagination.DefaultPageSize,
		RateLimit:                defaultRateLimitConstant,
		RateBurst:                defaultRateBurstConstant,
		RequestTimeout:           defaultRequestTimeoutConstant,
		FailureLogPath:           defaultFailureLogPathConstant,
		TraceabilityMetadata:     true,
		DeferSubscriptionBilling: true,
		Mapping: mapping.StoreConfiguration{
			Backend:    mapping.BackendSQLite,
			SQLitePath: defaultSQLitePathConstant,
		},
		Export: export.Configuration{
			Directory: defaultExportDirectoryConst,
			Kinds:     []string{string(billing.ResourceKindSubscription), string(billing.ResourceKindInvoice)},
		},
		Tasks: TasksConfiguration{
			Products:       ActivityTaskConfiguration{Enabled: true},
			Prices:         PriceTaskConfiguration{Enabled: true},
			Coupons:        CouponTaskConfiguration{Enabled: true},
			PromotionCodes: ActivityTaskConfiguration{Enabled: true},
			PaymentLinks:   ActivityTaskConfiguration{Enabled: true},
			Subscriptions: SubscriptionTaskConfiguration{
				Enabled:                   true,
				SubscriptionConfiguration: policy.SubscriptionConfiguration{ExcludedStatuses: policy.DefaultSubscriptionExcludedStatuses()},
			},
			SubscriptionSchedules: ScheduleTaskConfiguration{
				ScheduleConfiguration: policy.ScheduleConfiguration{ExcludedStatuses: policy.DefaultScheduleExcludedStatuses()},
			},
			Invoices: InvoiceTaskConfiguration{
				Enabled:              true,
				InvoiceConfiguration: policy.InvoiceConfiguration{OnlyPaid: true, ExcludeZeroAmount: true, UseSearch: true},
			},
		},
	}
}

// Sanitize fills unset numeric settings with their defaults and expands home and
// environment references in local paths.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	expander := pathutils.NewHomeExpander()
	sanitized.FailureLogPath = expander.Expand(sanitized.FailureLogPath)
	sanitized.Mapping.SQLitePath = expander.Expand(sanitized.Mapping.SQLitePath)
	sanitized.Export.Directory = expander.Expand(sanitized.Export.Directory)
	sanitized.Archive.DSN = expander.ExpandDSN(sanitized.Archive.DSN)
	defaults := DefaultConfigurationValues()
	if sanitized.PageSize <= 0 {
		sanitized.PageSize = defaults.PageSize
	}
	if sanitized.RateLimit <= 0 {
		sanitized.RateLimit = defaults.RateLimit
	}
	if sanitized.RateBurst <= 0 {
		sanitized.RateBurst = defaults.RateBurst
	}
	if sanitized.RequestTimeout <= 0 {
		sanitized.RequestTimeout = defaults.RequestTimeout
	}
	return sanitized
}

// Validate checks the configuration constraints.
func (configuration Configuration) Validate() error {
	return utils.ValidateConfiguration(configuration)
}
