package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/temirov/billmigrate/internal/billing"
)

const (
	planUnknownKindTemplateConstant       = "plan lists unknown resource kind %s"
	planDuplicateKindTemplateConstant     = "plan lists %s more than once"
	planOrderingViolationTemplateConstant = "%s runs at position %d but depends on %s at position %d"
	planMissingDependencyTemplateConstant = "%s depends on %s, which the plan does not list"
	dependencyWarningDisabledTemplate     = "%s depends on %s, which is disabled; unmapped references pass through unchanged"
	dependencyWarningNotCompletedTemplate = "%s depends on %s, which finished %s; unmapped references pass through unchanged"
	planValidationErrorSeparatorConstant  = "; "
	planValidationErrorPrefixConstant     = "invalid migration plan: "
)

var staticDependencies = map[billing.ResourceKind][]billing.ResourceKind{
	billing.ResourceKindProduct:              nil,
	billing.ResourceKindPrice:                {billing.ResourceKindProduct},
	billing.ResourceKindCoupon:               {billing.ResourceKindProduct},
	billing.ResourceKindPromotionCode:        {billing.ResourceKindCoupon},
	billing.ResourceKindPaymentLink:          {billing.ResourceKindPrice},
	billing.ResourceKindSubscription:         {billing.ResourceKindPrice, billing.ResourceKindCoupon},
	billing.ResourceKindSubscriptionSchedule: {billing.ResourceKindPrice, billing.ResourceKindCoupon},
	billing.ResourceKindInvoice:              nil,
}

// DefaultDependencies returns the kinds whose mappings kind consumes.
func DefaultDependencies(kind billing.ResourceKind) []billing.ResourceKind {
	return append([]billing.ResourceKind(nil), staticDependencies[kind]...)
}

// TaskDescriptor is the static configuration of one resource kind task.
type TaskDescriptor struct {
	Kind         billing.ResourceKind
	Enabled      bool
	Position     int
	Dependencies []billing.ResourceKind
}

// Plan is the ordered list of task descriptors for one run.
type Plan struct {
	descriptors []TaskDescriptor
}

// NewPlan lays out every migratable kind in dependency order. Kinds missing from
// enabledKinds are disabled.
func NewPlan(enabledKinds map[billing.ResourceKind]bool) Plan {
	kinds := billing.MigratableResourceKinds()
	descriptors := make([]TaskDescriptor, 0, len(kinds))
	for position, kind := range kinds {
		descriptors = append(descriptors, TaskDescriptor{
			Kind:         kind,
			Enabled:      enabledKinds[kind],
			Position:     position,
			Dependencies: DefaultDependencies(kind),
		})
	}
	return Plan{descriptors: descriptors}
}

// NewCustomPlan wraps explicit descriptors, ordered by position.
func NewCustomPlan(descriptors []TaskDescriptor) Plan {
	ordered := append([]TaskDescriptor(nil), descriptors...)
	sort.SliceStable(ordered, func(left int, right int) bool {
		return ordered[left].Position < ordered[right].Position
	})
	return Plan{descriptors: ordered}
}

// Descriptors returns the descriptors in execution order.
func (plan Plan) Descriptors() []TaskDescriptor {
	return append([]TaskDescriptor(nil), plan.descriptors...)
}

// EnabledKinds returns the enabled kinds in execution order.
func (plan Plan) EnabledKinds() []billing.ResourceKind {
	var kinds []billing.ResourceKind
	for _, descriptor := range plan.descriptors {
		if descriptor.Enabled {
			kinds = append(kinds, descriptor.Kind)
		}
	}
	return kinds
}

// PlanError lists every ordering violation of a plan.
type PlanError struct {
	Violations []string
}

// Error joins the violations.
func (planError PlanError) Error() string {
	return planValidationErrorPrefixConstant + strings.Join(planError.Violations, planValidationErrorSeparatorConstant)
}

// Validate checks that every kind is known, listed once, and placed after the kinds it
// depends on. It does not check that dependencies are enabled; see UnsatisfiedDependencies.
func (plan Plan) Validate() error {
	var violations []string
	positions := make(map[billing.ResourceKind]int, len(plan.descriptors))
	for _, descriptor := range plan.descriptors {
		if _, known := staticDependencies[descriptor.Kind]; !known {
			violations = append(violations, fmt.Sprintf(planUnknownKindTemplateConstant, descriptor.Kind))
			continue
		}
		if _, duplicate := positions[descriptor.Kind]; duplicate {
			violations = append(violations, fmt.Sprintf(planDuplicateKindTemplateConstant, descriptor.Kind))
			continue
		}
		positions[descriptor.Kind] = descriptor.Position
	}

	for _, descriptor := range plan.descriptors {
		for _, dependency := range descriptor.Dependencies {
			dependencyPosition, listed := positions[dependency]
			if !listed {
				violations = append(violations, fmt.Sprintf(planMissingDependencyTemplateConstant, descriptor.Kind, dependency))
				continue
			}
			if dependencyPosition >= descriptor.Position {
				violations = append(violations, fmt.Sprintf(planOrderingViolationTemplateConstant, descriptor.Kind, descriptor.Position, dependency, dependencyPosition))
			}
		}
	}

	if len(violations) > 0 {
		return PlanError{Violations: violations}
	}
	return nil
}

// UnsatisfiedDependencies describes enabled tasks whose dependencies are disabled.
// These are warnings: the run proceeds and unmapped references pass through.
func (plan Plan) UnsatisfiedDependencies() []string {
	enabled := make(map[billing.ResourceKind]bool, len(plan.descriptors))
	for _, descriptor := range plan.descriptors {
		enabled[descriptor.Kind] = descriptor.Enabled
	}

	var warnings []string
	for _, descriptor := range plan.descriptors {
		if !descriptor.Enabled {
			continue
		}
		for _, dependency := range descriptor.Dependencies {
			if !enabled[dependency] {
				warnings = append(warnings, fmt.Sprintf(dependencyWarningDisabledTemplate, descriptor.Kind, dependency))
			}
		}
	}
	return warnings
}
