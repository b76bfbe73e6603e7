package policy

// Rule excludes records matching a named business condition.
type Rule[R any] struct {
	Name     string
	Excludes func(record R) bool
}

// Decision is the outcome of evaluating a record. Rule names the first rule that
// excluded the record and is empty when the record migrates.
type Decision struct {
	Migrate bool
	Rule    string
}

// Policy is an ordered set of exclusion rules for one resource kind.
type Policy[R any] struct {
	rules []Rule[R]
}

// New builds a Policy. Rules without a predicate are ignored.
func New[R any](rules ...Rule[R]) Policy[R] {
	retained := make([]Rule[R], 0, len(rules))
	for _, rule := range rules {
		if rule.Excludes == nil {
			continue
		}
		retained = append(retained, rule)
	}
	return Policy[R]{rules: retained}
}

// Evaluate reports whether record migrates and, if not, which rule excluded it.
func (policy Policy[R]) Evaluate(record R) Decision {
	for _, rule := range policy.rules {
		if rule.Excludes(record) {
			return Decision{Migrate: false, Rule: rule.Name}
		}
	}
	return Decision{Migrate: true}
}

// ShouldMigrate reports whether record passes every rule.
func (policy Policy[R]) ShouldMigrate(record R) bool {
	return policy.Evaluate(record).Migrate
}

// RuleNames lists the active rules in evaluation order.
func (policy Policy[R]) RuleNames() []string {
	names := make([]string, 0, len(policy.rules))
	for _, rule := range policy.rules {
		names = append(names, rule.Name)
	}
	return names
}
