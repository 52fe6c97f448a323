// Package integrity turns PostgreSQL constraint violations into the
// application's own errors, chosen by an ordered list of rules.
package integrity

import (
	"context"
	"errors"
	"fmt"

	"github.com/chameleon-db/chameleondb/integrity/pkg/engine"
)

// ErrNoReplacement is returned by Validate for a Mapping with neither Err nor New
var ErrNoReplacement = errors.New("mapping has no replacement error")

// Mapping pairs a rule with the error returned when it matches. Err is
// returned as the very same value every time; New, when set, builds a fresh
// error for each classification and takes precedence over Err.
type Mapping struct {
	Rule Rule
	Err  error
	New  func() error
}

// On maps rule to a fixed error value
func On(rule Rule, err error) Mapping {
	return Mapping{Rule: rule, Err: err}
}

// OnNew maps rule to an error built by fn on every match
func OnNew(rule Rule, fn func() error) Mapping {
	return Mapping{Rule: rule, New: fn}
}

func (m Mapping) replacement() error {
	if m.New != nil {
		return m.New()
	}
	return m.Err
}

// RuleSet is evaluated in order; the first matching rule wins
type RuleSet []Mapping

// Validate resolves every rule against its entity. The first failure is
// returned, wrapping the *engine.ResolutionError that caused it.
func (rs RuleSet) Validate() error {
	for i, m := range rs {
		if _, err := resolve(m.Rule); err != nil {
			return fmt.Errorf("rule %d (%v): %w", i, m.Rule, err)
		}
		if m.Err == nil && m.New == nil {
			return fmt.Errorf("rule %d (%v): %w", i, m.Rule, ErrNoReplacement)
		}
	}
	return nil
}

// Find returns the first mapping whose rule matches d
func (rs RuleSet) Find(d Diagnostics) (Mapping, bool) {
	for _, m := range rs {
		if Match(m.Rule, d) {
			return m, true
		}
	}
	return Mapping{}, false
}

// Refine is the method form of the package-level Refine
func (rs RuleSet) Refine(ctx context.Context, fn func(ctx context.Context) error) error {
	return Refine(ctx, rs, fn)
}

// Outcome is how a Refine call ended
type Outcome int

const (
	// Completed: fn returned nil
	Completed Outcome = iota
	// Propagated: fn failed with something other than a constraint violation
	Propagated
	// Classified: a rule matched and its error was returned
	Classified
	// Reraised: no rule matched and the violation was returned unchanged
	Reraised
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Propagated:
		return "propagated"
	case Classified:
		return "classified"
	case Reraised:
		return "reraised"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// RefinedError is returned in place of a constraint violation matched by a
// rule. It reads as the replacement error while the database error stays
// reachable, so both errors.Is(err, ErrUserExists) and
// errors.As(err, &pgErr) hold.
type RefinedError struct {
	Err      error
	Original error
	Rule     Rule
}

func (e *RefinedError) Error() string {
	return e.Err.Error()
}

func (e *RefinedError) Unwrap() []error {
	return []error{e.Err, e.Original}
}

// Cause returns the database error the replacement stands in for
func (e *RefinedError) Cause() error {
	return e.Original
}

// Cause returns the database error behind a refined error, or err itself
func Cause(err error) error {
	var refined *RefinedError
	if errors.As(err, &refined) {
		return refined.Original
	}
	return err
}

// Classify translates err using rules. It returns nil for nil, err itself
// for anything that is not an unmatched constraint violation, and a
// *RefinedError for a matched one. Rules that fail to resolve never match.
func Classify(err error, rules RuleSet) error {
	_, out := classify(err, rules)
	return out
}

// ClassifyOutcome is Classify that also reports the outcome
func ClassifyOutcome(err error, rules RuleSet) (Outcome, error) {
	return classify(err, rules)
}

func classify(err error, rules RuleSet) (Outcome, error) {
	if err == nil {
		return Completed, nil
	}

	// Already translated by an inner Refine
	var refined *RefinedError
	if errors.As(err, &refined) {
		return Propagated, err
	}

	d, ok := Diagnose(err)
	if !ok {
		return Propagated, err
	}

	m, ok := rules.Find(d)
	if !ok {
		return Reraised, err
	}

	replacement := m.replacement()
	if replacement == nil {
		return Reraised, err
	}
	return Classified, &RefinedError{Err: replacement, Original: err, Rule: m.Rule}
}

// Refine runs fn and classifies the error it returns. Rules are validated
// first: a rule that cannot be resolved is a programming error and is
// returned without running fn.
//
// Refine does not retry, and it does not manage transactions. A violation
// of a deferred constraint surfaces at commit, so the commit must happen
// inside fn for it to be classified.
func Refine(ctx context.Context, rules RuleSet, fn func(ctx context.Context) error) error {
	if err := rules.Validate(); err != nil {
		return err
	}

	outcome, err := classify(fn(ctx), rules)

	event := engine.Logger().Debug().Stringer("outcome", outcome)
	if outcome == Classified {
		var refined *RefinedError
		if errors.As(err, &refined) {
			event = event.Stringer("rule", refined.Rule)
		}
	}
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("refine integrity error")

	return err
}
