// Package directives describes the colon-prefixed attribute directives of the
// template language (on:, bind:, class:, style:, use:, transition:, in:, out:,
// animate:, let:) and validates directive attribute names.
//
// The set of families is closed. Descriptors live in a table indexed by
// Family that is built once at init and never mutated; Lookup resolves a
// prefix to its descriptor.
package directives

import (
	"fmt"

	"github.com/aledsdavies/svelteparse/runtime/builder"
)

const (
	// Separator splits the prefix from the specifier: on:click.
	Separator = ':'
	// ModifierSeparator introduces modifiers: on:click|once.
	ModifierSeparator = '|'
)

// Family identifies a directive family.
type Family uint8

const (
	FamilyOn Family = iota
	FamilyBind
	FamilyClass
	FamilyStyle
	FamilyUse
	FamilyTransition
	FamilyIn
	FamilyOut
	FamilyAnimate
	FamilyLet

	familyCount
)

func (f Family) String() string {
	if f < familyCount {
		return table[f].Prefix
	}
	return fmt.Sprintf("Family(%d)", uint8(f))
}

// Target is the kind of tag a directive may be placed on.
type Target uint8

const (
	TargetBoth Target = iota
	TargetElement
	TargetComponent
)

func (t Target) String() string {
	switch t {
	case TargetElement:
		return "element"
	case TargetComponent:
		return "component"
	default:
		return "both"
	}
}

// Allows reports whether a directive with target t may appear on tag.
func (t Target) Allows(tag string) bool {
	switch t {
	case TargetElement:
		return !IsComponent(tag)
	case TargetComponent:
		return IsComponent(tag)
	default:
		return true
	}
}

// Strategy decides what the specifier of a directive refers to.
type Strategy uint8

const (
	// StrategyNone: the specifier is a free name (an event, a property).
	StrategyNone Strategy = iota
	// StrategyReferenceScope: the specifier names a binding in scope, such
	// as an action or a transition function.
	StrategyReferenceScope
	// StrategyForwardEvent: the directive re-dispatches the named event.
	StrategyForwardEvent
	// StrategyDeclareBinding: the specifier introduces a new binding.
	StrategyDeclareBinding
)

func (s Strategy) String() string {
	switch s {
	case StrategyReferenceScope:
		return "reference"
	case StrategyForwardEvent:
		return "forward"
	case StrategyDeclareBinding:
		return "declare"
	default:
		return "none"
	}
}

// Descriptor is the static description of one directive family.
type Descriptor struct {
	Family Family
	Prefix string
	Target Target
	// Validator further restricts the tags the directive may appear on.
	// Nil accepts every tag allowed by Target.
	Validator func(tag string) bool
	Modifiers []string
	// Value is the region kind the "=value" part is parsed as.
	Value builder.DualKind
	// Shorthand resolves the specifier when the attribute has no value.
	Shorthand Strategy
	// Longhand resolves the specifier when the attribute has a value.
	Longhand Strategy
}

// DelimitedPrefix returns the prefix with its separator, "on:".
func (d *Descriptor) DelimitedPrefix() string {
	return d.Prefix + string(Separator)
}

// AcceptsModifier reports whether name is a legal modifier.
func (d *Descriptor) AcceptsModifier(name string) bool {
	for _, m := range d.Modifiers {
		if m == name {
			return true
		}
	}
	return false
}

// Allows reports whether the directive may be placed on tag.
func (d *Descriptor) Allows(tag string) bool {
	if !d.Target.Allows(tag) {
		return false
	}
	return d.Validator == nil || d.Validator(tag)
}

// Strategy returns the specifier strategy for the given form.
func (d *Descriptor) Strategy(shorthand bool) Strategy {
	if shorthand {
		return d.Shorthand
	}
	return d.Longhand
}

func (d *Descriptor) String() string { return d.Prefix }

var (
	expressionValue = builder.Dual(builder.KindAttributeExpression)
	parameterValue  = builder.Dual(builder.KindAttributeParameter)
)

var eventModifiers = []string{
	"preventDefault",
	"stopPropagation",
	"stopImmediatePropagation",
	"passive",
	"nonpassive",
	"capture",
	"once",
	"self",
	"trusted",
}

// transition builds the shared descriptor of transition:, in: and out:.
func transition(f Family, prefix string) Descriptor {
	return Descriptor{
		Family:    f,
		Prefix:    prefix,
		Target:    TargetElement,
		Validator: acceptsEffects,
		Modifiers: []string{"local", "global"},
		Value:     expressionValue,
		Shorthand: StrategyReferenceScope,
		Longhand:  StrategyReferenceScope,
	}
}

var table = [familyCount]Descriptor{
	FamilyOn: {
		Family: FamilyOn, Prefix: "on", Target: TargetBoth,
		Modifiers: eventModifiers, Value: expressionValue,
		Shorthand: StrategyForwardEvent, Longhand: StrategyNone,
	},
	FamilyBind: {
		Family: FamilyBind, Prefix: "bind", Target: TargetBoth,
		Value:     expressionValue,
		Shorthand: StrategyReferenceScope, Longhand: StrategyNone,
	},
	FamilyClass: {
		Family: FamilyClass, Prefix: "class", Target: TargetElement,
		Validator: acceptsEffects, Value: expressionValue,
		Shorthand: StrategyReferenceScope, Longhand: StrategyNone,
	},
	FamilyStyle: {
		Family: FamilyStyle, Prefix: "style", Target: TargetElement,
		Validator: acceptsEffects, Modifiers: []string{"important"}, Value: expressionValue,
		Shorthand: StrategyReferenceScope, Longhand: StrategyNone,
	},
	FamilyUse: {
		Family: FamilyUse, Prefix: "use", Target: TargetElement,
		Validator: acceptsActions, Value: expressionValue,
		Shorthand: StrategyReferenceScope, Longhand: StrategyReferenceScope,
	},
	FamilyTransition: transition(FamilyTransition, "transition"),
	FamilyIn:         transition(FamilyIn, "in"),
	FamilyOut:        transition(FamilyOut, "out"),
	FamilyAnimate: {
		Family: FamilyAnimate, Prefix: "animate", Target: TargetElement,
		Validator: acceptsEffects, Value: expressionValue,
		Shorthand: StrategyReferenceScope, Longhand: StrategyReferenceScope,
	},
	FamilyLet: {
		Family: FamilyLet, Prefix: "let", Target: TargetBoth,
		Value:     parameterValue,
		Shorthand: StrategyDeclareBinding, Longhand: StrategyNone,
	},
}

var byPrefix map[string]*Descriptor

func init() {
	byPrefix = make(map[string]*Descriptor, familyCount)
	for i := range table {
		byPrefix[table[i].Prefix] = &table[i]
	}
}

// Lookup returns the descriptor for prefix ("on", not "on:").
func Lookup(prefix string) (*Descriptor, bool) {
	d, ok := byPrefix[prefix]
	return d, ok
}

// Get returns the descriptor of f.
func Get(f Family) *Descriptor {
	return &table[f]
}

// All returns every descriptor in Family order.
func All() []*Descriptor {
	out := make([]*Descriptor, 0, familyCount)
	for i := range table {
		out = append(out, &table[i])
	}
	return out
}

// Prefixes returns every directive prefix in Family order.
func Prefixes() []string {
	out := make([]string, 0, familyCount)
	for i := range table {
		out = append(out, table[i].Prefix)
	}
	return out
}

// ValueKind returns the region kind an attribute's value is parsed as: the
// directive's value kind for directives and an attribute expression for
// everything else.
func ValueKind(attributeName string) builder.DualKind {
	if n, ok := Split(attributeName); ok {
		return n.Descriptor.Value
	}
	return expressionValue
}
