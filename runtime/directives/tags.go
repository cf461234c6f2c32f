package directives

import "strings"

// IsComponent reports whether tag names a component rather than a DOM
// element: capitalized names, dotted names and the dynamic component tags.
func IsComponent(tag string) bool {
	if tag == "" {
		return false
	}
	if c := tag[0]; c >= 'A' && c <= 'Z' {
		return true
	}
	if strings.Contains(tag, ".") {
		return true
	}
	return tag == "svelte:component" || tag == "svelte:self"
}

// IsSpecial reports whether tag is one of the svelte: elements.
func IsSpecial(tag string) bool {
	return strings.HasPrefix(tag, "svelte:")
}

// acceptsEffects rejects special elements that have no DOM node of their own
// to style or animate.
func acceptsEffects(tag string) bool {
	return !IsSpecial(tag) || tag == "svelte:element"
}

// acceptsActions rejects special elements an action cannot attach to.
func acceptsActions(tag string) bool {
	switch tag {
	case "svelte:window", "svelte:head", "svelte:options", "svelte:fragment":
		return false
	}
	return true
}

// PrefixCompletions returns the delimited prefixes ("on:") usable on tag.
func PrefixCompletions(tag string) []string {
	component := IsComponent(tag)
	var out []string
	for i := range table {
		d := &table[i]
		if d.Target == TargetBoth ||
			(d.Target == TargetComponent && component) ||
			(d.Target == TargetElement && !component) {
			out = append(out, d.DelimitedPrefix())
		}
	}
	return out
}
