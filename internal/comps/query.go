package comps

import (
	"strings"

	"github.com/starford/gebo/internal/markup"
	"github.com/starford/gebo/internal/models"
)

// Query returns the name-sorted comps matching both filters. An empty
// search and an empty tag each mean "match all".
//
// Search is a conjunctive multi-field token match: every whitespace-
// separated token must case-insensitively appear in at least one of the
// comp's name, tag-stripped notes text, items, or tags. The tag filter is
// case-insensitive membership in the comp's tag sequence.
func (r *Repository) Query(search, tag string) []Named {
	r.mu.Lock()
	all := r.allLocked()
	r.mu.Unlock()

	tokens := strings.Fields(strings.ToLower(search))
	tag = strings.ToLower(strings.TrimSpace(tag))

	if len(tokens) == 0 && tag == "" {
		return all
	}

	out := make([]Named, 0, len(all))
	for _, n := range all {
		if tag != "" && !hasTag(n.Comp, tag) {
			continue
		}
		if !matchesTokens(n.Name, n.Comp, tokens) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// PlannerMatch returns comps whose required items contain every owned item:
// the owned set must be a subset of the comp's item list, compared by
// case-insensitive equality.
func (r *Repository) PlannerMatch(owned []string) []Named {
	r.mu.Lock()
	all := r.allLocked()
	r.mu.Unlock()

	out := make([]Named, 0, len(all))
	for _, n := range all {
		if containsAllItems(n.Comp.Items, owned) {
			out = append(out, n)
		}
	}
	return out
}

func matchesTokens(name string, c models.Comp, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	fields := []string{strings.ToLower(name), strings.ToLower(markup.StripTags(c.Notes))}
	for _, it := range c.Items {
		fields = append(fields, strings.ToLower(it))
	}
	for _, t := range c.Tags {
		fields = append(fields, strings.ToLower(t))
	}

	for _, tok := range tokens {
		found := false
		for _, f := range fields {
			if strings.Contains(f, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func hasTag(c models.Comp, tag string) bool {
	for _, t := range c.Tags {
		if strings.ToLower(t) == tag {
			return true
		}
	}
	return false
}

func containsAllItems(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
