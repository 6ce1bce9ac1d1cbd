package comps

import (
	"testing"
)

func seedQueryRepo(t *testing.T) *Repository {
	t.Helper()
	repo, _ := testRepo(t)

	seed := map[string]Fields{
		"blade-ace": {
			Notes: strPtr("<p>Carry build, rush the <b>sword</b> early.</p>"),
			Items: &[]string{"Sword", "Shield"},
			Tags:  &[]string{"aggro", "carry"},
		},
		"mage-lane": {
			Notes: strPtr("<p>Burst from range.</p>"),
			Items: &[]string{"Staff", "Orb"},
			Tags:  &[]string{"poke"},
		},
		"turtle": {
			Notes: strPtr(""),
			Items: &[]string{"Shield", "Armor"},
			Tags:  &[]string{"defensive"},
		},
	}
	for name, f := range seed {
		if err := repo.Add(name); err != nil {
			t.Fatal(err)
		}
		if err := repo.Update(name, f); err != nil {
			t.Fatal(err)
		}
	}
	return repo
}

func strPtr(s string) *string { return &s }

func names(rs []Named) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Name)
	}
	return out
}

func TestQueryEmptyReturnsAllSorted(t *testing.T) {
	repo := seedQueryRepo(t)
	got := names(repo.Query("", ""))
	want := []string{"blade-ace", "mage-lane", "turtle"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestQueryTokensAreConjunctive(t *testing.T) {
	repo := seedQueryRepo(t)

	// "sword" from notes, "carry" from tags: both must match the same comp.
	got := names(repo.Query("sword carry", ""))
	if len(got) != 1 || got[0] != "blade-ace" {
		t.Errorf("got %v, want [blade-ace]", got)
	}

	if got := repo.Query("sword poke", ""); len(got) != 0 {
		t.Errorf("conflicting tokens matched %v", names(got))
	}
}

func TestQueryMatchesTagStrippedNotes(t *testing.T) {
	repo := seedQueryRepo(t)

	// Markup must not be searchable: "<b>" is a tag, not content.
	if got := repo.Query("<b>", ""); len(got) != 0 {
		t.Errorf("markup matched %v", names(got))
	}
	got := names(repo.Query("burst", ""))
	if len(got) != 1 || got[0] != "mage-lane" {
		t.Errorf("got %v, want [mage-lane]", got)
	}
}

func TestQueryNoMatch(t *testing.T) {
	repo := seedQueryRepo(t)
	if got := repo.Query("zzznotfound", ""); len(got) != 0 {
		t.Errorf("got %v, want empty", names(got))
	}
}

func TestQueryCaseInsensitive(t *testing.T) {
	repo := seedQueryRepo(t)
	got := names(repo.Query("SWORD", ""))
	if len(got) != 1 || got[0] != "blade-ace" {
		t.Errorf("got %v, want [blade-ace]", got)
	}
}

func TestQueryTagFilter(t *testing.T) {
	repo := seedQueryRepo(t)

	got := names(repo.Query("", "defensive"))
	if len(got) != 1 || got[0] != "turtle" {
		t.Errorf("got %v, want [turtle]", got)
	}

	// Tag filter is exact: a substring does not match.
	if got := repo.Query("", "def"); len(got) != 0 {
		t.Errorf("substring tag matched %v", names(got))
	}

	// Filter and search compose.
	if got := repo.Query("shield", "aggro"); len(got) != 1 || got[0].Name != "blade-ace" {
		t.Errorf("composed query got %v", names(got))
	}
}

func TestPlannerMatchSubset(t *testing.T) {
	repo := seedQueryRepo(t)

	got := names(repo.PlannerMatch([]string{"Sword", "Shield"}))
	if len(got) != 1 || got[0] != "blade-ace" {
		t.Errorf("got %v, want [blade-ace]", got)
	}

	// One owned item missing from the comp: no match.
	if got := repo.PlannerMatch([]string{"Sword", "Orb"}); len(got) != 0 {
		t.Errorf("partial ownership matched %v", names(got))
	}
}

func TestPlannerMatchCaseInsensitive(t *testing.T) {
	repo := seedQueryRepo(t)
	got := names(repo.PlannerMatch([]string{"sword", "SHIELD"}))
	if len(got) != 1 || got[0] != "blade-ace" {
		t.Errorf("got %v, want [blade-ace]", got)
	}
}

func TestPlannerMatchEmptyOwnedMatchesAll(t *testing.T) {
	repo := seedQueryRepo(t)
	if got := repo.PlannerMatch(nil); len(got) != 3 {
		t.Errorf("got %d comps, want 3", len(got))
	}
}
