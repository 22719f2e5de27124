package mojang

import "testing"

func catalog(ids ...string) *Manifest {
	m := &Manifest{}
	for _, id := range ids {
		m.Versions = append(m.Versions, ManifestVersion{ID: id, URL: "https://example.invalid/" + id + ".json"})
	}

	return m
}

func TestFind(t *testing.T) {
	m := catalog("1.20.1", "1.20", "1.19.4")

	if v := m.Find("1.20"); v == nil || v.ID != "1.20" {
		t.Errorf("Find(1.20) = %v", v)
	}
	if v := m.Find("1.99"); v != nil {
		t.Errorf("Find(1.99) = %v, want nil", v)
	}
}

func TestFindFuzzyExactMatchWins(t *testing.T) {
	m := catalog("1.16.5", "1.16.4", "1.16.3")

	if v := m.FindFuzzy("1.16.4", "1.16"); v == nil || v.ID != "1.16.4" {
		t.Errorf("FindFuzzy(1.16.4) = %v, want 1.16.4", v)
	}
}

func TestFindFuzzyPrefixRestricts(t *testing.T) {
	m := catalog("1.8.9", "b1.8.1", "b1.7.3", "a1.2.6")

	// Without the prefix, "1.8" would land on the release.
	if v := m.FindFuzzy("b1.8", "b1."); v == nil || v.ID != "b1.8.1" {
		t.Errorf("FindFuzzy(b1.8, b1.) = %v, want b1.8.1", v)
	}

	if v := m.FindFuzzy("anything", "zzz"); v != nil {
		t.Errorf("FindFuzzy with impossible prefix = %v, want nil", v)
	}
}

func TestFindFuzzyTieKeepsCatalogOrder(t *testing.T) {
	// "1.16." is equidistant from both; the catalog lists newer first.
	m := catalog("1.16.5", "1.16.4")

	if v := m.FindFuzzy("1.16.", ""); v == nil || v.ID != "1.16.5" {
		t.Errorf("FindFuzzy tie = %v, want 1.16.5", v)
	}
}
