package theme

import "testing"

func TestCategoryLookup(t *testing.T) {
	th := Default()

	if c := th.Category("passages"); c == nil || c.ID != "passages" {
		t.Fatalf("Category(passages) = %v", c)
	}
	if c := th.Category("nope"); c != nil {
		t.Errorf("Category(nope) = %v, want nil", c)
	}
}

func TestAssetLookup(t *testing.T) {
	th := Default()

	if a := th.Asset("sanctum"); a == nil || !a.SpawnOnce {
		t.Fatalf("Asset(sanctum) = %v, want spawn-once asset", a)
	}
	if a := th.Asset("nope"); a != nil {
		t.Errorf("Asset(nope) = %v, want nil", a)
	}
}

func TestRequiredMinimum(t *testing.T) {
	th := &Theme{
		Categories: []Category{
			{ID: "a", Required: true, Limits: &Limits{Min: 2, Max: 4}},
			{ID: "b", Required: true}, // unlimited required counts as one
			{ID: "c"},                 // not required
		},
	}
	if got := th.RequiredMinimum(); got != 3 {
		t.Errorf("RequiredMinimum = %d, want 3", got)
	}
}

func TestLimited(t *testing.T) {
	c := Category{}
	if c.Limited() {
		t.Error("category without limits should not be limited")
	}
	c.Limits = &Limits{Min: 1, Max: 2}
	if !c.Limited() {
		t.Error("category with limits should be limited")
	}
}

func TestDefaultThemeIsValid(t *testing.T) {
	if vs := Validate(Default()); len(vs) != 0 {
		t.Errorf("Default theme has violations: %v", vs)
	}
}
