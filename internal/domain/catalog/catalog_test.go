package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDefault_Valid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected built-in catalog to validate, got %v", err)
	}
	counts := c.Counts()
	for _, table := range []string{TableScreenings, TableImmunizations, TableChronicCare, TableInteractions, TableCrossReactivity} {
		if counts[table] == 0 {
			t.Errorf("expected rows in %s", table)
		}
	}
}

func TestDefault_FreshValue(t *testing.T) {
	a := Default()
	a.Screenings[0].Name = "changed"
	b := Default()
	if b.Screenings[0].Name == "changed" {
		t.Error("expected Default to return an independent value")
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	c := &Catalog{
		Screenings: []ScreeningRule{
			{ID: "a", Name: "A", MinAge: 50, MaxAge: 40, SatisfiedBy: []string{"x"}},
			{ID: "a", Name: "", MinAge: -1, MaxAge: 10, Sex: "other"},
		},
		ChronicCare: []ChronicCareRule{
			{ID: "c", Name: "C", RequiresConditions: []string{"diabetes"}},
		},
		Interactions: []InteractionRule{
			{ID: "i", Drug1: "Warfarin", Drug2: "warfarin", Severity: "severe"},
		},
		CrossReactivity: []CrossReactivityClass{
			{ID: "x", Name: "X", Allergens: []string{" "}, Members: []string{"m"}},
		},
	}
	err := c.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}

	want := map[string]bool{}
	for _, k := range []string{
		"catalog..version",
		"screenings[a].max_age",
		"screenings[a].id",
		"screenings[a].name",
		"screenings[a].min_age",
		"screenings[a].sex",
		"screenings[a].satisfied_by",
		"chronic-care[c].lab_id",
		"chronic-care[c].interval_months",
		"interactions[i].drug2",
		"interactions[i].severity",
		"cross-reactivity[x].allergens",
	} {
		want[k] = false
	}
	for _, p := range verr.Problems {
		key := p.Table + "[" + p.RuleID + "]." + p.Field
		if p.Table == "catalog" {
			key = "catalog.." + p.Field
		}
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("expected problem %s in %v", k, verr)
		}
	}
}

func TestStore_SwapRejectsInvalid(t *testing.T) {
	s, err := NewStore(Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := Default()
	bad.Version = ""
	if err := s.Swap(bad); err == nil {
		t.Fatal("expected invalid catalog to be rejected")
	}
	if s.Current().Version != DefaultVersion {
		t.Errorf("expected previous catalog to stay active, got %q", s.Current().Version)
	}
	if err := s.Swap(nil); err == nil {
		t.Error("expected nil catalog to be rejected")
	}
}

func TestStore_SwapPublishes(t *testing.T) {
	s, _ := NewStore(Default())
	next := Default().Clone()
	next.Version = "local-1"
	next.Interactions = next.Interactions[:1]
	if err := s.Swap(next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Current(); got.Version != "local-1" || len(got.Interactions) != 1 {
		t.Errorf("expected swapped catalog, got %s with %d interactions", got.Version, len(got.Interactions))
	}
}

type stubSource struct {
	c   *Catalog
	err error
}

func (stubSource) Name() string { return "stub" }

func (s stubSource) Load(context.Context) (*Catalog, error) { return s.c, s.err }

func TestStore_ReloadNotifiesObservers(t *testing.T) {
	s, _ := NewStore(Default())
	var results []string
	s.OnReload(func(source, version string, err error) {
		if err != nil {
			results = append(results, source+":error")
			return
		}
		results = append(results, source+":"+version)
	})

	next := Default()
	next.Version = "v2"
	if _, err := s.Reload(context.Background(), stubSource{c: next}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Reload(context.Background(), stubSource{err: errors.New("boom")}); err == nil {
		t.Fatal("expected load error")
	}
	if s.Current().Version != "v2" {
		t.Errorf("expected v2 to remain active, got %s", s.Current().Version)
	}
	if len(results) != 2 || results[0] != "stub:v2" || results[1] != "stub:error" {
		t.Errorf("unexpected observer calls: %v", results)
	}
}

func TestClone_Independent(t *testing.T) {
	a := Default()
	b := a.Clone()
	b.CrossReactivity[0].Members[0] = "changed"
	if a.CrossReactivity[0].Members[0] == "changed" {
		t.Error("expected clone to deep copy keyword lists")
	}
}

func TestTable(t *testing.T) {
	c := Default()
	rows, ok := c.Table(TableInteractions)
	if !ok || len(rows) != len(c.Interactions) {
		t.Fatalf("expected %d interaction rows, got %d", len(c.Interactions), len(rows))
	}
	if _, ok := c.Table("nope"); ok {
		t.Error("expected unknown table to return false")
	}
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `version: site-2024.11
screenings:
  - id: colorectal
    name: Colorectal Cancer Screening
    min_age: 45
    max_age: 75
    satisfied_by: [colonoscopy, fit test]
    interval_months: 120
    order_code: "45378"
interactions:
  - id: warfarin-ibuprofen
    drug1: warfarin
    drug2: ibuprofen
    severity: major
    description: Increased bleeding risk.
    recommendation: Avoid NSAIDs.
cross_reactivity:
  - id: penicillins
    name: Penicillins
    allergens: [penicillin]
    members: [amoxicillin]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected file catalog to validate, got %v", err)
	}
	if c.Version != "site-2024.11" {
		t.Errorf("expected version site-2024.11, got %s", c.Version)
	}
	if len(c.Screenings) != 1 || c.Screenings[0].MinAge != 45 || len(c.Screenings[0].SatisfiedBy) != 2 {
		t.Errorf("unexpected screenings: %+v", c.Screenings)
	}
	if len(c.Interactions) != 1 || c.Interactions[0].Severity != SeverityMajor {
		t.Errorf("unexpected interactions: %+v", c.Interactions)
	}
	if len(c.CrossReactivity) != 1 || c.CrossReactivity[0].Members[0] != "amoxicillin" {
		t.Errorf("unexpected cross reactivity: %+v", c.CrossReactivity)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read catalog file") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestWatch_MalformedFileIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("version: site-1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store, err := NewStore(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	results := make(chan error, 16)
	store.OnReload(func(_, _ string, err error) { results <- err })

	Watch(path, store, zerolog.Nop())
	if err := os.WriteFile(path, []byte("version: [site-2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-results:
		if err == nil {
			t.Error("expected the malformed file to be rejected")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected a reload attempt after the file changed")
	}
	if got := store.Current().Version; got != "site-1" {
		t.Errorf("expected site-1 to keep serving, got %s", got)
	}
}

type memRepo struct {
	stored *Catalog
}

func (m *memRepo) Load(context.Context) (*Catalog, error) {
	if m.stored == nil {
		return nil, errors.New("catalog has not been seeded")
	}
	return m.stored.Clone(), nil
}

func (m *memRepo) Replace(_ context.Context, c *Catalog) error {
	m.stored = c.Clone()
	return nil
}

func TestSeed(t *testing.T) {
	repo := &memRepo{}
	bad := Default()
	bad.Interactions[0].Severity = "unknown"
	if err := Seed(context.Background(), repo, bad); err == nil {
		t.Fatal("expected invalid catalog to be refused")
	}
	if repo.stored != nil {
		t.Fatal("expected nothing written for an invalid catalog")
	}
	if err := Seed(context.Background(), repo, Default()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, _ := NewStore(&Catalog{Version: "empty"})
	c, err := s.Reload(context.Background(), RepositorySource{Repo: repo})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Version != DefaultVersion {
		t.Errorf("expected %s, got %s", DefaultVersion, c.Version)
	}
}
