package theme

import (
	"fmt"
	"testing"

	"github.com/matzehuels/themecheck/pkg/errors"
)

func entry(name string) Entry {
	return Entry{Name: name, RepositoryURL: "https://github.com/hexo/" + name}
}

func TestNewCollectionSorts(t *testing.T) {
	c, err := NewCollection([]Entry{entry("B"), entry("A"), entry("a"), entry("C")})
	if err != nil {
		t.Fatalf("NewCollection() error: %v", err)
	}
	var got []string
	for _, e := range c.Entries {
		got = append(got, e.Name)
	}
	want := []string{"A", "B", "C", "a"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestNewCollectionDoesNotMutateInput(t *testing.T) {
	in := []Entry{entry("B"), entry("A")}
	if _, err := NewCollection(in); err != nil {
		t.Fatal(err)
	}
	if in[0].Name != "B" {
		t.Errorf("input was reordered: %v", in)
	}
}

func TestNewCollectionContract(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"duplicate", []Entry{entry("A"), entry("B"), entry("A")}},
		{"no name", []Entry{entry("A"), {RepositoryURL: "https://github.com/x/y"}}},
		{"relative url", []Entry{{Name: "A", RepositoryURL: "/hexo/a"}}},
		{"bad scheme", []Entry{{Name: "A", RepositoryURL: "ftp://github.com/hexo/a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCollection(tt.entries)
			if !errors.Is(err, errors.ErrCodeContract) {
				t.Errorf("NewCollection() error = %v, want CONTRACT_VIOLATION", err)
			}
		})
	}
}

func TestSelectTargets(t *testing.T) {
	c, _ := NewCollection([]Entry{
		entry("D"), entry("C"), entry("B"), entry("A"),
		{Name: "AA", RepositoryURL: "https://gitlab.com/x/aa"},
	})

	n, err := c.SelectTargets(2, "github.com")
	if err != nil {
		t.Fatalf("SelectTargets() error: %v", err)
	}
	if n != 2 {
		t.Errorf("SelectTargets() = %d, want 2", n)
	}
	want := map[string]bool{"A": true, "AA": false, "B": true, "C": false, "D": false}
	for _, e := range c.Entries {
		if e.IsTarget != want[e.Name] {
			t.Errorf("%s.IsTarget = %v, want %v", e.Name, e.IsTarget, want[e.Name])
		}
	}
}

func TestSelectTargetsLimitExceedsEligible(t *testing.T) {
	c, _ := NewCollection([]Entry{entry("A"), {Name: "B", RepositoryURL: "https://example.com/b"}})
	n, _ := c.SelectTargets(10, "GitHub.com")
	if n != 1 {
		t.Errorf("SelectTargets() = %d, want 1", n)
	}
}

func TestSelectTargetsRequiresHTTPSDefaultPort(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://github.com/x/a", true},
		{"HTTPS://GitHub.com/x/a", true},
		{"http://github.com/x/a", false},
		{"https://github.com:8443/x/a", false},
		{"https://github.com:443/x/a", false},
		{"https://github.com.example.org/x/a", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			c, _ := NewCollection([]Entry{{Name: "A", RepositoryURL: tt.url}})
			n, err := c.SelectTargets(1, "github.com")
			if err != nil {
				t.Fatalf("SelectTargets() error: %v", err)
			}
			if got := n == 1 && c.Entries[0].IsTarget; got != tt.want {
				t.Errorf("targeted = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectTargetsInvalidLimit(t *testing.T) {
	c, _ := NewCollection([]Entry{entry("A")})
	if _, err := c.SelectTargets(0, "github.com"); !errors.Is(err, errors.ErrCodeInvariant) {
		t.Errorf("SelectTargets(0) error = %v, want INVARIANT", err)
	}
}

func TestEntryFailKeepsFirst(t *testing.T) {
	var e Entry
	if !e.Fail(StageResolve, errors.New(errors.ErrCodeNoConfig, "no link")) {
		t.Fatal("first Fail() not recorded")
	}
	if e.Fail(StageDownload, errors.New(errors.ErrCodeNotFound, "404")) {
		t.Error("second Fail() overwrote the first")
	}
	if e.Error.Stage != StageResolve || e.Error.Code != errors.ErrCodeNoConfig {
		t.Errorf("Error = %+v", e.Error)
	}
	if e.Fail(StageParse, nil) {
		t.Error("Fail(nil) recorded")
	}
}

func TestEntryFailUncoded(t *testing.T) {
	var e Entry
	e.Fail(StageParse, fmt.Errorf("boom"))
	if e.Error.Code != errors.ErrCodeInternal {
		t.Errorf("Code = %s, want %s", e.Error.Code, errors.ErrCodeInternal)
	}
}

func TestEntryOutcome(t *testing.T) {
	doc := NewDocument(map[string]any{})
	failed := &ErrorInfo{Code: errors.ErrCodeNotFound}

	tests := []struct {
		name  string
		entry Entry
		want  Outcome
	}{
		{"skipped", Entry{}, OutcomeSkipped},
		{"pending", Entry{IsTarget: true}, OutcomePending},
		{"errored", Entry{IsTarget: true, Error: failed}, OutcomeErrored},
		{"demoted errored", Entry{Error: failed}, OutcomeErrored},
		{"parsed", Entry{IsTarget: true, Config: doc}, OutcomeParsed},
		{"parsed wins", Entry{IsTarget: true, Config: doc, Error: failed}, OutcomeParsed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Outcome(); got != tt.want {
				t.Errorf("Outcome() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntryActive(t *testing.T) {
	e := Entry{IsTarget: true}
	if !e.Active() {
		t.Error("target without error should be active")
	}
	e.Fail(StageResolve, errors.New(errors.ErrCodeNoConfig, "x"))
	if e.Active() {
		t.Error("failed entry should not be active")
	}
}

func TestCollectionStats(t *testing.T) {
	c, _ := NewCollection([]Entry{entry("A"), entry("B"), entry("C"), entry("D")})
	c.SelectTargets(3, "github.com")

	a := c.Get("A")
	a.ConfigRawURL = "https://raw.githubusercontent.com/hexo/A/master/_config.yml"
	a.Downloaded = true
	a.Config = NewDocument(nil)

	c.Get("B").Fail(StageResolve, errors.New(errors.ErrCodeNoConfig, "none"))
	c.Get("C").Fail(StageDownload, errors.New(errors.ErrCodeNotFound, "404"))

	s := c.Stats()
	want := Stats{Discovered: 4, Targeted: 3, Resolved: 1, Downloaded: 1, Parsed: 1, Errored: 2, Skipped: 1}
	if s.Discovered != want.Discovered || s.Targeted != want.Targeted || s.Resolved != want.Resolved ||
		s.Downloaded != want.Downloaded || s.Parsed != want.Parsed || s.Errored != want.Errored ||
		s.Skipped != want.Skipped {
		t.Errorf("Stats() = %+v, want %+v", s, want)
	}
	if s.ErrorCodes[errors.ErrCodeNoConfig] != 1 || s.ErrorCodes[errors.ErrCodeNotFound] != 1 {
		t.Errorf("ErrorCodes = %v", s.ErrorCodes)
	}
}

func TestCollectionGet(t *testing.T) {
	c, _ := NewCollection([]Entry{entry("landscape"), entry("next")})
	if c.Get("next") == nil {
		t.Error("Get(next) = nil")
	}
	if c.Get("missing") != nil {
		t.Error("Get(missing) != nil")
	}
	c.Get("next").IsTarget = true
	if !c.Entries[1].IsTarget {
		t.Error("Get() should return a pointer into the arena")
	}
}

func TestDocumentField(t *testing.T) {
	doc := NewDocument(map[string]any{"menu": nil, "nav": []any{"a"}})

	if v, ok := doc.Field("menu"); !ok || v != nil {
		t.Errorf("Field(menu) = %v, %v; want nil, true", v, ok)
	}
	if _, ok := doc.Field("links"); ok {
		t.Error("Field(links) should be absent")
	}
	if doc.Fields() != 2 {
		t.Errorf("Fields() = %d, want 2", doc.Fields())
	}

	scalar := NewDocument("just a string")
	if _, ok := scalar.Field("menu"); ok {
		t.Error("scalar root should have no fields")
	}

	var nilDoc *Document
	if _, ok := nilDoc.Field("menu"); ok {
		t.Error("nil document should have no fields")
	}
}
