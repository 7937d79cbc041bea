package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/becomehq/alignd/internal/store"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedIdentity creates a user and an identity to hang child rows off.
func seedIdentity(t *testing.T, s *store.Store) *store.Identity {
	t.Helper()
	u, err := s.CreateUser("Ada")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	ident, err := s.CreateIdentity(u.ID, "A disciplined writer", "Writes every day")
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	return ident
}

func strPtr(s string) *string { return &s }

// ─── New / Initialization ───────────────────────────────────────────────────

func TestNew_CreatesDBFile(t *testing.T) {
	dir := t.TempDir()
	s, err := store.New(store.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer s.Close()

	dbPath := filepath.Join(dir, "identity_habit.db")
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created at %s: %v", dbPath, err)
	}
}

func TestNew_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := store.New(store.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}

func TestNew_IdempotentReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := store.Config{DataDir: dir}

	// Open, insert, close
	s1, err := store.New(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	u, err := s1.CreateUser("Ada")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s1.CreateIdentity(u.ID, "A runner", ""); err != nil {
		t.Fatalf("create identity: %v", err)
	}
	s1.Close()

	// Reopen — data should persist
	s2, err := store.New(cfg)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	got, err := s2.CurrentUser()
	if err != nil {
		t.Fatalf("CurrentUser after reopen: %v", err)
	}
	if got == nil || got.Name != "Ada" {
		t.Errorf("user after reopen = %+v, want name Ada", got)
	}
	idents, err := s2.ListIdentities(u.ID)
	if err != nil {
		t.Fatalf("ListIdentities after reopen: %v", err)
	}
	if len(idents) != 1 {
		t.Errorf("identities after reopen = %d, want 1", len(idents))
	}
}

// ─── Users ──────────────────────────────────────────────────────────────────

func TestCreateUser_ReturnsStoredRow(t *testing.T) {
	s := newTestStore(t)

	u, err := s.CreateUser("Ada")
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if u.Name != "Ada" {
		t.Errorf("Name = %q, want %q", u.Name, "Ada")
	}
	if u.CreatedAt == "" {
		t.Error("expected CreatedAt to be set")
	}
}

func TestCurrentUser_EmptyStore(t *testing.T) {
	s := newTestStore(t)

	u, err := s.CurrentUser()
	if err != nil {
		t.Fatalf("CurrentUser error: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil user on empty store, got %+v", u)
	}
}

func TestCurrentUser_ReturnsLatest(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateUser("First"); err != nil {
		t.Fatal(err)
	}
	second, err := s.CreateUser("Second")
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.CurrentUser()
	if err != nil {
		t.Fatalf("CurrentUser error: %v", err)
	}
	if got == nil || got.ID != second.ID {
		t.Errorf("CurrentUser = %+v, want id %d", got, second.ID)
	}
}

func TestEnsureUser_CreatesThenReuses(t *testing.T) {
	s := newTestStore(t)

	first, err := s.EnsureUser("Ada")
	if err != nil {
		t.Fatalf("first EnsureUser: %v", err)
	}
	if first.Name != "Ada" {
		t.Errorf("Name = %q, want %q", first.Name, "Ada")
	}

	// A second call must return the existing user, not create another.
	second, err := s.EnsureUser("Someone Else")
	if err != nil {
		t.Fatalf("second EnsureUser: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second EnsureUser id = %d, want %d", second.ID, first.ID)
	}
	if second.Name != "Ada" {
		t.Errorf("second EnsureUser name = %q, want %q (original)", second.Name, "Ada")
	}
}

// ─── Identities ─────────────────────────────────────────────────────────────

func TestCreateIdentity_EmptyDescription(t *testing.T) {
	s := newTestStore(t)
	u, err := s.CreateUser("Ada")
	if err != nil {
		t.Fatal(err)
	}

	ident, err := s.CreateIdentity(u.ID, "A runner", "")
	if err != nil {
		t.Fatalf("CreateIdentity error: %v", err)
	}
	if ident.Description != "" {
		t.Errorf("Description = %q, want empty", ident.Description)
	}
	if ident.UserID != u.ID {
		t.Errorf("UserID = %d, want %d", ident.UserID, u.ID)
	}
}

func TestListIdentities_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	u, err := s.CreateUser("Ada")
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"A", "B", "C"} {
		if _, err := s.CreateIdentity(u.ID, name, ""); err != nil {
			t.Fatalf("create identity %s: %v", name, err)
		}
	}

	idents, err := s.ListIdentities(u.ID)
	if err != nil {
		t.Fatalf("ListIdentities error: %v", err)
	}
	if len(idents) != 3 {
		t.Fatalf("got %d identities, want 3", len(idents))
	}
	want := []string{"C", "B", "A"}
	for i, w := range want {
		if idents[i].Name != w {
			t.Errorf("idents[%d].Name = %q, want %q", i, idents[i].Name, w)
		}
	}
}

func TestListIdentities_ScopedToUser(t *testing.T) {
	s := newTestStore(t)
	u1, _ := s.CreateUser("Ada")
	u2, _ := s.CreateUser("Grace")
	if _, err := s.CreateIdentity(u1.ID, "Ada's", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateIdentity(u2.ID, "Grace's", ""); err != nil {
		t.Fatal(err)
	}

	idents, err := s.ListIdentities(u1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(idents) != 1 || idents[0].Name != "Ada's" {
		t.Errorf("ListIdentities(u1) = %+v, want only Ada's", idents)
	}
}

func TestGetIdentity_Absent(t *testing.T) {
	s := newTestStore(t)

	ident, err := s.GetIdentity(999)
	if err != nil {
		t.Fatalf("GetIdentity error: %v", err)
	}
	if ident != nil {
		t.Errorf("expected nil for absent identity, got %+v", ident)
	}
}

func TestUpdateIdentity_NameOnly(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	got, err := s.UpdateIdentity(ident.ID, store.UpdateIdentityParams{
		Name: strPtr("A published writer"),
	})
	if err != nil {
		t.Fatalf("UpdateIdentity error: %v", err)
	}
	if got.Name != "A published writer" {
		t.Errorf("Name = %q, want %q", got.Name, "A published writer")
	}
	// Description must survive a name-only update.
	if got.Description != ident.Description {
		t.Errorf("Description = %q, want %q (untouched)", got.Description, ident.Description)
	}
}

func TestUpdateIdentity_DescriptionToEmpty(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	got, err := s.UpdateIdentity(ident.ID, store.UpdateIdentityParams{
		Description: strPtr(""),
	})
	if err != nil {
		t.Fatalf("UpdateIdentity error: %v", err)
	}
	if got.Description != "" {
		t.Errorf("Description = %q, want empty", got.Description)
	}
	if got.Name != ident.Name {
		t.Errorf("Name = %q, want %q (untouched)", got.Name, ident.Name)
	}
}

func TestUpdateIdentity_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpdateIdentity(999, store.UpdateIdentityParams{Name: strPtr("x")})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteIdentity_CascadesChildren(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	for _, name := range []string{"disciplined", "patient"} {
		if _, err := s.CreateTrait(ident.ID, name); err != nil {
			t.Fatalf("create trait: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		_, err := s.LogBehavior(store.LogBehaviorParams{
			Date:           "2026-08-28",
			Description:    "wrote 500 words",
			IdentityID:     ident.ID,
			AlignmentScore: 8,
		})
		if err != nil {
			t.Fatalf("log behavior: %v", err)
		}
	}
	if _, err := s.SaveReflection("2026-08-28", `{"title":"t"}`, ident.ID); err != nil {
		t.Fatalf("save reflection: %v", err)
	}

	if err := s.DeleteIdentity(ident.ID); err != nil {
		t.Fatalf("DeleteIdentity error: %v", err)
	}

	traits, err := s.ListTraits(ident.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(traits) != 0 {
		t.Errorf("got %d traits after cascade, want 0", len(traits))
	}
	behaviors, err := s.BehaviorsForDate(ident.ID, "2026-08-28")
	if err != nil {
		t.Fatal(err)
	}
	if len(behaviors) != 0 {
		t.Errorf("got %d behaviors after cascade, want 0", len(behaviors))
	}
	refl, err := s.ReflectionForDate(ident.ID, "2026-08-28")
	if err != nil {
		t.Fatal(err)
	}
	if refl != nil {
		t.Errorf("reflection survived cascade: %+v", refl)
	}
}

// ─── Traits ─────────────────────────────────────────────────────────────────

func TestCreateTrait_AndList(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	for _, name := range []string{"disciplined", "patient", "curious"} {
		if _, err := s.CreateTrait(ident.ID, name); err != nil {
			t.Fatalf("create trait %s: %v", name, err)
		}
	}

	traits, err := s.ListTraits(ident.ID)
	if err != nil {
		t.Fatalf("ListTraits error: %v", err)
	}
	if len(traits) != 3 {
		t.Fatalf("got %d traits, want 3", len(traits))
	}
	// Creation order.
	want := []string{"disciplined", "patient", "curious"}
	for i, w := range want {
		if traits[i].Name != w {
			t.Errorf("traits[%d].Name = %q, want %q", i, traits[i].Name, w)
		}
	}
}

func TestDeleteTrait_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	tr, err := s.CreateTrait(ident.ID, "disciplined")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTrait(tr.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	// Deleting again must not error.
	if err := s.DeleteTrait(tr.ID); err != nil {
		t.Errorf("second delete: %v", err)
	}

	traits, err := s.ListTraits(ident.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(traits) != 0 {
		t.Errorf("got %d traits, want 0", len(traits))
	}
}

// ─── Behavior logs ──────────────────────────────────────────────────────────

func TestLogBehavior_Roundtrip(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	b, err := s.LogBehavior(store.LogBehaviorParams{
		Date:           "2026-08-28",
		Description:    "wrote 500 words",
		IdentityID:     ident.ID,
		AlignmentScore: 8,
	})
	if err != nil {
		t.Fatalf("LogBehavior error: %v", err)
	}
	if b.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if b.AlignmentScore != 8 {
		t.Errorf("AlignmentScore = %d, want 8", b.AlignmentScore)
	}

	got, err := s.BehaviorsForDate(ident.ID, "2026-08-28")
	if err != nil {
		t.Fatalf("BehaviorsForDate error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d behaviors, want 1", len(got))
	}
	if got[0].Description != "wrote 500 words" {
		t.Errorf("Description = %q, want %q", got[0].Description, "wrote 500 words")
	}
}

func TestLogBehavior_ScoreOutOfRange(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	for _, score := range []int{0, -1, 11, 100} {
		_, err := s.LogBehavior(store.LogBehaviorParams{
			Date:           "2026-08-28",
			Description:    "whatever",
			IdentityID:     ident.ID,
			AlignmentScore: score,
		})
		if !errors.Is(err, store.ErrInvalidScore) {
			t.Errorf("score %d: error = %v, want ErrInvalidScore", score, err)
		}
	}

	// Nothing must have been written.
	got, err := s.BehaviorsForDate(ident.ID, "2026-08-28")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d behaviors after rejected writes, want 0", len(got))
	}
}

func TestLogBehavior_BoundaryScores(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	for _, score := range []int{1, 10} {
		b, err := s.LogBehavior(store.LogBehaviorParams{
			Date:           "2026-08-28",
			Description:    "boundary",
			IdentityID:     ident.ID,
			AlignmentScore: score,
		})
		if err != nil {
			t.Fatalf("score %d: %v", score, err)
		}
		if b.AlignmentScore != score {
			t.Errorf("AlignmentScore = %d, want %d", b.AlignmentScore, score)
		}
	}
}

func TestBehaviorsForDate_EmptyDay(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	got, err := s.BehaviorsForDate(ident.ID, "2026-01-01")
	if err != nil {
		t.Fatalf("BehaviorsForDate error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d behaviors, want 0", len(got))
	}
}

func TestListBehaviors_DateBounds(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	dates := []string{"2026-08-25", "2026-08-26", "2026-08-27", "2026-08-28"}
	for _, d := range dates {
		_, err := s.LogBehavior(store.LogBehaviorParams{
			Date:           d,
			Description:    "on " + d,
			IdentityID:     ident.ID,
			AlignmentScore: 5,
		})
		if err != nil {
			t.Fatalf("log %s: %v", d, err)
		}
	}

	t.Run("unbounded", func(t *testing.T) {
		got, err := s.ListBehaviors(ident.ID, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 4 {
			t.Fatalf("got %d, want 4", len(got))
		}
		// Newest date first.
		if got[0].Date != "2026-08-28" || got[3].Date != "2026-08-25" {
			t.Errorf("order = [%s ... %s], want newest first", got[0].Date, got[3].Date)
		}
	})

	t.Run("from only", func(t *testing.T) {
		got, err := s.ListBehaviors(ident.ID, strPtr("2026-08-27"), nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("got %d, want 2", len(got))
		}
	})

	t.Run("to only", func(t *testing.T) {
		got, err := s.ListBehaviors(ident.ID, nil, strPtr("2026-08-26"))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("got %d, want 2", len(got))
		}
	})

	t.Run("both bounds inclusive", func(t *testing.T) {
		got, err := s.ListBehaviors(ident.ID, strPtr("2026-08-26"), strPtr("2026-08-27"))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d, want 2", len(got))
		}
		if got[0].Date != "2026-08-27" || got[1].Date != "2026-08-26" {
			t.Errorf("order = [%s, %s], want [2026-08-27, 2026-08-26]", got[0].Date, got[1].Date)
		}
	})
}

// ─── Analytics ──────────────────────────────────────────────────────────────

func TestWeeklyAlignment_Aggregates(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	// Day 1: scores 4 and 8 → avg 6.0, count 2. Day 2: score 10 → avg 10.0, count 1.
	entries := []store.LogBehaviorParams{
		{Date: "2026-08-24", Description: "a", IdentityID: ident.ID, AlignmentScore: 4},
		{Date: "2026-08-24", Description: "b", IdentityID: ident.ID, AlignmentScore: 8},
		{Date: "2026-08-25", Description: "c", IdentityID: ident.ID, AlignmentScore: 10},
	}
	for _, e := range entries {
		if _, err := s.LogBehavior(e); err != nil {
			t.Fatalf("log behavior: %v", err)
		}
	}

	days, err := s.WeeklyAlignment(ident.ID, "2026-08-24", "2026-08-30")
	if err != nil {
		t.Fatalf("WeeklyAlignment error: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
	if days[0].Date != "2026-08-24" || days[0].AvgScore != 6.0 || days[0].Count != 2 {
		t.Errorf("days[0] = %+v, want {2026-08-24 6 2}", days[0])
	}
	if days[1].Date != "2026-08-25" || days[1].AvgScore != 10.0 || days[1].Count != 1 {
		t.Errorf("days[1] = %+v, want {2026-08-25 10 1}", days[1])
	}
}

func TestWeeklyAlignment_EmptyRange(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	days, err := s.WeeklyAlignment(ident.ID, "2020-01-01", "2020-01-07")
	if err != nil {
		t.Fatalf("WeeklyAlignment error: %v", err)
	}
	if len(days) != 0 {
		t.Errorf("got %d days, want 0", len(days))
	}
}

func TestAlignmentTrends_ExcludesOldEntries(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	// A behavior far in the past must fall outside any sane window.
	if _, err := s.LogBehavior(store.LogBehaviorParams{
		Date: "2000-01-01", Description: "ancient", IdentityID: ident.ID, AlignmentScore: 3,
	}); err != nil {
		t.Fatal(err)
	}

	trends, err := s.AlignmentTrends(ident.ID, 14)
	if err != nil {
		t.Fatalf("AlignmentTrends error: %v", err)
	}
	for _, tr := range trends {
		if tr.Date == "2000-01-01" {
			t.Errorf("trend window included entry from 2000-01-01")
		}
	}
}

func TestAlignmentTrends_DefaultWindow(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	// days <= 0 falls back to the 14-day default rather than erroring.
	if _, err := s.AlignmentTrends(ident.ID, 0); err != nil {
		t.Errorf("AlignmentTrends(0) error: %v", err)
	}
	if _, err := s.AlignmentTrends(ident.ID, -5); err != nil {
		t.Errorf("AlignmentTrends(-5) error: %v", err)
	}
}

// ─── Daily reflections ──────────────────────────────────────────────────────

func TestSaveReflection_Roundtrip(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	r, err := s.SaveReflection("2026-08-28", `{"title":"Good day"}`, ident.ID)
	if err != nil {
		t.Fatalf("SaveReflection error: %v", err)
	}
	if r.Content != `{"title":"Good day"}` {
		t.Errorf("Content = %q", r.Content)
	}

	got, err := s.ReflectionForDate(ident.ID, "2026-08-28")
	if err != nil {
		t.Fatalf("ReflectionForDate error: %v", err)
	}
	if got == nil || got.ID != r.ID {
		t.Errorf("ReflectionForDate = %+v, want id %d", got, r.ID)
	}
}

func TestSaveReflection_ReplacesSameDay(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	if _, err := s.SaveReflection("2026-08-28", `{"title":"First"}`, ident.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveReflection("2026-08-28", `{"title":"Second"}`, ident.ID); err != nil {
		t.Fatal(err)
	}

	// Exactly one row for the day, holding the latest content.
	list, err := s.ListReflections(ident.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d reflections, want 1", len(list))
	}
	if list[0].Content != `{"title":"Second"}` {
		t.Errorf("Content = %q, want the replacement", list[0].Content)
	}
}

func TestSaveReflection_DistinctIdentitiesSameDay(t *testing.T) {
	s := newTestStore(t)
	u, _ := s.CreateUser("Ada")
	i1, _ := s.CreateIdentity(u.ID, "Writer", "")
	i2, _ := s.CreateIdentity(u.ID, "Runner", "")

	if _, err := s.SaveReflection("2026-08-28", `{"a":1}`, i1.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveReflection("2026-08-28", `{"b":2}`, i2.ID); err != nil {
		t.Fatal(err)
	}

	r1, _ := s.ReflectionForDate(i1.ID, "2026-08-28")
	r2, _ := s.ReflectionForDate(i2.ID, "2026-08-28")
	if r1 == nil || r2 == nil {
		t.Fatal("expected reflections for both identities")
	}
	if r1.Content == r2.Content {
		t.Error("upsert crossed identity boundary")
	}
}

func TestReflectionForDate_Absent(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	got, err := s.ReflectionForDate(ident.ID, "2026-01-01")
	if err != nil {
		t.Fatalf("ReflectionForDate error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestListReflections_NewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	ident := seedIdentity(t, s)

	dates := []string{"2026-08-25", "2026-08-26", "2026-08-27"}
	for _, d := range dates {
		if _, err := s.SaveReflection(d, `{"d":"`+d+`"}`, ident.ID); err != nil {
			t.Fatalf("save %s: %v", d, err)
		}
	}

	list, err := s.ListReflections(ident.ID, 2)
	if err != nil {
		t.Fatalf("ListReflections error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d, want 2", len(list))
	}
	if list[0].Date != "2026-08-27" || list[1].Date != "2026-08-26" {
		t.Errorf("order = [%s, %s], want newest first", list[0].Date, list[1].Date)
	}
}
