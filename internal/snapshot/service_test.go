package snapshot

import (
	"errors"
	"path/filepath"
	"testing"

	"portfolio/api/internal/store"
)

func document(title string) []store.SectionDocument {
	doc := store.NewSectionDocument(store.Section{ID: "sec_1", Slug: "about", Title: title, Type: "introduction", Visible: true})
	doc.TextBlocks = []store.TextBlock{{ID: "tb_1", SectionID: "sec_1", Content: "Hi"}}
	return []store.SectionDocument{doc}
}

func TestSnapshotLifecycle(t *testing.T) {
	svc := New(filepath.Join(t.TempDir(), "snapshots"))

	history, err := svc.History(10)
	if err != nil {
		t.Fatalf("History() on empty dir error = %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d", len(history))
	}

	first, err := svc.Commit("First", "Jane Doe", document("About"))
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if len(first.Hash) != 40 || first.Message != "First" || first.Author != "Jane Doe" {
		t.Fatalf("unexpected commit %+v", first)
	}

	second, err := svc.Commit("", "Jane Doe", document("About me"))
	if err != nil {
		t.Fatalf("second Commit() error = %v", err)
	}
	if second.Message == "" {
		t.Fatal("expected a default message")
	}

	history, err = svc.History(0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 || history[0].Hash != second.Hash || history[1].Hash != first.Hash {
		t.Fatalf("unexpected history %+v", history)
	}

	limited, err := svc.History(1)
	if err != nil {
		t.Fatalf("History(1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(limited))
	}

	commit, sections, err := svc.Get(first.Hash[:7])
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if commit.Hash != first.Hash {
		t.Fatalf("expected %s, got %s", first.Hash, commit.Hash)
	}
	if len(sections) != 1 || sections[0].Title != "About" || len(sections[0].TextBlocks) != 1 {
		t.Fatalf("unexpected stored document %+v", sections)
	}
}

func TestSnapshotWithoutChangesIsRejected(t *testing.T) {
	svc := New(t.TempDir())
	if _, err := svc.Commit("one", "Admin", document("About")); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if _, err := svc.Commit("two", "Admin", document("About")); !errors.Is(err, ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}
}

func TestGetUnknownSnapshot(t *testing.T) {
	svc := New(t.TempDir())
	if _, _, err := svc.Get("abcdef1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any commit, got %v", err)
	}
	if _, err := svc.Commit("one", "Admin", document("About")); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	for _, hash := range []string{"abcdef1", "not-a-hash", "ab"} {
		if _, _, err := svc.Get(hash); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get(%q) expected ErrNotFound, got %v", hash, err)
		}
	}
}

func TestSanitizeEmail(t *testing.T) {
	tests := map[string]string{
		"Jane Doe": "jane.doe",
		"":         "admin",
		"!!":       "admin",
		"a_b-c":    "a.b.c",
	}
	for input, want := range tests {
		if got := sanitizeEmail(input); got != want {
			t.Fatalf("sanitizeEmail(%q) = %q, want %q", input, got, want)
		}
	}
}
