package store

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"
)

var testMigrationsDir = filepath.Join("..", "..", "db", "migrations")

func TestMigrationsHaveMatchingUpAndDownFiles(t *testing.T) {
	entries, err := os.ReadDir(testMigrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	pattern := regexp.MustCompile(`^(\d+)_.*\.(up|down)\.sql$`)
	byVersion := map[string]map[string]bool{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := pattern.FindStringSubmatch(entry.Name())
		if match == nil {
			t.Fatalf("unexpected file in migrations dir: %s", entry.Name())
		}
		version, direction := match[1], match[2]
		if byVersion[version] == nil {
			byVersion[version] = map[string]bool{}
		}
		if byVersion[version][direction] {
			t.Fatalf("duplicate %s migration file for version %s", direction, version)
		}
		byVersion[version][direction] = true
	}

	if len(byVersion) == 0 {
		t.Fatal("no migrations discovered")
	}

	versions := make([]string, 0, len(byVersion))
	for version, dirs := range byVersion {
		if !dirs["up"] || !dirs["down"] {
			t.Fatalf("version %s must include both up and down files", version)
		}
		versions = append(versions, version)
	}
	sort.Strings(versions)
	for i, version := range versions {
		want := i + 1
		var got int
		for _, r := range version {
			got = got*10 + int(r-'0')
		}
		if got != want {
			t.Fatalf("migration versions must be contiguous: found %s at position %d", version, want)
		}
	}
}

func TestMigrationFilesSortsUpFiles(t *testing.T) {
	files, err := migrationFiles(testMigrationsDir, ".up.sql")
	if err != nil {
		t.Fatalf("migrationFiles() error = %v", err)
	}
	if len(files) < 2 {
		t.Fatalf("expected several up migrations, got %d", len(files))
	}
	if !sort.StringsAreSorted(files) {
		t.Fatalf("expected sorted files, got %v", files)
	}
	if filepath.Base(files[0]) != "0001_portfolio_schema.up.sql" {
		t.Fatalf("unexpected first migration %s", files[0])
	}
}
