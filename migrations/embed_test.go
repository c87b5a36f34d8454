package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	ups, downs := map[string]bool{}, map[string]bool{}
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	if len(ups) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for version := range ups {
		if !downs[version] {
			t.Errorf("migration %s has no down file", version)
		}
	}
}

func TestInitCreatesEngineTables(t *testing.T) {
	raw, err := fs.ReadFile(FS, "000001_init.up.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, table := range []string{"buyers", "leads", "suppliers", "lead_views", "lead_interactions", "outbox"} {
		if !strings.Contains(string(raw), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("expected table %s", table)
		}
	}
}
