package migrate

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		in      string
		version string
		name    string
		ok      bool
	}{
		{"0001_sensors.sql", "0001", "sensors", true},
		{"0042_add_index_on_ts.sql", "0042", "add_index_on_ts", true},
		{"1_short.sql", "", "", false},
		{"0001_sensors.txt", "", "", false},
		{"README.md", "", "", false},
	}
	for _, tt := range tests {
		v, n, ok := parseMigrationFilename(tt.in)
		if v != tt.version || n != tt.name || ok != tt.ok {
			t.Errorf("parseMigrationFilename(%q) = %q, %q, %v; want %q, %q, %v", tt.in, v, n, ok, tt.version, tt.name, tt.ok)
		}
	}
}

func TestLoadSortsAndSkips(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0002_b.sql": {Data: []byte("SELECT 2;")},
		"sql/0001_a.sql": {Data: []byte("SELECT 1;")},
		"sql/notes.txt":  {Data: []byte("ignored")},
		"sql/0003_c.sql": {Mode: fs.ModeDir | 0o755},
	}
	got, err := load(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].Version != "0001" || got[1].Version != "0002" {
		t.Fatalf("load = %+v; want 0001, 0002", got)
	}
}

func TestRun_AppliesOnce(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	applied, err := Run(ctx, db, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(applied) == 0 {
		t.Fatal("Run applied nothing on an empty database")
	}

	for _, table := range []string{"sensors", "sensor_states"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	again, err := Run(ctx, db, nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second Run applied %d migrations; want 0", len(again))
	}

	all, err := load(sqlFS)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	recorded, err := appliedVersions(ctx, db)
	if err != nil {
		t.Fatalf("appliedVersions: %v", err)
	}
	for _, m := range all {
		if !recorded[m.Version] {
			t.Errorf("migration %s not recorded", m.Version)
		}
	}
}

func TestRun_ForeignKeyCascade(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	if _, err := Run(ctx, db, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO sensors (entity_id, kind, updated_at) VALUES ('sensor.t', 'temperature', '2025-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("insert sensor: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO sensor_states (entity_id, ts, state, value) VALUES ('sensor.t', '2025-01-01T00:00:00Z', '1.5', 1.5)`); err != nil {
		t.Fatalf("insert state: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO sensor_states (entity_id, ts, state) VALUES ('sensor.none', '2025-01-01T00:00:00Z', '1')`); err == nil {
		t.Error("state for unknown sensor accepted; want foreign key error")
	}

	if _, err := db.Exec(`DELETE FROM sensors WHERE entity_id = 'sensor.t'`); err != nil {
		t.Fatalf("delete sensor: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT count(*) FROM sensor_states`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("states after cascade = %d; want 0", n)
	}
}
