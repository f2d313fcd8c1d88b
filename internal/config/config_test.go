package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestConfigRoundTrip(t *testing.T) {
	cfg := NewConfig("host-1", "/var/lib/snapkeep")
	cfg.Source = SourceConfig{
		Dir:        "/home/user/profile",
		Extensions: []string{".db", ".json"},
	}
	cfg.Store = StoreConfig{
		Type:     "s3",
		S3Bucket: "backups",
		S3Prefix: "host-1/",
		S3Region: "eu-central-1",
	}

	m := &Manager{}
	var buf bytes.Buffer
	if err := m.Write(&buf, cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, cfg)
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("host-1", "/base")

	if cfg.Store.Type != "filesystem" {
		t.Errorf("Store.Type = %q, want filesystem", cfg.Store.Type)
	}
	if cfg.Store.FSRoot != filepath.Join("/base", "archives") {
		t.Errorf("Store.FSRoot = %q", cfg.Store.FSRoot)
	}
	if cfg.Retention.DailyKeep != 7 || cfg.Retention.WeeklyWindowWeeks != 4 {
		t.Errorf("Retention = %+v, want 7 dailies / 4 weeks", cfg.Retention)
	}
	if cfg.Schedule.IntervalHours != 24 {
		t.Errorf("Schedule.IntervalHours = %d, want 24", cfg.Schedule.IntervalHours)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want sqlite", cfg.Database.Type)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "snapkeep.toml")
	cfg := NewConfig("host-1", "/base")

	if err := Init(path, cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	got, err := ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile() error = %v", err)
	}
	if got.HostID != "host-1" {
		t.Errorf("HostID = %q, want host-1", got.HostID)
	}

	err = Init(path, cfg)
	if err == nil {
		t.Fatalf("Init() on existing file succeeded, want error")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Init() error = %v, want mention of existing file", err)
	}
}

func TestReadFromFileMissing(t *testing.T) {
	if _, err := ReadFromFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Errorf("ReadFromFile() on missing file succeeded, want error")
	}
}

func TestReadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapkeep.toml")
	if err := os.WriteFile(path, []byte("host_id = [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFromFile(path); err == nil {
		t.Errorf("ReadFromFile() on malformed TOML succeeded, want error")
	}
}
