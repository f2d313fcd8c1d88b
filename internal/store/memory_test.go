package store

import (
	"io"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	t.Run("create commits on close", func(t *testing.T) {
		m := NewMemoryStore()

		w, err := m.Create("2025-03-01_daily.zip")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, err := w.Write([]byte("pay")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if _, err := w.Write([]byte("load")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		if _, ok := m.Get("2025-03-01_daily.zip"); ok {
			t.Errorf("object visible before Close")
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		r, err := m.Open("2025-03-01_daily.zip")
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if string(data) != "payload" {
			t.Errorf("got %q, want %q", data, "payload")
		}
	})

	t.Run("rename and remove", func(t *testing.T) {
		m := NewMemoryStore()
		m.Put("old.zip", []byte("x"))

		if err := m.Rename("old.zip", "new.zip"); err != nil {
			t.Fatalf("Rename() error = %v", err)
		}
		if _, ok := m.Get("old.zip"); ok {
			t.Errorf("old name still present after rename")
		}
		if _, ok := m.Get("new.zip"); !ok {
			t.Errorf("new name missing after rename")
		}

		if err := m.Remove("new.zip"); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if err := m.Remove("new.zip"); err == nil {
			t.Errorf("second Remove() succeeded, want error")
		}
		if err := m.Rename("missing.zip", "other.zip"); err == nil {
			t.Errorf("Rename() of missing object succeeded, want error")
		}
	})

	t.Run("list", func(t *testing.T) {
		m := NewMemoryStore()
		m.Put("a.zip", nil)
		m.Put("b.zip", nil)

		names, err := m.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(names) != 2 {
			t.Errorf("List() = %v, want 2 names", names)
		}
	})
}
