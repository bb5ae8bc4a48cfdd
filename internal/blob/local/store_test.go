package localblob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	if err := s.Put(ctx, "nhl/2025-03-01/nhl_signals.md", strings.NewReader("# NHL"), "text/markdown"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err := s.Exists(ctx, "nhl/2025-03-01/nhl_signals.md")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v; want true, nil", ok, err)
	}

	rc, err := s.Get(ctx, "nhl/2025-03-01/nhl_signals.md")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "# NHL" {
		t.Errorf("body = %q", body)
	}
}

func TestPutOverwritesWithoutLeftovers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := New(dir)

	for _, body := range []string{"first", "second"} {
		if err := s.Put(ctx, "a/b.json", strings.NewReader(body), "application/json"); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	got, err := os.ReadFile(filepath.Join(dir, "a", "b.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want second", got)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "a"))
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1 (temp file left behind?)", len(entries))
	}
}

func TestGetMissing(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Get(context.Background(), "nope.json")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	ok, err := s.Exists(context.Background(), "nope.json")
	if err != nil || ok {
		t.Errorf("Exists = %v, %v; want false, nil", ok, err)
	}
}

func TestRejectsEscapingPaths(t *testing.T) {
	s := New(t.TempDir())
	for _, p := range []string{"../x.json", "a/../../x.json", ""} {
		if err := s.Put(context.Background(), p, strings.NewReader("x"), ""); err == nil {
			t.Errorf("Put(%q) succeeded, want error", p)
		}
	}
}
