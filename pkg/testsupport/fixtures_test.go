package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultLibrary(t *testing.T) {
	lib := DefaultLibrary(t)

	if len(lib.Teachers) != 2 || len(lib.Students) != 3 || len(lib.Books) != 3 {
		t.Fatalf("unexpected fixture sizes: %d teachers, %d students, %d books",
			len(lib.Teachers), len(lib.Students), len(lib.Books))
	}
	if lib.Students[0].TeacherEmail != "ada@school.test" {
		t.Errorf("expected teacher email to decode, got %q", lib.Students[0].TeacherEmail)
	}
	want := time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)
	if !lib.Books[0].PublicationDate.Equal(want) {
		t.Errorf("expected publication date %v, got %v", want, lib.Books[0].PublicationDate)
	}
	for _, b := range lib.Books {
		if err := b.Normalize().Validate(); err != nil {
			t.Errorf("fixture book %q is invalid: %v", b.Title, err)
		}
	}
}

func TestLoadLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	data := `{"teachers":[{"firstName":"Grace","lastName":"Hopper","email":"grace@school.test"}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	lib := LoadLibrary(t, path)
	if len(lib.Teachers) != 1 || lib.Teachers[0].Email != "grace@school.test" {
		t.Errorf("unexpected library %+v", lib)
	}
	if lib.Students != nil || lib.Books != nil {
		t.Errorf("expected absent sections to stay empty, got %+v", lib)
	}
}

func TestOpenStore(t *testing.T) {
	s := OpenStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("expected open store, got %v", err)
	}
	version, err := s.MigrationVersion(context.Background())
	if err != nil || version == 0 {
		t.Fatalf("expected migrated schema, got version %d err %v", version, err)
	}
}

func TestClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(start)
	c.Advance(time.Hour)
	if !c.Now().Equal(start.Add(time.Hour)) {
		t.Errorf("unexpected time %v", c.Now())
	}
}
