package testsupport

import (
	_ "embed"
	"os"
	"testing"

	jsoniter "github.com/json-iterator/go"

	"github.com/goliatone/go-library-records/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed testdata/library.json
var libraryFixture []byte

// Library is a set of records to seed a test store with.
type Library struct {
	Teachers []model.TeacherInput `json:"teachers"`
	Students []model.StudentInput `json:"students"`
	Books    []model.BookInput    `json:"books"`
}

// DefaultLibrary returns the bundled library fixture: two teachers, three
// students and three books.
func DefaultLibrary(t testing.TB) Library {
	t.Helper()
	return decodeLibrary(t, "testdata/library.json", libraryFixture)
}

// LoadLibrary reads a library fixture from path, relative to the test
// package directory.
func LoadLibrary(t testing.TB, path string) Library {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}
	return decodeLibrary(t, path, data)
}

func decodeLibrary(t testing.TB, name string, data []byte) Library {
	t.Helper()

	var lib Library
	if err := json.Unmarshal(data, &lib); err != nil {
		t.Fatalf("failed to unmarshal library fixture %s: %v", name, err)
	}
	return lib
}
