package alias

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/opclink/opclink-go/pkg/uaerrors"
)

func TestResolve(t *testing.T) {
	r, err := New(map[string]string{
		"Level":   "ns=2;s=Tank.Level",
		"Running": "ns=2;i=12",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	id, err := r.Resolve("Level")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != "ns=2;s=Tank.Level" {
		t.Errorf("Resolve = %q, want ns=2;s=Tank.Level", id)
	}
}

func TestResolveUnknownAlias(t *testing.T) {
	r := Empty()

	_, err := r.Resolve("Missing")
	if err == nil {
		t.Fatal("Resolve should fail for unknown alias")
	}
	if !errors.Is(err, uaerrors.KindUnknownAlias) {
		t.Errorf("error kind = %v, want KindUnknownAlias", err)
	}

	var ue *uaerrors.Error
	if !errors.As(err, &ue) || ue.Target != "Missing" {
		t.Errorf("error should carry the alias name, got %v", err)
	}
}

func TestNewRejectsEmptyEntries(t *testing.T) {
	if _, err := New(map[string]string{"": "ns=2;i=1"}); err == nil {
		t.Error("New should reject an empty alias")
	}
	if _, err := New(map[string]string{"Level": ""}); err == nil {
		t.Error("New should reject an empty identifier")
	}
}

func TestAliasesSorted(t *testing.T) {
	r, err := New(map[string]string{
		"Pump":  "ns=2;i=2",
		"Level": "ns=2;i=1",
		"Valve": "ns=2;i=3",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	want := []string{"Level", "Pump", "Valve"}
	if got := r.Aliases(); !reflect.DeepEqual(got, want) {
		t.Errorf("Aliases = %v, want %v", got, want)
	}
	if r.Len() != 3 {
		t.Errorf("Len = %d, want 3", r.Len())
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.json")
	content := `{"Level": "ns=2;s=Tank.Level", "Running": "ns=2;i=12"}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
	if id, _ := r.Resolve("Running"); id != "ns=2;i=12" {
		t.Errorf("Resolve(Running) = %q, want ns=2;i=12", id)
	}
}

func TestLoadJSONMissingFile(t *testing.T) {
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("LoadJSON should fail for a missing file")
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.csv")
	content := "alias,nodeid\n# plant floor tags\nLevel,ns=2;s=Tank.Level\nRunning,ns=2;i=12\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
	if id, _ := r.Resolve("Level"); id != "ns=2;s=Tank.Level" {
		t.Errorf("Resolve(Level) = %q, want ns=2;s=Tank.Level", id)
	}
}

func TestLoadCSVDuplicateAlias(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.csv")
	content := "Level,ns=2;i=1\nLevel,ns=2;i=2\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCSV(path); err == nil {
		t.Error("LoadCSV should fail on duplicate aliases")
	}
}
