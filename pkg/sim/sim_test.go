package sim

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opclink/opclink-go/pkg/driver"
)

func TestAddVariable(t *testing.T) {
	t.Run("AssignsStringNodeID", func(t *testing.T) {
		space := New(2)
		v, err := space.AddVariable("Tank.Level", driver.ValueKindFloat, 12.5)
		if err != nil {
			t.Fatalf("AddVariable failed: %v", err)
		}
		if v.ID() != "ns=2;s=Tank.Level" {
			t.Errorf("expected ns=2;s=Tank.Level, got %s", v.ID())
		}
		if v.Value() != 12.5 {
			t.Errorf("expected 12.5, got %v", v.Value())
		}
	})

	t.Run("NilInitialSelectsZero", func(t *testing.T) {
		space := New(2)
		cases := map[string]struct {
			kind driver.ValueKind
			want any
		}{
			"B": {driver.ValueKindBoolean, false},
			"I": {driver.ValueKindInteger, int32(0)},
			"F": {driver.ValueKindFloat, float64(0)},
			"S": {driver.ValueKindString, ""},
		}
		for name, c := range cases {
			v, err := space.AddVariable(name, c.kind, nil)
			if err != nil {
				t.Fatalf("AddVariable(%s) failed: %v", name, err)
			}
			if v.Value() != c.want {
				t.Errorf("%s: expected %v, got %v", name, c.want, v.Value())
			}
		}
	})

	t.Run("CoercesIntegerWidths", func(t *testing.T) {
		space := New(2)
		v, err := space.AddVariable("Counter", driver.ValueKindInteger, 40)
		if err != nil {
			t.Fatalf("AddVariable failed: %v", err)
		}
		if v.Value() != int32(40) {
			t.Errorf("expected int32(40), got %T(%v)", v.Value(), v.Value())
		}
	})

	t.Run("RejectsKindMismatch", func(t *testing.T) {
		space := New(2)
		_, err := space.AddVariable("Counter", driver.ValueKindInteger, "forty")
		if !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("expected ErrTypeMismatch, got %v", err)
		}
	})

	t.Run("RejectsDuplicateName", func(t *testing.T) {
		space := New(2)
		if _, err := space.AddVariable("Level", driver.ValueKindFloat, nil); err != nil {
			t.Fatalf("first AddVariable failed: %v", err)
		}
		if _, err := space.AddVariable("Level", driver.ValueKindFloat, nil); err == nil {
			t.Error("expected duplicate name error")
		}
	})

	t.Run("RejectsEmptyName", func(t *testing.T) {
		space := New(2)
		if _, err := space.AddVariable("", driver.ValueKindFloat, nil); err == nil {
			t.Error("expected empty name error")
		}
	})
}

func TestBrowse(t *testing.T) {
	space := New(2)
	mustAdd(t, space, "Tank.Level", driver.ValueKindFloat, 12.5)
	mustAdd(t, space, "Pump.Running", driver.ValueKindBoolean, true)

	nodes := space.Browse()
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if nodes["Tank.Level"] != "ns=2;s=Tank.Level" {
		t.Errorf("unexpected node id %s", nodes["Tank.Level"])
	}
	if nodes["Pump.Running"] != "ns=2;s=Pump.Running" {
		t.Errorf("unexpected node id %s", nodes["Pump.Running"])
	}
}

func TestVariablesSorted(t *testing.T) {
	space := New(2)
	mustAdd(t, space, "Zeta", driver.ValueKindString, "z")
	mustAdd(t, space, "Alpha", driver.ValueKindString, "a")
	mustAdd(t, space, "Mid", driver.ValueKindString, "m")

	vars := space.Variables()
	want := []string{"Alpha", "Mid", "Zeta"}
	for i, name := range want {
		if vars[i].Name() != name {
			t.Errorf("position %d: expected %s, got %s", i, name, vars[i].Name())
		}
	}
}

func TestLoadCSV(t *testing.T) {
	t.Run("ParsesAllTypes", func(t *testing.T) {
		path := writeFile(t, "nodes.csv", `name,type,initial
# plant floor tags
Tank.Level,double,"12,5"
Pump.Running,boolean,si
Batch.Counter,int32,40
Batch.Recipe,string,standard
Alarm.Active,boolean,
`)
		space := New(2)
		if err := space.LoadCSV(path); err != nil {
			t.Fatalf("LoadCSV failed: %v", err)
		}
		if space.Len() != 5 {
			t.Fatalf("expected 5 variables, got %d", space.Len())
		}

		cases := map[string]any{
			"Tank.Level":    12.5,
			"Pump.Running":  true,
			"Batch.Counter": int32(40),
			"Batch.Recipe":  "standard",
			"Alarm.Active":  false,
		}
		byName := make(map[string]*Variable)
		for _, v := range space.Variables() {
			byName[v.Name()] = v
		}
		for name, want := range cases {
			v, ok := byName[name]
			if !ok {
				t.Fatalf("missing variable %s", name)
			}
			if v.Value() != want {
				t.Errorf("%s: expected %v, got %v", name, want, v.Value())
			}
		}
	})

	t.Run("RejectsUnknownType", func(t *testing.T) {
		path := writeFile(t, "bad_type.csv", "Tank.Level,float64,1.0\n")
		space := New(2)
		err := space.LoadCSV(path)
		if err == nil {
			t.Fatal("expected unknown type error")
		}
	})

	t.Run("RejectsUncoercibleInitial", func(t *testing.T) {
		path := writeFile(t, "bad_initial.csv", "Pump.Running,boolean,maybe\n")
		space := New(2)
		if err := space.LoadCSV(path); err == nil {
			t.Fatal("expected initial value error")
		}
	})

	t.Run("RejectsDuplicateRows", func(t *testing.T) {
		path := writeFile(t, "dup.csv", "Tank.Level,double,1\nTank.Level,double,2\n")
		space := New(2)
		if err := space.LoadCSV(path); err == nil {
			t.Fatal("expected duplicate error")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		space := New(2)
		if err := space.LoadCSV(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}

func TestExportAliases(t *testing.T) {
	space := New(2)
	mustAdd(t, space, "Tank.Level", driver.ValueKindFloat, 12.5)

	path := filepath.Join(t.TempDir(), "aliases.json")
	if err := space.ExportAliases(path); err != nil {
		t.Fatalf("ExportAliases failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export failed: %v", err)
	}
	want := "\"Tank.Level\": \"ns=2;s=Tank.Level\""
	if !strings.Contains(string(data), want) {
		t.Errorf("export missing %s:\n%s", want, data)
	}
}

func TestDriver(t *testing.T) {
	newSpace := func(t *testing.T) *AddressSpace {
		space := New(2)
		mustAdd(t, space, "Tank.Level", driver.ValueKindFloat, 12.5)
		return space
	}

	t.Run("ReadAfterResolve", func(t *testing.T) {
		d := newSpace(t).Driver()
		sess, err := d.Open(context.Background(), driver.Endpoint{})
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		node, err := sess.Resolve(context.Background(), "ns=2;s=Tank.Level")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		val, err := node.Read(context.Background())
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if val.Raw != 12.5 {
			t.Errorf("expected 12.5, got %v", val.Raw)
		}
		if val.Status != driver.StatusGood {
			t.Errorf("expected good status, got %d", val.Status)
		}
		if val.SourceTime.IsZero() {
			t.Error("expected a source timestamp")
		}
	})

	t.Run("WriteRoundTrip", func(t *testing.T) {
		space := newSpace(t)
		sess, _ := space.Driver().Open(context.Background(), driver.Endpoint{})
		node, err := sess.Resolve(context.Background(), "ns=2;s=Tank.Level")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if err := node.Write(context.Background(), 97.3); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		val, err := node.Read(context.Background())
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if val.Raw != 97.3 {
			t.Errorf("expected 97.3, got %v", val.Raw)
		}
	})

	t.Run("WriteRejectsWrongKind", func(t *testing.T) {
		sess, _ := newSpace(t).Driver().Open(context.Background(), driver.Endpoint{})
		node, err := sess.Resolve(context.Background(), "ns=2;s=Tank.Level")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		err = node.Write(context.Background(), "not a float")
		if !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("expected ErrTypeMismatch, got %v", err)
		}
	})

	t.Run("ResolveUnknownID", func(t *testing.T) {
		sess, _ := newSpace(t).Driver().Open(context.Background(), driver.Endpoint{})
		_, err := sess.Resolve(context.Background(), "ns=2;s=Nope")
		if !errors.Is(err, ErrUnknownNode) {
			t.Errorf("expected ErrUnknownNode, got %v", err)
		}
	})

	t.Run("KindReported", func(t *testing.T) {
		sess, _ := newSpace(t).Driver().Open(context.Background(), driver.Endpoint{})
		node, err := sess.Resolve(context.Background(), "ns=2;s=Tank.Level")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		kind, err := node.Kind(context.Background())
		if err != nil {
			t.Fatalf("Kind failed: %v", err)
		}
		if kind != driver.ValueKindFloat {
			t.Errorf("expected float kind, got %s", kind)
		}
	})

	t.Run("FailOpens", func(t *testing.T) {
		d := newSpace(t).Driver()
		boom := errors.New("connection refused")
		d.FailOpens(boom, boom)

		for i := 0; i < 2; i++ {
			if _, err := d.Open(context.Background(), driver.Endpoint{}); !errors.Is(err, boom) {
				t.Fatalf("open %d: expected injected error, got %v", i+1, err)
			}
		}
		if _, err := d.Open(context.Background(), driver.Endpoint{}); err != nil {
			t.Fatalf("expected third open to succeed, got %v", err)
		}
		if d.Opens() != 3 {
			t.Errorf("expected 3 opens, got %d", d.Opens())
		}
	})

	t.Run("ClosedSessionFails", func(t *testing.T) {
		sess, _ := newSpace(t).Driver().Open(context.Background(), driver.Endpoint{})
		node, err := sess.Resolve(context.Background(), "ns=2;s=Tank.Level")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if err := sess.Close(context.Background()); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if _, err := sess.Resolve(context.Background(), "ns=2;s=Tank.Level"); !errors.Is(err, ErrSessionClosed) {
			t.Errorf("expected ErrSessionClosed from Resolve, got %v", err)
		}
		if _, err := node.Read(context.Background()); !errors.Is(err, ErrSessionClosed) {
			t.Errorf("expected ErrSessionClosed from Read, got %v", err)
		}
	})
}

func mustAdd(t *testing.T, space *AddressSpace, name string, kind driver.ValueKind, initial any) *Variable {
	t.Helper()
	v, err := space.AddVariable(name, kind, initial)
	if err != nil {
		t.Fatalf("AddVariable(%s) failed: %v", name, err)
	}
	return v
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s failed: %v", name, err)
	}
	return path
}

