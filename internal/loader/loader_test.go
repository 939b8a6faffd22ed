package loader_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-units/units/internal/loader"
	"github.com/go-units/units/internal/symtab"
)

func TestLoadTestdataDefinitions(t *testing.T) {
	store := symtab.New()
	res, err := loader.Load(store, filepath.Join("..", "..", "testdata", "definitions.units"), loader.Options{})
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected record errors: %v", res.Errors)
	}

	for _, name := range []string{"m", "s", "kg", "cm", "ft", "in", "lbf", "btu", "min", "g", "L", "tbsp", "sugar"} {
		if _, ok := store.GetUnit(name); !ok {
			t.Errorf("expected unit %q to be loaded", name)
		}
	}
	if _, ok := store.GetPrefix("c"); !ok {
		t.Error("expected prefix 'c' to be loaded")
	}
	if _, ok := store.GetPrefix("centi"); !ok {
		t.Error("expected prefix 'centi' to be loaded")
	}
	if _, ok := store.GetAlias("footinches"); !ok {
		t.Error("expected alias 'footinches' to be loaded via !unitlist")
	}
	for _, name := range []string{"tempF", "tempC", "gauge"} {
		if _, ok := store.GetFunc(name); !ok {
			t.Errorf("expected function %q to be loaded", name)
		}
	}

	gauge, _ := store.GetFunc("gauge")
	if !gauge.IsTable() {
		t.Error("expected 'gauge' to be a table function")
	}
	if len(gauge.Table) != 5 {
		t.Errorf("got %d table rows, want 5", len(gauge.Table))
	}

	tempF, _ := store.GetFunc("tempF")
	if tempF.IsTable() {
		t.Fatal("tempF should be analytic, not a table")
	}
	if tempF.Forward == nil || tempF.Inverse == nil {
		t.Fatal("tempF should have both forward and inverse branches")
	}
	if tempF.Inverse.RequiredInputDim != "K" {
		t.Errorf("got inverse required dim %q, want K", tempF.Inverse.RequiredInputDim)
	}
	if tempF.Forward.RequiredInputDim != "" {
		t.Errorf("got forward required dim %q, want empty", tempF.Forward.RequiredInputDim)
	}
	if !tempF.Forward.HasDomainMin || tempF.Forward.DomainMin != -459.67 {
		t.Errorf("got forward domain min %v/%v, want -459.67/true", tempF.Forward.DomainMin, tempF.Forward.HasDomainMin)
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := symtab.New()
	_, err := loader.Load(store, filepath.Join("..", "..", "testdata", "does-not-exist.units"), loader.Options{})
	if err == nil {
		t.Fatal("expected a fatal error for a missing root file")
	}
}

func TestLoadRecordsErrorsWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defs.units")
	content := "m        !\nbadunit\nft       0.3048 m\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed writing test fixture: %v", err)
	}

	store := symtab.New()
	res, err := loader.Load(store, path, loader.Options{})
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(res.Errors), res.Errors)
	}
	if _, ok := store.GetUnit("ft"); !ok {
		t.Error("expected loading to continue past the bad record and load 'ft'")
	}
}

func TestLoadVarBlockGating(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defs.units")
	content := "!var FOO bar baz\ngated 1 m\n!endvar\nungated 1 m\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed writing test fixture: %v", err)
	}

	store := symtab.New()
	getenv := func(name string) (string, bool) {
		if name == "FOO" {
			return "qux", true
		}
		return "", false
	}
	_, err := loader.Load(store, path, loader.Options{Getenv: getenv})
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if _, ok := store.GetUnit("gated"); ok {
		t.Error("expected 'gated' to be skipped since FOO does not match bar/baz")
	}
	if _, ok := store.GetUnit("ungated"); !ok {
		t.Error("expected 'ungated' to still load after !endvar")
	}
}

func TestLoadInclude(t *testing.T) {
	dir := t.TempDir()
	childPath := filepath.Join(dir, "child.units")
	if err := os.WriteFile(childPath, []byte("child 1 m\n"), 0o644); err != nil {
		t.Fatalf("failed writing child fixture: %v", err)
	}
	rootPath := filepath.Join(dir, "root.units")
	rootContent := "m !\n!include child.units\n"
	if err := os.WriteFile(rootPath, []byte(rootContent), 0o644); err != nil {
		t.Fatalf("failed writing root fixture: %v", err)
	}

	store := symtab.New()
	res, err := loader.Load(store, rootPath, loader.Options{})
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if _, ok := store.GetUnit("child"); !ok {
		t.Error("expected included file's 'child' unit to be loaded")
	}
}

func TestLoadMessageCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defs.units")
	if err := os.WriteFile(path, []byte("!message hello there\n"), 0o644); err != nil {
		t.Fatalf("failed writing test fixture: %v", err)
	}

	var got []string
	store := symtab.New()
	_, err := loader.Load(store, path, loader.Options{
		OnMessage: func(text string) { got = append(got, text) },
	})
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(got) != 1 || got[0] != "hello there" {
		t.Fatalf("got messages %v", got)
	}
}

func TestLoadRedefinitionViaPlusPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defs.units")
	content := "m      !\nfoo    1 m\n+foo   2 m\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed writing test fixture: %v", err)
	}

	store := symtab.New()
	res, err := loader.Load(store, path, loader.Options{})
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors on silent redefinition: %v", res.Errors)
	}
	e, ok := store.GetUnit("foo")
	if !ok || !strings.HasPrefix(e.Definition, "2") {
		t.Fatalf("got %+v, want redefinition to '2 m'", e)
	}
}
