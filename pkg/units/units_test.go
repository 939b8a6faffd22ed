package units_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-units/units/pkg/units"
)

func testdataPath() string {
	return filepath.Join("..", "..", "testdata", "definitions.units")
}

func newLoadedEngine(t *testing.T, opts ...units.Option) *units.Engine {
	t.Helper()
	e := units.New(opts...)
	res, err := e.Load(testdataPath())
	if err != nil {
		t.Fatalf("unexpected fatal load error: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected record errors: %v", res.Errors)
	}
	return e
}

func TestEngineConvertFactor(t *testing.T) {
	e := newLoadedEngine(t)
	ans, err := e.Convert("3 ft", "m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 3 * 0.3048
	if diff := ans.Factor - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("got %v, want %v", ans.Factor, want)
	}
}

func TestEngineConvertSingleLineOption(t *testing.T) {
	e := newLoadedEngine(t)
	ans, err := e.Convert("3 ft", "m", units.SingleLine())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.HasInverse {
		t.Fatal("expected units.SingleLine() to suppress the inverse factor")
	}
}

func TestEngineConvertStrictRejectsReciprocal(t *testing.T) {
	e := newLoadedEngine(t)
	_, err := e.Convert("1/ft", "m", units.Strict())
	if err == nil {
		t.Fatal("expected Strict() to reject a reciprocal-only conversion")
	}
}

func TestEngineSearch(t *testing.T) {
	e := newLoadedEngine(t)
	matches, err := e.Search("ft")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, m := range matches {
		if m == "m" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected matches %v to include 'm'", matches)
	}
}

func TestEngineUnitCount(t *testing.T) {
	e := newLoadedEngine(t)
	if e.UnitCount() == 0 {
		t.Fatal("expected a nonzero unit count after loading testdata")
	}
}

func TestWithOldStarTogglesParserOptions(t *testing.T) {
	e := units.New(units.WithOldStar(true))
	if !e.ParserOptions().OldStar {
		t.Fatal("expected WithOldStar(true) to set OldStar in parser options")
	}
}

func TestWithFormatAffectsRendering(t *testing.T) {
	e := newLoadedEngine(t, units.WithFormat("%.2f"))
	ans, err := e.Convert("3 ft", "m", units.SingleLine())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0.91"
	if ans.Text != want {
		t.Fatalf("got %q, want %q", ans.Text, want)
	}
}

func TestWithMessageHandlerReceivesLoadMessages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defs.units")
	if err := os.WriteFile(path, []byte("!message hi\nm !\n"), 0o644); err != nil {
		t.Fatalf("failed writing test fixture: %v", err)
	}

	var got []string
	e := units.New(units.WithMessageHandler(func(s string) { got = append(got, s) }))
	if _, err := e.Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "hi" {
		t.Fatalf("got messages %v", got)
	}
}

func TestAsErrorDistinguishesEngineErrors(t *testing.T) {
	e := newLoadedEngine(t)
	_, err := e.Convert("3 ft", "kg", units.Strict())
	if err == nil {
		t.Fatal("expected a non-conformable error")
	}
	if _, ok := units.AsError(err); ok {
		t.Fatal("expected a facade NotConformableError not to unwrap as a units.Error")
	}
}
