package format

import "testing"

func TestParseDefault(t *testing.T) {
	sp, err := Parse("%.8g")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sp.Verb != 'g' || sp.Precision != 8 || !sp.HasPrec {
		t.Fatalf("got %+v", sp)
	}
}

func TestFormatVariants(t *testing.T) {
	tests := []struct {
		name string
		spec string
		val  float64
		want string
	}{
		{"default-g", "%.8g", 3.14159265358979, "3.1415927"},
		{"fixed-two", "%.2f", 2.005, "2.00"},
		{"width-pad", "%8.2f", 1.5, "    1.50"},
		{"plus-flag", "%+.2f", 1.5, "+1.50"},
		{"zero-pad", "%06.2f", 1.5, "001.50"},
		{"group-thousands", "%'.2f", 1234567.891, "1,234,567.89"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp, err := Parse(tt.spec)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.spec, err)
			}
			got := Format(sp, tt.val)
			if got != tt.want {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.spec, tt.val, got, tt.want)
			}
		})
	}
}

func TestDisplaysAs(t *testing.T) {
	sp := Default()
	if !DisplaysAs(sp, 1.0000000001, 1) {
		t.Errorf("expected 1.0000000001 to display as 1 at %s", "%.8g")
	}
	if DisplaysAs(sp, 1.1, 1) {
		t.Error("did not expect 1.1 to display as 1")
	}
}

func TestRoundToDisplayed(t *testing.T) {
	sp, err := Parse("%.2f")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := RoundToDisplayed(sp, 0.999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("RoundToDisplayed(0.999) = %v, want 1", got)
	}
}

func TestParseRejectsUnknownVerb(t *testing.T) {
	if _, err := Parse("%.2z"); err == nil {
		t.Fatal("expected error for unsupported verb")
	}
}
