package sanitizer

import (
	"reflect"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  Jean Dupont  ", want: "Jean Dupont"},
		{name: "inner runs", input: "Jean    Dupont", want: "Jean Dupont"},
		{name: "tabs and newlines", input: "12 rue\t\nde Rivoli", want: "12 rue de Rivoli"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: " \t\n ", want: ""},
		{name: "accents kept", input: " Élodie  Bérénice ", want: "Élodie Bérénice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := SanitizeText(SanitizeText(tt.input)); again != tt.want {
				t.Errorf("SanitizeText is not idempotent: %q", again)
			}
		})
	}
}

func TestSanitizeCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "cdg", want: "CDG"},
		{input: " jfk ", want: "JFK"},
		{input: "e-u-r", want: "EUR"},
		{input: "fr", want: "FR"},
		{input: "", want: ""},
		{input: "123", want: ""},
	}

	for _, tt := range tests {
		if got := SanitizeCode(tt.input); got != tt.want {
			t.Errorf("SanitizeCode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeEmailAndLower(t *testing.T) {
	if got := SanitizeEmail("  Jean.Dupont@Example.FR "); got != "jean.dupont@example.fr" {
		t.Errorf("unexpected email %q", got)
	}
	if got := SanitizeLower(" Adult "); got != "adult" {
		t.Errorf("unexpected lower %q", got)
	}
}

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "french international", input: "+33 6 12 34 56 78", want: "+33612345678"},
		{name: "french national", input: "06 12 34 56 78", want: "+33612345678"},
		{name: "dots", input: "06.12.34.56.78", want: "+33612345678"},
		{name: "already E.164", input: "+33612345678", want: "+33612345678"},
		{name: "us", input: "+1 (650) 253-0000", want: "+16502530000"},
		{name: "empty", input: "", want: ""},
		{name: "whitespace", input: "   ", want: ""},
		{name: "letters", input: "not-a-phone", want: ""},
		{name: "too short", input: "12345", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizePhone(tt.input); got != tt.want {
				t.Errorf("SanitizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeOptionalPhone(t *testing.T) {
	if got := SanitizeOptionalPhone(" 06 12 34 56 78 "); got != "+33612345678" {
		t.Errorf("expected normalized phone, got %q", got)
	}
	if got := SanitizeOptionalPhone(" 12345 "); got != "12345" {
		t.Errorf("expected raw value kept for validation, got %q", got)
	}
}

func TestSanitizeSlice(t *testing.T) {
	got := SanitizeSlice([]string{"passport", " Passport ", "", "tax_id", "passport"}, SanitizeLower)
	want := []string{"passport", "tax_id"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeSlice = %v, want %v", got, want)
	}

	if got := SanitizeSlice(nil, SanitizeLower); len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
}
