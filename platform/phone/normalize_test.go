package phone

import "testing"

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("(555) 123-4567 ext."); got != "5551234567" {
		t.Fatalf("expected 5551234567, got %q", got)
	}
	if got := DigitsOnly(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestNormalizerDigitsFallsBackForInvalidNumbers(t *testing.T) {
	n := NewNormalizer("")

	if got := n.Digits("  "); got != "" {
		t.Fatalf("expected blank input to stay blank, got %q", got)
	}
	if got := n.Digits("12-34"); got != "1234" {
		t.Fatalf("expected raw digits for short input, got %q", got)
	}
}
