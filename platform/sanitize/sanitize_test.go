package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := map[string]string{
		"  Jane   <b>Doe</b> ":          "Jane Doe",
		"&lt;script&gt;x&lt;/script&gt;": "x",
		"":                              "",
	}
	for in, want := range cases {
		if got := Text(in); got != want {
			t.Fatalf("Text(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmail(t *testing.T) {
	if got := Email("  Jane.Doe@Example.NET "); got != "jane.doe@example.net" {
		t.Fatalf("unexpected email %q", got)
	}
}
