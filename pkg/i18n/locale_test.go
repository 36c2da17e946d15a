package i18n

import "testing"

func TestParse(t *testing.T) {
	cases := map[string]Locale{
		"fr":    LocaleFR,
		"fr-CA": LocaleFR,
		"en-GB": LocaleEN,
		"EN":    LocaleEN,
	}
	for raw, want := range cases {
		got, ok := Parse(raw)
		if !ok || got != want {
			t.Fatalf("Parse(%q) = %q,%v want %q", raw, got, ok, want)
		}
	}
	if _, ok := Parse(""); ok {
		t.Fatal("empty input should not parse")
	}
	if _, ok := Parse("!!"); ok {
		t.Fatal("garbage should not parse")
	}
}

func TestNegotiate(t *testing.T) {
	if got := Negotiate("fr", "en-US,en;q=0.9"); got != LocaleFR {
		t.Fatalf("query should win, got %q", got)
	}
	if got := Negotiate("", "fr-FR,fr;q=0.9,en;q=0.8"); got != LocaleFR {
		t.Fatalf("expected header negotiation to pick fr, got %q", got)
	}
	if got := Negotiate("", ""); got != Default {
		t.Fatalf("expected default locale, got %q", got)
	}
}

func TestPick(t *testing.T) {
	if got := Pick(LocaleFR, "Hello", "Bonjour"); got != "Bonjour" {
		t.Fatalf("expected french value, got %q", got)
	}
	if got := Pick(LocaleFR, "Hello", " "); got != "Hello" {
		t.Fatalf("expected english fallback, got %q", got)
	}
	if got := Pick(LocaleEN, "Hello", "Bonjour"); got != "Hello" {
		t.Fatalf("expected english value, got %q", got)
	}
}
