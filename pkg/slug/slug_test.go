package slug

import "testing"

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Héros d'Afrique":        "heros-d-afrique",
		"  Isolele: Vol. 2  ":    "isolele-vol-2",
		"Ça commence à Kinshasa": "ca-commence-a-kinshasa",
		"---":                    "",
	}
	for in, want := range cases {
		if got := Make(in); got != want {
			t.Fatalf("Make(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	if !Valid("isolele-vol-1") {
		t.Fatal("expected valid slug")
	}
	for _, bad := range []string{"", "Isolele", "a--b", "-a", "a b"} {
		if Valid(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
}
