package text

import (
	"testing"
)

func TestNormalize_Basic(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "C25 Beton Dökümü", want: "c25 beton dökümü"},
		{input: "  c25   beton\tdökümü ", want: "c25 beton dökümü"},
		{input: "MAKİNE İLE KAZI", want: "makine ile kazi"},
		{input: "KAZILMASI", want: "kazilmasi"},
		{input: "Ø8 demir", want: "8 demir"},
		{input: "ø10-ø12 demir, nervürlü.", want: "10 12 demir nervürlü"},
		{input: "10 m² sıva", want: "10 m2 siva"},
		{input: "---", want: ""},
		{input: "", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got := Normalize(tc.input)
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"C25 Beton Dökümü",
		"Ø8 DEMİR (nervürlü) - montajı",
		"İĞNE ıiIİ ŞŞ çÇ öÖ üÜ",
		"14-28 mm agrega; (2x3)=6",
		"I\u0307stanbul", // decomposed dotted capital I
		"ﬁyat ½ m²",
		"   ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestRemoveParenthetical(t *testing.T) {
	got := RemoveParenthetical("Kalıp (ahşap) yapılması (her türlü)  dahil")
	want := "Kalıp yapılması dahil"
	if got != want {
		t.Errorf("RemoveParenthetical = %q, want %q", got, want)
	}
}

func TestNoSpaces_JoinsSplitWords(t *testing.T) {
	if NoSpaces("her türlü") != NoSpaces("HERTÜRLÜ") {
		t.Errorf("NoSpaces should make %q and %q equal", "her türlü", "HERTÜRLÜ")
	}
}

func TestTokens_MinLength(t *testing.T) {
	got := Tokens("8 cm a boru döşenmesi", 2)
	want := []string{"cm", "boru", "döşenmesi"}
	if len(got) != len(want) {
		t.Fatalf("Tokens = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("Tokens[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStopwordsAndActionVerbs(t *testing.T) {
	for _, w := range []string{"ve", "ile", "için", "türlü"} {
		if !IsStopword(Normalize(w)) {
			t.Errorf("%q should be a stop-word", w)
		}
	}
	if IsStopword("beton") {
		t.Error("beton should not be a stop-word")
	}
	if !IsActionVerb(Normalize("montajı")) {
		t.Error("montajı should be an action verb")
	}
	if IsActionVerb("boru") {
		t.Error("boru should not be an action verb")
	}
}

func TestImportantTokens_PrecedeActionVerb(t *testing.T) {
	tokens := Tokens("10 cm pvc boru döşenmesi", 2)
	marked := ImportantTokens(tokens)
	if !marked[3] {
		t.Errorf("expected %q to be important, got %v", tokens[3], marked)
	}
	if len(marked) != 1 {
		t.Errorf("expected exactly one important token, got %v", marked)
	}
}

func TestStripCode(t *testing.T) {
	tests := map[string]string{
		"15.010.1001":  "150101001",
		" 15 010 1001": "150101001",
		"Y.16.050/01":  "y1605001",
		"":             "",
	}
	for in, want := range tests {
		if got := StripCode(in); got != want {
			t.Errorf("StripCode(%q) = %q, want %q", in, got, want)
		}
	}
}

// --- Benchmarks ---

// BenchmarkNormalize_Short measures a typical catalog description.
func BenchmarkNormalize_Short(b *testing.B) {
	input := "Makine ile yumuşak toprak kazılması"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Normalize(input)
	}
}

// BenchmarkNormalize_Long measures a verbose bid document line.
func BenchmarkNormalize_Long(b *testing.B) {
	input := `Ø8-Ø12 NERVÜRLÜ BETON ÇELİK ÇUBUĞU, (her türlü nakliye dahil) kesilmesi,
bükülmesi ve yerine konulması; 14-28 mm agrega ile C25/30 hazır beton dökülmesi (2x3)=6`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Normalize(input)
	}
}
