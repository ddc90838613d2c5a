package search

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestScore_NumericGateRejectsDifferentDiameter(t *testing.T) {
	s := NewDefaultScorer()

	b := s.Explain("Ø8 demir montajı", "Ø10 demir")
	if b.Score != 0 {
		t.Errorf("Score = %v, want 0", b.Score)
	}
	if !b.GateFailed() || len(b.MissingNumbers) != 1 || b.MissingNumbers[0] != "10" {
		t.Errorf("MissingNumbers = %v, want [10]", b.MissingNumbers)
	}
}

func TestScore_ExactMatchIgnoresCaseAndSpacing(t *testing.T) {
	s := NewDefaultScorer()
	if got := s.Score("c25 beton dökümü", "C25 Beton  Dökümü"); got != 100 {
		t.Errorf("Score = %v, want 100", got)
	}
	if got := s.Score("her türlü kalıp", "hertürlü kalıp"); got != 100 {
		t.Errorf("Score with joined words = %v, want 100", got)
	}
}

func TestScore_CandidatePrefixOfQuery(t *testing.T) {
	s := NewDefaultScorer()
	b := s.Explain("10 cm boru döşenmesi", "10 cm boru")
	if !b.Prefix || b.Score != 95 {
		t.Errorf("got prefix=%v score=%v, want prefix=true score=95", b.Prefix, b.Score)
	}
}

func TestScore_DimensionConflictScoresLower(t *testing.T) {
	s := NewDefaultScorer()
	query := "10 cm boru döşenmesi"

	wrong := s.Score(query, "8 cm boru")
	right := s.Score(query, "10 cm boru")
	if !(wrong < right) {
		t.Errorf("8 cm candidate scored %v, 10 cm candidate %v; want strictly lower", wrong, right)
	}
}

func TestScore_DimensionAdjustments(t *testing.T) {
	s := NewDefaultScorer()

	tests := []struct {
		name       string
		query      string
		candidate  string
		wantAdjust float64
	}{
		{"unit conflict", "boru 8 mm pvc döşenmesi", "8 cm pvc boru", -40},
		{"one of two missing", "levha 8 cm 20 mm", "8 cm 20 cm levha", -15},
		{"all present", "pvc boru 10 cm döşenmesi", "10 cm pvc boru", 20},
		{"no candidate dimensions", "pvc boru 10 cm döşenmesi", "pvc boru", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := s.Explain(tc.query, tc.candidate)
			if b.DimensionAdjust != tc.wantAdjust {
				t.Errorf("DimensionAdjust = %v, want %v (breakdown %+v)", b.DimensionAdjust, tc.wantAdjust, b)
			}
		})
	}
}

func TestScore_TurkishWordIsNotAUnit(t *testing.T) {
	s := NewDefaultScorer()

	b := s.Explain("2 adet ağır hizmet tipi kapak", "2 ağır hizmet tipi kapak")
	if len(b.CandidateDimensions) != 0 || b.DimensionAdjust != 0 {
		t.Errorf("candidate dims = %v, adjust = %v; want none, 0", b.CandidateDimensions, b.DimensionAdjust)
	}
	if b.Score != 100 {
		t.Errorf("Score = %v, want 100", b.Score)
	}
}

func TestScore_UnitConflictLosesToMatchingUnit(t *testing.T) {
	s := NewDefaultScorer()
	query := "boru 8 mm pvc döşenmesi"

	conflict := s.Score(query, "8 cm pvc boru")
	match := s.Score(query, "8 mm pvc boru")
	if !almostEqual(conflict, 200.0/3-40) {
		t.Errorf("conflict score = %v, want %v", conflict, 200.0/3-40)
	}
	if match != 100 {
		t.Errorf("matching unit score = %v, want 100", match)
	}
}

func TestScore_ClampsBonuses(t *testing.T) {
	s := NewDefaultScorer()
	b := s.Explain("pvc boru 10 cm döşenmesi", "10 cm pvc boru")

	if b.Lexical != 100 || b.ContainmentBonus != 10 {
		t.Errorf("lexical=%v containment=%v, want 100 and 10", b.Lexical, b.ContainmentBonus)
	}
	if b.Raw != 130 {
		t.Errorf("Raw = %v, want 130", b.Raw)
	}
	if b.Score != 100 {
		t.Errorf("Score = %v, want clamped 100", b.Score)
	}
}

func TestScore_EmptyInputsScoreZero(t *testing.T) {
	s := NewDefaultScorer()
	cases := [][2]string{
		{"", "beton"},
		{"---", "beton"},
		{"beton", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := s.Score(c[0], c[1]); got != 0 {
			t.Errorf("Score(%q, %q) = %v, want 0", c[0], c[1], got)
		}
	}
}

func TestScore_IsAsymmetric(t *testing.T) {
	s := NewDefaultScorer()

	// The short reference description is fully satisfied by the longer line.
	if got := s.Score("c25 beton dökümü ve kalıp", "beton"); got != 100 {
		t.Errorf("Score(line, short candidate) = %v, want 100", got)
	}
	// The other way round, the candidate's number is not in the query.
	if got := s.Score("beton", "c25 beton dökümü ve kalıp"); got != 0 {
		t.Errorf("Score(short line, long candidate) = %v, want 0", got)
	}
}

func TestScore_LooseWordsDoNotMatch(t *testing.T) {
	s := NewDefaultScorer()
	if got := s.Score("kablo çekilmesi", "boru kesimi"); got != 0 {
		t.Errorf("Score = %v, want 0", got)
	}
}

func TestScore_ImportantWeightBoostsObjectOfWork(t *testing.T) {
	query := "pvc boru döşenmesi"
	candidate := "boru kablosu"

	plain := NewDefaultScorer().Score(query, candidate)
	if !almostEqual(plain, 100.0/3) {
		t.Fatalf("default score = %v, want %v", plain, 100.0/3)
	}

	cfg := DefaultScoreConfig()
	cfg.ImportantWeight = 3
	boosted := NewScorer(cfg).Score(query, candidate)
	if !almostEqual(boosted, 400.0/6) {
		t.Errorf("boosted score = %v, want %v", boosted, 400.0/6)
	}
}

func TestScore_IgnoresParentheticalAsides(t *testing.T) {
	s := NewDefaultScorer()
	got := s.Score("Makine ile yumuşak toprak kazılması (her derinlikte, 2 m)", "Makine ile yumuşak toprak kazılması")
	if got != 100 {
		t.Errorf("Score = %v, want 100", got)
	}
}

// --- Benchmarks ---

func BenchmarkScore(b *testing.B) {
	s := NewDefaultScorer()
	query := "Ø12 nervürlü beton çelik çubuğu kesilmesi, bükülmesi ve yerine konulması 14-28 mm"
	candidate := "Ø12 mm nervürlü beton çelik çubuğu temini ve yerine konulması"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Score(query, candidate)
	}
}
