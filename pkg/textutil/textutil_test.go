package textutil

import (
	"math"
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases and strips punctuation",
			input: "Samsung Electronics, Q3 Earnings!!",
			want:  "samsung electronics q3 earnings",
		},
		{
			name:  "korean preserved",
			input: "삼성전자, 3분기 실적 발표... '어닝 서프라이즈'",
			want:  "삼성전자 3분기 실적 발표 어닝 서프라이즈",
		},
		{
			name:  "whitespace collapsed",
			input: "  코스피   급등   마감  ",
			want:  "코스피 급등 마감",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.input); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestJaccardIdentity(t *testing.T) {
	titles := []string{
		"코스피 외국인 순매수 지속",
		"fed rate decision pending",
		"엔비디아 실적 발표",
	}

	for _, title := range titles {
		n := NormalizeTitle(title)
		if got := Jaccard(n, n); got != 1.0 {
			t.Errorf("Jaccard(%q, %q) = %v, want 1.0", n, n, got)
		}
	}
}

func TestJaccardDisjoint(t *testing.T) {
	a := NormalizeTitle("코스피 상승 마감")
	b := NormalizeTitle("국제 유가 하락")

	if got := Jaccard(a, b); got != 0.0 {
		t.Errorf("Jaccard disjoint = %v, want 0.0", got)
	}
}

func TestJaccardEmpty(t *testing.T) {
	if got := Jaccard("", ""); got != 0.0 {
		t.Errorf("Jaccard both empty = %v, want 0.0", got)
	}
	if got := Jaccard("코스피", ""); got != 0.0 {
		t.Errorf("Jaccard one empty = %v, want 0.0", got)
	}
}

func TestJaccardPartialOverlap(t *testing.T) {
	a := "a b c d"
	b := "c d e f"

	// intersection {c, d} = 2, union {a..f} = 6
	want := 2.0 / 6.0
	if got := Jaccard(a, b); math.Abs(got-want) > 1e-9 {
		t.Errorf("Jaccard = %v, want %v", got, want)
	}
}

func TestSequenceRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical", "삼성전자 실적", "삼성전자 실적", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "abc", "", 0.0},
		{"no overlap", "abc", "xyz", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SequenceRatio(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SequenceRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSequenceRatioNearDuplicate(t *testing.T) {
	a := "삼성전자 3분기 실적 발표"
	b := "삼성전자 3분기 실적 공개"

	got := SequenceRatio(a, b)
	if got < 0.7 {
		t.Errorf("SequenceRatio near-duplicate = %v, want >= 0.7", got)
	}
	if got >= 1.0 {
		t.Errorf("SequenceRatio near-duplicate = %v, want < 1.0", got)
	}
}
