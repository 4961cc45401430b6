package domain

import (
	"testing"
	"time"
)

func TestCorrelationIDGenerator_SecondResolution(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 500, time.Local)
	g := NewCorrelationIDGenerator(func() time.Time { return at })

	if got := g.Next(); got != "20250314_092653" {
		t.Errorf("Next() = %q, want %q", got, "20250314_092653")
	}
}

func TestCorrelationIDGenerator_SameSecondIsDistinct(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)
	g := NewCorrelationIDGenerator(func() time.Time { return at })

	first := g.Next()
	second := g.Next()
	third := g.Next()

	if first == second || second == third || first == third {
		t.Fatalf("ids within one second collide: %q %q %q", first, second, third)
	}
	if second != "20250314_092653_1" {
		t.Errorf("second id = %q, want %q", second, "20250314_092653_1")
	}

	at = at.Add(time.Second)
	if got := g.Next(); got != "20250314_092654" {
		t.Errorf("next second id = %q, want plain layout", got)
	}
}

func TestCorrelationID_Matches(t *testing.T) {
	tests := []struct {
		name string
		id   CorrelationID
		raw  string
		want bool
	}{
		{"equal", "20250314_092653", "20250314_092653", true},
		{"different", "20250314_092653", "20250314_092654", false},
		{"zero never matches", "", "", false},
		{"prefix is not a match", "20250314_092653", "20250314_092653_1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Matches(tt.raw); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
