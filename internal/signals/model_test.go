package signals

import (
	"errors"
	"math"
	"testing"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

func TestMeans(t *testing.T) {
	home := domain.TeamRate{XGFPerGame: 3.4, XGAPerGame: 2.8}
	away := domain.TeamRate{XGFPerGame: 2.4, XGAPerGame: 3.0}

	h, a := Means(home, away)
	if math.Abs(h-3.2) > 1e-9 || math.Abs(a-2.6) > 1e-9 {
		t.Errorf("Means = %v, %v; want 3.2, 2.6", h, a)
	}
}

func TestTotalsMeans(t *testing.T) {
	tests := []struct {
		name             string
		home, away       float64
		adv              int
		wantHome, wantAw float64
	}{
		{"neutral", 3.2, 2.6, 0, 3.2, 2.6},
		{"home rested", 3.2, 2.6, 2, 3.36, 2.44},
		{"away rested", 3.2, 2.6, -1, 3.12, 2.68},
		{"floor", 1.0, 0.15, 3, 1.24, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, a := TotalsMeans(tt.home, tt.away, tt.adv, 0.08, 0.1)
			if math.Abs(h-tt.wantHome) > 1e-9 || math.Abs(a-tt.wantAw) > 1e-9 {
				t.Errorf("TotalsMeans = %v, %v; want %v, %v", h, a, tt.wantHome, tt.wantAw)
			}
		})
	}
}

func TestMoneylineProb(t *testing.T) {
	p, err := MoneylineProb(3.2, 2.6)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p-0.5166) > 5e-4 {
		t.Errorf("pHome = %v, want ~0.5166", p)
	}

	even, err := MoneylineProb(3, 3)
	if err != nil {
		t.Fatal(err)
	}
	// With equal means the continuity correction keeps a home win below one half.
	if even >= 0.5 {
		t.Errorf("equal means pHome = %v, want < 0.5", even)
	}

	if _, err := MoneylineProb(0, 0); !errors.Is(err, ErrDegenerateVariance) {
		t.Errorf("zero means error = %v, want ErrDegenerateVariance", err)
	}
}

func TestTotalsProbPushSemantics(t *testing.T) {
	over, under, lt := TotalsProb(6, 6.0)
	if lt != "integer(6)" {
		t.Errorf("line type = %q", lt)
	}
	push := math.Exp(-6) * math.Pow(6, 6) / 720
	if sum := over + under; sum >= 1 || math.Abs(sum+push-1) > 1e-9 {
		t.Errorf("integer line over+under = %v, push = %v", sum, push)
	}

	over, under, lt = TotalsProb(6.5, 6.0)
	if lt != "half(6.5)" {
		t.Errorf("line type = %q", lt)
	}
	if math.Abs(over+under-1) > 1e-12 {
		t.Errorf("half line over+under = %v, want 1", over+under)
	}
	if math.Abs(under-PoissonCDF(6, 6.0)) > 1e-12 {
		t.Errorf("half line under = %v", under)
	}
}

func TestIsIntegerLine(t *testing.T) {
	for line, want := range map[float64]bool{6: true, 5.5: false, 6.0000000001: true, 6.25: false} {
		if got := IsIntegerLine(line); got != want {
			t.Errorf("IsIntegerLine(%v) = %v", line, got)
		}
	}
	if got := formatLine(6); got != "6.0" {
		t.Errorf("formatLine(6) = %q", got)
	}
	if got := formatLine(5.5); got != "5.5" {
		t.Errorf("formatLine(5.5) = %q", got)
	}
}
