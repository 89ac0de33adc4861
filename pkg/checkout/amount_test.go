package checkout

import (
	"errors"
	"testing"
)

func TestResolveAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		surprise bool
		want     int64
		wantErr  bool
	}{
		{"explicit amount", 200, false, 200, false},
		{"zero falls back to default", 0, false, DefaultAmount, false},
		{"negative rejected", -1, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAmount(tt.amount, tt.surprise)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("error = %v, want ErrInvalidAmount", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveAmount() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveAmount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolveAmountSurprise(t *testing.T) {
	for i := 0; i < 100; i++ {
		got, err := ResolveAmount(0, true)
		if err != nil {
			t.Fatalf("ResolveAmount() error = %v", err)
		}
		if got < SurpriseAmountMin || got > SurpriseAmountMax {
			t.Fatalf("surprise amount %d out of [%d, %d]", got, SurpriseAmountMin, SurpriseAmountMax)
		}
	}
}
