package model

import (
	"testing"
	"time"
)

func TestClaims_Expired(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{name: "zero expiry never expires", expiresAt: time.Time{}, want: false},
		{name: "future expiry", expiresAt: now.Add(time.Minute), want: false},
		{name: "expiry equal to now", expiresAt: now, want: true},
		{name: "past expiry", expiresAt: now.Add(-time.Second), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Claims{Subject: "uid-1", ExpiresAt: tt.expiresAt}
			if got := c.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}
