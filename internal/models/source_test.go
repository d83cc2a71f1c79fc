package models

import (
	"testing"
	"time"
)

func TestSourceDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := func(min int) *time.Time {
		ts := now.Add(-time.Duration(min) * time.Minute)
		return &ts
	}

	tests := []struct {
		name string
		src  Source
		want bool
	}{
		{
			name: "never collected is always due",
			src:  Source{CollectionFrequency: 30},
			want: true,
		},
		{
			name: "collected recently",
			src:  Source{CollectionFrequency: 30, LastCollectedAt: past(10)},
			want: false,
		},
		{
			name: "exactly at interval",
			src:  Source{CollectionFrequency: 30, LastCollectedAt: past(30)},
			want: true,
		},
		{
			name: "past interval",
			src:  Source{CollectionFrequency: 30, LastCollectedAt: past(45)},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.src.Due(now); got != tt.want {
				t.Errorf("Due = %v, want %v", got, tt.want)
			}
		})
	}
}
