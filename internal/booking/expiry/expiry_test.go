package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04:05", value)
	require.NoError(t, err)
	return parsed
}

func TestWillExpireAt(t *testing.T) {
	tests := []struct {
		name      string
		due       string
		createdAt string
		want      string
	}{
		{
			name:      "gap over 90 minutes falls to created plus 90",
			due:       "2024-01-01 12:00:00",
			createdAt: "2024-01-01 10:00:00",
			want:      "2024-01-01 11:30:00",
		},
		{
			name:      "gap of exactly 90 minutes returns due",
			due:       "2024-01-01 12:00:00",
			createdAt: "2024-01-01 10:30:00",
			want:      "2024-01-01 12:00:00",
		},
		{
			name:      "gap under 90 minutes returns due",
			due:       "2024-01-01 12:00:00",
			createdAt: "2024-01-01 11:15:00",
			want:      "2024-01-01 12:00:00",
		},
		{
			name:      "gap of 60 minutes holds for created plus 90",
			due:       "2024-01-02 12:00:00",
			createdAt: "2024-01-02 11:00:00",
			want:      "2024-01-02 12:30:00",
		},
		{
			name:      "gap of 26 hours holds for created plus 16 hours",
			due:       "2024-01-03 12:00:00",
			createdAt: "2024-01-02 10:00:00",
			want:      "2024-01-03 02:00:00",
		},
		{
			name:      "gap of exactly 24 hours holds for created plus 90",
			due:       "2024-01-03 10:00:00",
			createdAt: "2024-01-02 10:00:00",
			want:      "2024-01-02 11:30:00",
		},
		{
			name:      "gap of exactly 72 hours holds for created plus 16 hours",
			due:       "2024-01-05 10:00:00",
			createdAt: "2024-01-02 10:00:00",
			want:      "2024-01-03 02:00:00",
		},
		{
			name:      "gap of 74 hours expires 48 hours before due",
			due:       "2024-01-05 12:00:00",
			createdAt: "2024-01-02 10:00:00",
			want:      "2024-01-03 12:00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WillExpireAt(ts(t, tt.due), ts(t, tt.createdAt))
			assert.Equal(t, ts(t, tt.want), got)
		})
	}
}

func TestWillExpireAtMonotonicTiers(t *testing.T) {
	createdAt := ts(t, "2024-06-01 08:00:00")

	// Walking the due time outward must never move expiry before an
	// earlier tier's expiry for the same creation time.
	prev := WillExpireAt(createdAt.Add(30*time.Minute), createdAt)
	for gap := time.Hour; gap <= 96*time.Hour; gap += time.Hour {
		cur := WillExpireAt(createdAt.Add(gap), createdAt)
		assert.False(t, cur.Before(prev),
			"expiry regressed at gap %s: %s < %s", gap, cur, prev)
		prev = cur
	}
}
