// Package expiry computes when an unaccepted booking times out.
package expiry

import "time"

const (
	shortGap  = 90 * time.Minute
	dayGap    = 24 * time.Hour
	longGap   = 72 * time.Hour
	shortHold = 90 * time.Minute
	dayHold   = 16 * time.Hour
	longLead  = 48 * time.Hour
)

// WillExpireAt returns the instant after which a booking created at
// createdAt with session start due is considered timed out. The hold
// time is tiered on the gap between creation and due:
//
//	gap <= 90m  -> due
//	gap <= 24h  -> createdAt + 90m
//	gap <= 72h  -> createdAt + 16h
//	gap >  72h  -> due - 48h
func WillExpireAt(due, createdAt time.Time) time.Time {
	gap := due.Sub(createdAt)

	switch {
	case gap <= shortGap:
		return due
	case gap <= dayGap:
		return createdAt.Add(shortHold)
	case gap <= longGap:
		return createdAt.Add(dayHold)
	default:
		return due.Add(-longLead)
	}
}
