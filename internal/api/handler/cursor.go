package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// HistoryCursor is the keyset position inside a user's booking
// history, ordered by due time descending with the id as tiebreaker.
type HistoryCursor struct {
	Due   time.Time
	JobID string
}

func DecodeHistoryCursor(cursorStr string) (*HistoryCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, err
	}

	decodedParts := strings.Split(string(decoded), "|")
	if len(decodedParts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	var due int64
	if _, err := fmt.Sscanf(decodedParts[0], "%d", &due); err != nil {
		return nil, fmt.Errorf("invalid due in cursor: %w", err)
	}

	return &HistoryCursor{
		Due:   time.Unix(0, due),
		JobID: decodedParts[1],
	}, nil
}

func EncodeHistoryCursor(cursor *HistoryCursor) string {
	raw := fmt.Sprintf("%d|%s", cursor.Due.UnixNano(), cursor.JobID)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}
