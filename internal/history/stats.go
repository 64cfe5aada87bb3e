package history

import "time"

// Stats summarizes recent activity over the retained window.
type Stats struct {
	Today    int `json:"today"`
	ThisWeek int `json:"this_week"`
	Retained int `json:"retained"`
}

// Stats counts records since local midnight and within the last seven days.
func (l *Log) Stats(now time.Time) Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := Stats{Retained: len(l.records)}
	for _, rec := range l.records {
		if !rec.Timestamp.Before(midnight) {
			stats.Today++
		}
		if !rec.Timestamp.Before(weekAgo) {
			stats.ThisWeek++
		}
	}
	return stats
}
