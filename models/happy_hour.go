package models

import (
	"encoding/json"
	"strings"
	"time"
)

// HappyHourWindow is one weekday's window in minutes of the day.
// EndTime < StartTime means the window wraps across midnight.
type HappyHourWindow struct {
	Enabled   bool `json:"enabled"`
	StartTime int  `json:"startTime"`
	EndTime   int  `json:"endTime"`
}

// HappyHourSchedule maps lowercase weekday names ("monday", ...) to windows.
type HappyHourSchedule map[string]HappyHourWindow

// WindowFor -> today's entry, if the schedule has one
func (s HappyHourSchedule) WindowFor(day time.Weekday) (HappyHourWindow, bool) {
	w, ok := s[strings.ToLower(day.String())]
	return w, ok
}

// ParseHappyHourSchedule parses the tenant's schedule JSON. A malformed or
// empty payload yields a nil schedule, which evaluates as "never active" --
// never an error the caller has to handle.
func ParseHappyHourSchedule(raw string) HappyHourSchedule {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var s HappyHourSchedule
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil
	}
	return s
}
