package services

import (
	"fmt"
	"time"

	"github.com/yeremiapane/qrdine/models"
)

// HappyHourService decides whether time-limited products are orderable right
// now. Stateless; the schedule comes in with every call.
type HappyHourService struct{}

func NewHappyHourService() *HappyHourService {
	return &HappyHourService{}
}

// IsActive reports whether today's window covers the current instant. A
// window whose end minute is below its start minute wraps across midnight;
// the end minute itself is exclusive either way. A nil schedule (missing or
// malformed tenant config) is never active.
func (s *HappyHourService) IsActive(schedule models.HappyHourSchedule, now time.Time) bool {
	window, ok := schedule.WindowFor(now.Weekday())
	if !ok || !window.Enabled {
		return false
	}

	minute := now.Hour()*60 + now.Minute()
	if window.EndTime < window.StartTime {
		return minute >= window.StartTime || minute < window.EndTime
	}
	return minute >= window.StartTime && minute < window.EndTime
}

// CanOrder -> whether this product may be ordered right now. Products linked
// to a happy-hour parent are only orderable while the window is active;
// everything else is orderable regardless of schedule.
func (s *HappyHourService) CanOrder(product models.Product, schedule models.HappyHourSchedule, now time.Time) bool {
	if !product.HappyHourLinked() {
		return true
	}
	return s.IsActive(schedule, now)
}

// TodayWindowLabel formats today's enabled window as "HH:MM - HH:MM" for the
// page banner, or nil when today has no window.
func (s *HappyHourService) TodayWindowLabel(schedule models.HappyHourSchedule, now time.Time) *string {
	window, ok := schedule.WindowFor(now.Weekday())
	if !ok || !window.Enabled {
		return nil
	}
	label := fmt.Sprintf("%s - %s", formatMinute(window.StartTime), formatMinute(window.EndTime))
	return &label
}

func formatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
