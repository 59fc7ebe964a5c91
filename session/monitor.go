package session

import (
	"sync"
	"time"

	"github.com/yeremiapane/qrdine/models"
	"github.com/yeremiapane/qrdine/services"
	"github.com/yeremiapane/qrdine/utils"
)

// Broadcaster receives the monitor's state transitions. The events hub
// implements it; tests substitute a recorder.
type Broadcaster interface {
	SessionExpired(tenantCode, identityKey string)
	HappyHourUpdate(tenantCode string, active bool, windowLabel string)
}

type happyHourState struct {
	schedule models.HappyHourSchedule
	active   bool
	known    bool
}

// Monitor is the only background activity in the system: it fires the hard
// expiry for tracked bindings and re-evaluates happy-hour windows, pushing
// both to the events hub. Expiry is never renewed silently -- the customer
// has to scan again.
type Monitor struct {
	Hub      Broadcaster
	Interval time.Duration
	StopChan chan struct{}

	happyHours *services.HappyHourService

	mu       sync.Mutex
	bindings map[string]models.Identity // identity key -> binding
	tenants  map[string]*happyHourState // tenant code -> window state
}

func NewMonitor(hub Broadcaster) *Monitor {
	return &Monitor{
		Hub:        hub,
		Interval:   time.Second,
		StopChan:   make(chan struct{}),
		happyHours: services.NewHappyHourService(),
		bindings:   make(map[string]models.Identity),
		tenants:    make(map[string]*happyHourState),
	}
}

func (m *Monitor) Start() {
	go func() {
		ticker := time.NewTicker(m.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Check(time.Now())
			case <-m.StopChan:
				return
			}
		}
	}()
}

// Stop cancels the ticker so no timer fires against torn-down state.
func (m *Monitor) Stop() {
	close(m.StopChan)
}

// Track registers a binding for expiry watching. Re-tracking the same key
// replaces the previous entry (last write wins, as with the cookies).
func (m *Monitor) Track(id models.Identity) {
	if !id.IsBound() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[id.Key()] = id
}

// Untrack drops a binding, e.g. after an explicit reset.
func (m *Monitor) Untrack(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bindings, key)
}

// TrackTenant registers a tenant's happy-hour schedule for re-evaluation.
func (m *Monitor) TrackTenant(tenantCode string, schedule models.HappyHourSchedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[tenantCode] = &happyHourState{schedule: schedule}
}

// Check runs one evaluation pass. Split out from the ticker loop so tests
// can drive it with a fixed clock.
func (m *Monitor) Check(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, id := range m.bindings {
		if !id.ValidAt(now) {
			delete(m.bindings, key)
			utils.InfoLogger.Printf("Binding expired: tenant=%s key=%s", id.TenantCode, key)
			m.Hub.SessionExpired(id.TenantCode, key)
		}
	}

	for code, state := range m.tenants {
		active := m.happyHours.IsActive(state.schedule, now)
		if state.known && active == state.active {
			continue
		}
		state.known = true
		state.active = active

		label := ""
		if window := m.happyHours.TodayWindowLabel(state.schedule, now); window != nil {
			label = *window
		}
		m.Hub.HappyHourUpdate(code, active, label)
	}
}
