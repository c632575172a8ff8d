package utils

import (
	"sync"
	"time"

	"forex-signal-bot/src/logger"

	"github.com/scmhub/calendar"
)

// FXCentre is one of the four trading centres whose hours make up the FX day.
type FXCentre struct {
	Name string
	MIC  string

	// Fallback hours in UTC, used when the exchange calendar cannot be loaded.
	OpenHourUTC  int
	CloseHourUTC int
}

// FXCentres is the display order of the sessions.
var FXCentres = []FXCentre{
	{Name: "Sydney", MIC: "xasx", OpenHourUTC: 21, CloseHourUTC: 6},
	{Name: "Tokyo", MIC: "xtks", OpenHourUTC: 0, CloseHourUTC: 9},
	{Name: "London", MIC: "xlon", OpenHourUTC: 7, CloseHourUTC: 16},
	{Name: "New York", MIC: "xnys", OpenHourUTC: 12, CloseHourUTC: 21},
}

type centreClock struct {
	centre FXCentre
	cal    *calendar.Calendar
}

// -----------------------------------------------------------------------------
// SessionClock reports which FX centres are trading at a given instant.
// -----------------------------------------------------------------------------

type SessionClock struct {
	Logger *logger.Logger
	Now    func() time.Time

	mu     sync.RWMutex
	clocks []centreClock
}

// -----------------------------------------------------------------------------

func NewSessionClock(l *logger.Logger) *SessionClock {
	if l == nil {
		l = logger.NewLogger(nil, "SessionClock")
	}
	sc := &SessionClock{Logger: l, Now: time.Now}
	sc.LoadCentres(FXCentres)
	return sc
}

// -----------------------------------------------------------------------------

// LoadCentres maps each centre to its exchange calendar.
func (sc *SessionClock) LoadCentres(centres []FXCentre) {
	clocks := make([]centreClock, 0, len(centres))
	fallbacks := 0
	for _, c := range centres {
		cal := calendar.GetCalendar(c.MIC)
		if cal == nil {
			fallbacks++
			sc.Logger.Warning("No calendar for MIC '%s' (%s), using %02d:00-%02d:00 UTC on weekdays",
				c.MIC, c.Name, c.OpenHourUTC, c.CloseHourUTC)
		}
		clocks = append(clocks, centreClock{centre: c, cal: cal})
	}

	sc.mu.Lock()
	sc.clocks = clocks
	sc.mu.Unlock()

	sc.Logger.Info("SessionClock: loaded %d centres (%d on fallback hours).", len(clocks), fallbacks)
}

// -----------------------------------------------------------------------------

// OpenSessions returns the names of the centres open at t, in FXCentres order.
func (sc *SessionClock) OpenSessions(t time.Time) []string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	open := []string{}
	for _, cc := range sc.clocks {
		if cc.isOpen(t) {
			open = append(open, cc.centre.Name)
		}
	}
	return open
}

// -----------------------------------------------------------------------------

// Current is OpenSessions at the clock's Now.
func (sc *SessionClock) Current() []string {
	return sc.OpenSessions(sc.Now())
}

// -----------------------------------------------------------------------------

// AnyOpen reports whether at least one centre is trading at t.
func (sc *SessionClock) AnyOpen(t time.Time) bool {
	return len(sc.OpenSessions(t)) > 0
}

// -----------------------------------------------------------------------------

func (cc centreClock) isOpen(t time.Time) bool {
	if cc.cal != nil {
		return cc.cal.IsOpen(t)
	}

	u := t.UTC()
	if u.Weekday() == time.Saturday || u.Weekday() == time.Sunday {
		return false
	}
	h := u.Hour()
	if cc.centre.OpenHourUTC <= cc.centre.CloseHourUTC {
		return h >= cc.centre.OpenHourUTC && h < cc.centre.CloseHourUTC
	}
	// wraps midnight
	return h >= cc.centre.OpenHourUTC || h < cc.centre.CloseHourUTC
}
