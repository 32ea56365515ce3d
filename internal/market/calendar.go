package market

import (
	"time"

	"github.com/paperdesk/paperdesk/internal/core"
)

// Calendar answers whether an asset class is currently tradable.
type Calendar interface {
	IsOpen(class core.AssetClass) bool
}

// AlwaysOpen treats every market as open. Useful for simulation and tests.
type AlwaysOpen struct{}

func (AlwaysOpen) IsOpen(core.AssetClass) bool { return true }

// SessionCalendar applies exchange hours per asset class. Crypto trades
// around the clock; the others keep weekday sessions in the configured
// location.
type SessionCalendar struct {
	loc *time.Location
	now func() time.Time
}

// NewSessionCalendar builds a calendar for the given location. A nil
// location falls back to UTC.
func NewSessionCalendar(loc *time.Location) *SessionCalendar {
	if loc == nil {
		loc = time.UTC
	}
	return &SessionCalendar{loc: loc, now: time.Now}
}

// session hours by class, in minutes from midnight local time.
var sessions = map[core.AssetClass][2]int{
	core.AssetStock: {9*60 + 15, 15*60 + 30},
	core.AssetMCX:   {9 * 60, 23*60 + 30},
	core.AssetForex: {9 * 60, 23 * 60},
}

// IsOpen reports whether the class trades at this moment.
func (c *SessionCalendar) IsOpen(class core.AssetClass) bool {
	if class == core.AssetCrypto {
		return true
	}

	now := c.now().In(c.loc)
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}

	window, ok := sessions[class]
	if !ok {
		return false
	}
	minute := now.Hour()*60 + now.Minute()
	return minute >= window[0] && minute <= window[1]
}
