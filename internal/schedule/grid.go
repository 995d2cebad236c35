package schedule

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SlotState is the stored state of one (date, period) cell.
type SlotState int

const (
	SlotFree        SlotState = 0 // bookable
	SlotBooked      SlotState = 1 // occupied by exactly one active appointment
	SlotUnavailable SlotState = 2 // expert opted out
)

// WindowDays is the size of the rolling bookable window.
const WindowDays = 14

// RetentionDays is how long past dates are kept before cleanup, so that
// just-completed appointments remain displayable for a week.
const RetentionDays = 7

const dateLayout = "2006-01-02"

// DaySlots holds the state of the 8 periods of one date.
type DaySlots [PeriodsPerDay]SlotState

// Grid is the slot grid of one expert: a date-keyed map of day states.
// Dates with no entry read as all-free. The grid is not safe for
// concurrent use; callers serialize access per expert.
type Grid struct {
	days map[string]DaySlots
}

func NewGrid() *Grid {
	return &Grid{days: make(map[string]DaySlots)}
}

// DateKey normalizes a timestamp to the grid's date key.
func DateKey(t time.Time) string {
	return t.Format(dateLayout)
}

// SlotAt returns the stored state of a cell; missing dates are all-free.
func (g *Grid) SlotAt(date time.Time, period int) SlotState {
	if period < 0 || period >= PeriodsPerDay {
		return SlotFree
	}
	return g.days[DateKey(date)][period]
}

// DayAt returns the full day row for a date.
func (g *Grid) DayAt(date time.Time) DaySlots {
	return g.days[DateKey(date)]
}

func (g *Grid) setSlot(date time.Time, period int, state SlotState) {
	key := DateKey(date)
	day := g.days[key]
	day[period] = state
	g.days[key] = day
}

// SetAvailability toggles a cell between free and unavailable. A booked
// cell is left untouched: the toggle records a preference for future
// openness, and an existing booking takes precedence over it.
func (g *Grid) SetAvailability(date time.Time, period int, available bool) {
	if period < 0 || period >= PeriodsPerDay {
		return
	}
	if g.SlotAt(date, period) == SlotBooked {
		return
	}
	if available {
		g.setSlot(date, period, SlotFree)
	} else {
		g.setSlot(date, period, SlotUnavailable)
	}
}

// Reserve transitions a cell from free to booked. It reports whether the
// transition happened; any state other than free leaves the grid unchanged.
// This state check is what makes reservation safe when callers serialize
// access per slot.
func (g *Grid) Reserve(date time.Time, period int) bool {
	if period < 0 || period >= PeriodsPerDay {
		return false
	}
	if g.SlotAt(date, period) != SlotFree {
		return false
	}
	g.setSlot(date, period, SlotBooked)
	return true
}

// Release transitions a cell from booked back to free.
func (g *Grid) Release(date time.Time, period int) bool {
	if period < 0 || period >= PeriodsPerDay {
		return false
	}
	if g.SlotAt(date, period) != SlotBooked {
		return false
	}
	g.setSlot(date, period, SlotFree)
	return true
}

// EnsureFutureDays materializes all-free rows for [today, today+days-1]
// where absent. Days beyond the window are left untouched. Reports whether
// the grid changed.
func (g *Grid) EnsureFutureDays(today time.Time, days int) bool {
	changed := false
	for i := 0; i < days; i++ {
		key := DateKey(today.AddDate(0, 0, i))
		if _, ok := g.days[key]; !ok {
			g.days[key] = DaySlots{}
			changed = true
		}
	}
	return changed
}

// CleanupBefore drops all rows strictly before cutoff. Reports whether the
// grid changed.
func (g *Grid) CleanupBefore(cutoff time.Time) bool {
	cutoffKey := DateKey(cutoff)
	changed := false
	for key := range g.days {
		if key < cutoffKey {
			delete(g.days, key)
			changed = true
		}
	}
	return changed
}

// Dates returns the materialized dates in ascending order.
func (g *Grid) Dates() []string {
	keys := make([]string, 0, len(g.days))
	for key := range g.days {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Serialize encodes the grid as a date-keyed JSON object whose values are
// comma-joined state digits, e.g. {"2026-09-01":"0,0,2,0,0,0,0,1"}.
func (g *Grid) Serialize() ([]byte, error) {
	out := make(map[string]string, len(g.days))
	for key, day := range g.days {
		parts := make([]string, PeriodsPerDay)
		for i, s := range day {
			parts[i] = strconv.Itoa(int(s))
		}
		out[key] = strings.Join(parts, ",")
	}
	return json.Marshal(out)
}

// ParseGrid decodes a serialized grid. The format is forgiving: cells that
// fail to parse or are out of range read as free, and a blob that is not
// valid JSON yields an empty grid rather than an error, so a corrupt row
// never blocks scheduling.
func ParseGrid(data []byte) *Grid {
	g := NewGrid()
	if len(data) == 0 {
		return g
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return g
	}

	for key, value := range raw {
		if _, err := time.Parse(dateLayout, key); err != nil {
			continue
		}
		var day DaySlots
		for i, part := range strings.Split(value, ",") {
			if i >= PeriodsPerDay {
				break
			}
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < int(SlotFree) || n > int(SlotUnavailable) {
				n = int(SlotFree)
			}
			day[i] = SlotState(n)
		}
		g.days[key] = day
	}

	return g
}
