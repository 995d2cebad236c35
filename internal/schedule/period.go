package schedule

// The day is divided into 8 bookable periods. 12:00-14:00 is the lunch
// break and is not bookable, which is why the canonical hours are not
// contiguous.
const PeriodsPerDay = 8

// PeriodStarts holds the wall-clock start of each period, indexed by period.
var PeriodStarts = [PeriodsPerDay]string{
	"08:00", "09:00", "10:00", "11:00", "14:00", "15:00", "16:00", "17:00",
}

// periodStartHours mirrors PeriodStarts as integers.
var periodStartHours = [PeriodsPerDay]int{8, 9, 10, 11, 14, 15, 16, 17}

// hourToPeriod maps every hour of the day to a period index. Canonical
// hours map 1:1; everything else snaps to the nearest period so that
// malformed or legacy client timestamps degrade to a deterministic slot
// instead of being dropped.
var hourToPeriod = [24]int{
	0: 0, 1: 0, 2: 0, 3: 0, 4: 0, 5: 0, 6: 0, 7: 0, // early hours -> 08:00
	8: 0, 9: 1, 10: 2, 11: 3, // morning block
	12: 4, 13: 4, // lunch -> 14:00
	14: 4, 15: 5, 16: 6, 17: 7, // afternoon block
	18: 7, 19: 7, 20: 7, 21: 7, 22: 7, 23: 7, // evening -> 17:00
}

// HourToPeriod resolves a wall-clock hour to a period index. ok is false
// only for hours outside [0,23]; every in-range hour resolves to a period.
func HourToPeriod(hour int) (period int, ok bool) {
	if hour < 0 || hour > 23 {
		return 0, false
	}
	return hourToPeriod[hour], true
}

// PeriodStartHour returns the canonical start hour for a period index.
func PeriodStartHour(period int) int {
	if period < 0 || period >= PeriodsPerDay {
		return periodStartHours[0]
	}
	return periodStartHours[period]
}
