package pricing

import "time"

// DayWindow is the local-time window billed at the day rate; everything
// outside it is billed at the night rate. Hours are half-open: a window of
// 6-18 prices [06:00, 18:00) as day.
type DayWindow struct {
	StartHour int
	EndHour   int
}

// DefaultDayWindow matches the operating convention of the sport centres:
// day rate from 06:00 to 18:00.
var DefaultDayWindow = DayWindow{StartHour: 6, EndHour: 18}

// Calculate returns the total price for the half-open interval
// [start, end) given per-hour day and night rates. Fractional hours are
// billed proportionally. The caller guarantees end is not before start;
// a zero-duration interval costs zero.
func Calculate(start, end time.Time, dayRate, nightRate int64, w DayWindow) int64 {
	if !end.After(start) {
		return 0
	}

	dayStart := time.Date(start.Year(), start.Month(), start.Day(), w.StartHour, 0, 0, 0, start.Location())
	dayEnd := time.Date(start.Year(), start.Month(), start.Day(), w.EndHour, 0, 0, 0, start.Location())

	dayHours := overlapHours(start, end, dayStart, dayEnd)
	nightHours := end.Sub(start).Hours() - dayHours

	return round(dayHours*float64(dayRate)) + round(nightHours*float64(nightRate))
}

// overlapHours returns the duration, in hours, shared by [aStart, aEnd)
// and [bStart, bEnd).
func overlapHours(aStart, aEnd, bStart, bEnd time.Time) float64 {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start).Hours()
}

func round(v float64) int64 {
	return int64(v + 0.5)
}
