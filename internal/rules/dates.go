// internal/rules/dates.go
package rules

import "time"

/*
 * Date operator semantics.
 *
 * All date comparisons work on calendar days (UTC), not raw instants.
 * Absolute operators compare against dates parsed at compile time; relative
 * operators compare against a window derived from an explicit reference
 * instant carried in EvalContext. Nothing here reads the wall clock: the
 * caller decides what "today" means, which keeps evaluation deterministic
 * and testable.
 *
 * Relative operators are a resolver table rather than an operator switch:
 * each operator maps to a pure function from (reference day, day threshold)
 * to an inclusive day window. Adding an operator means adding a table entry
 * and nothing else. Thresholds always come from the condition values; there
 * are no built-in defaults for "soon" or "recent".
 */

// dateWindow is an inclusive calendar-day range. Either bound may be open.
type dateWindow struct {
	start, end       time.Time
	hasStart, hasEnd bool
}

// contains reports whether calendar day d falls inside the window.
func (w dateWindow) contains(d time.Time) bool {
	if w.hasStart && d.Before(w.start) {
		return false
	}
	if w.hasEnd && d.After(w.end) {
		return false
	}
	return true
}

func singleDay(d time.Time) dateWindow {
	return dateWindow{start: d, end: d, hasStart: true, hasEnd: true}
}

func onOrBefore(d time.Time) dateWindow {
	return dateWindow{end: d, hasEnd: true}
}

func onOrAfter(d time.Time) dateWindow {
	return dateWindow{start: d, hasStart: true}
}

func span(start, end time.Time) dateWindow {
	return dateWindow{start: start, end: end, hasStart: true, hasEnd: true}
}

// weekWindow returns the ISO week (Monday through Sunday) containing d,
// shifted by weeks whole weeks.
func weekWindow(d time.Time, weeks int) dateWindow {
	sinceMonday := (int(d.Weekday()) + 6) % 7
	start := addDays(d, -sinceMonday+7*weeks)
	return span(start, addDays(start, 6))
}

// monthWindow returns the calendar month containing d.
func monthWindow(d time.Time) dateWindow {
	y, m, _ := d.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return span(start, addDays(start.AddDate(0, 1, 0), -1))
}

// relativeWindows maps each relative operator to its window resolver.
// today is the reference calendar day, days the condition's threshold
// (zero for the zero-valued operators).
var relativeWindows = map[Operator]func(today time.Time, days int) dateWindow{
	OpIsToday:   func(today time.Time, _ int) dateWindow { return singleDay(today) },
	OpYesterday: func(today time.Time, _ int) dateWindow { return singleDay(addDays(today, -1)) },
	OpTomorrow:  func(today time.Time, _ int) dateWindow { return singleDay(addDays(today, 1)) },
	OpIsOverdue: func(today time.Time, _ int) dateWindow { return onOrBefore(addDays(today, -1)) },
	OpThisWeek:  func(today time.Time, _ int) dateWindow { return weekWindow(today, 0) },
	OpNextWeek:  func(today time.Time, _ int) dateWindow { return weekWindow(today, 1) },
	OpThisMonth: func(today time.Time, _ int) dateWindow { return monthWindow(today) },

	OpOverdueByDays:     func(today time.Time, days int) dateWindow { return singleDay(addDays(today, -days)) },
	OpOverdueByMoreThan: func(today time.Time, days int) dateWindow { return onOrBefore(addDays(today, -days)) },
	OpOverdueByLessThan: func(today time.Time, days int) dateWindow { return span(addDays(today, -days), addDays(today, -1)) },
	OpDueInDays:         func(today time.Time, days int) dateWindow { return singleDay(addDays(today, days)) },
	OpDueWithinDays:     func(today time.Time, days int) dateWindow { return span(today, addDays(today, days)) },
	OpDueInMoreThanDays: func(today time.Time, days int) dateWindow { return onOrAfter(addDays(today, days+1)) },
	OpWithinLastDays:    func(today time.Time, days int) dateWindow { return span(addDays(today, -days), today) },
	OpMoreThanDaysAgo:   func(today time.Time, days int) dateWindow { return onOrBefore(addDays(today, -days-1)) },
	OpExactlyDaysAgo:    func(today time.Time, days int) dateWindow { return singleDay(addDays(today, -days)) },
	OpWithinNextDays:    func(today time.Time, days int) dateWindow { return span(today, addDays(today, days)) },
}

// matchDate applies a date condition to an optional record instant.
// Presence checks look only at nil-ness; every other operator requires a
// value and compares its calendar day.
func matchDate(cc *CompiledCondition, ts *time.Time, ref time.Time) bool {
	switch cc.Operator {
	case OpIsNull:
		return ts == nil
	case OpIsNotNull:
		return ts != nil
	}
	if ts == nil {
		return false
	}
	d := dateOf(*ts)

	switch cc.Operator {
	case OpBefore:
		return d.Before(cc.Start)
	case OpAfter:
		return d.After(cc.Start)
	case OpOn:
		return d.Equal(cc.Start)
	case OpBetween:
		// start after end is an empty range, matches nothing
		return !d.Before(cc.Start) && !d.After(cc.End)
	}

	resolve, ok := relativeWindows[cc.Operator]
	if !ok {
		return false
	}
	return resolve(dateOf(ref), cc.Days).contains(d)
}
