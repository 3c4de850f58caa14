// Package schedule computes calendar-aware occurrence dates for recurring
// transactions using RFC 5545 recurrence rules.
//
// Monthly, quarterly and yearly schedules keep the day-of-month of the start
// date and clamp it to the length of each month: a schedule anchored on
// January 31 falls on February 29 in a leap year and returns to March 31.
package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"moneta/internal/models"
)

// shortestMonth is the number of days every month has.
const shortestMonth = 28

// Date truncates t to midnight UTC of its calendar date in t's location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in loc as midnight UTC.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Date(now.In(loc))
}

// Rule builds the recurrence rule for freq anchored on start.
func Rule(freq models.Frequency, start time.Time) (*rrule.RRule, error) {
	start = Date(start)
	opt := rrule.ROption{Dtstart: start, Interval: 1}

	switch freq {
	case models.FrequencyDaily:
		opt.Freq = rrule.DAILY
	case models.FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	case models.FrequencyBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
	case models.FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
		anchorMonthDay(&opt, start.Day())
	case models.FrequencyQuarterly:
		opt.Freq = rrule.MONTHLY
		opt.Interval = 3
		anchorMonthDay(&opt, start.Day())
	case models.FrequencyYearly:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(start.Month())}
		anchorMonthDay(&opt, start.Day())
	default:
		return nil, fmt.Errorf("unsupported frequency %q", freq)
	}

	return rrule.NewRRule(opt)
}

// anchorMonthDay pins the rule to day d of each month. Days past the 28th are
// expanded to every candidate from the 28th up to d and the last one that
// exists in the month is picked, which clamps d to the month's length.
func anchorMonthDay(opt *rrule.ROption, d int) {
	if d <= shortestMonth {
		opt.Bymonthday = []int{d}
		return
	}
	days := make([]int, 0, d-shortestMonth+1)
	for day := shortestMonth; day <= d; day++ {
		days = append(days, day)
	}
	opt.Bymonthday = days
	opt.Bysetpos = []int{-1}
}

// Next returns the first occurrence of the schedule strictly after after.
// The zero time is returned when the rule has no further occurrences.
func Next(freq models.Frequency, start, after time.Time) (time.Time, error) {
	rule, err := Rule(freq, start)
	if err != nil {
		return time.Time{}, err
	}
	return rule.After(Date(after), false), nil
}

// Upcoming returns up to n occurrences on or after from.
func Upcoming(freq models.Frequency, start, from time.Time, n int) ([]time.Time, error) {
	rule, err := Rule(freq, start)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, n)
	next := rule.After(Date(from), true)
	for !next.IsZero() && len(out) < n {
		out = append(out, next)
		next = rule.After(next, false)
	}
	return out, nil
}

// monthlyFactor expresses each frequency as occurrences per month (num/den).
var monthlyFactor = map[models.Frequency][2]int64{
	models.FrequencyDaily:     {30, 1},
	models.FrequencyWeekly:    {4, 1},
	models.FrequencyBiweekly:  {2, 1},
	models.FrequencyMonthly:   {1, 1},
	models.FrequencyQuarterly: {1, 3},
	models.FrequencyYearly:    {1, 12},
}

// MonthlyFactor returns the approximate number of occurrences per month as a
// fraction, used for monthly projections.
func MonthlyFactor(freq models.Frequency) (num, den int64, ok bool) {
	f, ok := monthlyFactor[freq]
	if !ok {
		return 0, 1, false
	}
	return f[0], f[1], true
}
