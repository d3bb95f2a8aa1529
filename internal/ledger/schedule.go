package ledger

import "time"

// NextDate returns the execution date following from.
//
// A custom frequency always advances by one calendar month; the frequency's
// day count is not consulted. Unknown or empty periods also advance by one
// month.
func NextDate(s *Subscription, from time.Time) time.Time {
	if s.FrequencyID != nil {
		return from.AddDate(0, 1, 0)
	}

	switch s.RecurrencePeriod {
	case PeriodDaily:
		return from.AddDate(0, 0, 1)
	case PeriodWeekly:
		return from.AddDate(0, 0, 7)
	case PeriodMonthly:
		return from.AddDate(0, 1, 0)
	case PeriodYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// DecrementCounter consumes one run from the remaining-runs counter.
// A nil counter is unlimited and never pauses.
func DecrementCounter(interval *int) (*int, bool) {
	if interval == nil {
		return nil, false
	}

	next := max(0, *interval-1)

	return &next, next == 0
}

// Step returns s as it stands after executing the occurrence due at
// s.NextExecutionDate.
func Step(s Subscription, executedAt time.Time) Subscription {
	s.NextExecutionDate = NextDate(&s, s.NextExecutionDate)
	s.LastExecutionDate = &executedAt

	remaining, pause := DecrementCounter(s.RecurrenceInterval)
	s.RecurrenceInterval = remaining

	if pause {
		s.IsPaused = true
	}

	return s
}

// Plan lists the occurrence dates a catch-up pass would execute for s up to
// cutoff, bounded by limit, and the resulting subscription state.
func Plan(s Subscription, cutoff, executedAt time.Time, limit int) ([]time.Time, Subscription) {
	var dates []time.Time

	for len(dates) < limit && s.Due(cutoff) {
		dates = append(dates, s.NextExecutionDate)
		s = Step(s, executedAt)
	}

	return dates, s
}

// EndOfDay returns the last instant of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()

	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}
