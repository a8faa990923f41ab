package domain

import (
	"fmt"
	"strings"
)

type Period string

const (
	PeriodHour  Period = "hour"
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodHour, PeriodDay, PeriodWeek, PeriodMonth:
		return p, nil
	}
	return "", fmt.Errorf("%w: period must be one of hour, day, week, month", ErrInvalidArgument)
}

// prefixLen is how many leading characters of a stored timestamp make up the label.
func (p Period) prefixLen() int {
	switch p {
	case PeriodHour:
		return 13
	case PeriodDay:
		return 10
	case PeriodMonth:
		return 7
	}
	return 0
}

// Label returns the bucket a stored timestamp falls into. Week labels are the
// Monday-based week of the year, "00" to "53", with no year component.
func (p Period) Label(ts string) (string, error) {
	if p == PeriodWeek {
		t, err := ParseTimestamp(ts)
		if err != nil {
			return "", err
		}
		isoDow := (int(t.Weekday())+6)%7 + 1
		return fmt.Sprintf("%02d", (t.YearDay()+7-isoDow)/7), nil
	}
	n := p.prefixLen()
	if n == 0 {
		return "", fmt.Errorf("%w: unknown period %q", ErrInvalidArgument, string(p))
	}
	if len(ts) < n {
		return ts, nil
	}
	return ts[:n], nil
}
