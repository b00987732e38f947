package market

import (
	"time"
)

// TriggerTimeLayout is the canonical trigger time format used across the
// analysis pipeline, e.g. "2024-08-19 09:00:00".
const TriggerTimeLayout = "2006-01-02 15:04:05"

// DateLayout is the compact trading date format, e.g. "20240819".
const DateLayout = "20060102"

// ReportDateLayout is the Chinese report date format, e.g. "2024年08月19日".
const ReportDateLayout = "2006年01月02日"

// ParseTriggerTime parses a trigger time string, falling back to now when
// the string is empty.
func ParseTriggerTime(triggerTime string) (time.Time, error) {
	if triggerTime == "" {
		return time.Now(), nil
	}
	return time.Parse(TriggerTimeLayout, triggerTime)
}

// PreviousTradingDate returns the trading day before the trigger time,
// skipping weekends. Exchange holidays are not considered.
func PreviousTradingDate(triggerTime string, layout string) (string, error) {
	t, err := ParseTriggerTime(triggerTime)
	if err != nil {
		return "", err
	}
	prev := backToTradingDay(t.AddDate(0, 0, -1))
	return prev.Format(layout), nil
}

// SmartTradingDate picks the trading day whose data a run at triggerTime
// should use. Before the 15:30 market close the current day's session is
// still open, so the previous trading day is used; from 15:30 on the
// current day counts.
func SmartTradingDate(triggerTime string, layout string) (string, error) {
	t, err := ParseTriggerTime(triggerTime)
	if err != nil {
		return "", err
	}

	cutoff := time.Date(t.Year(), t.Month(), t.Day(), 15, 30, 0, 0, t.Location())
	target := t
	if t.Before(cutoff) {
		target = backToTradingDay(t.AddDate(0, 0, -1))
	}
	return target.Format(layout), nil
}

// ReportDate returns the smart trading date in the Chinese report form,
// e.g. "2024年08月19日".
func ReportDate(triggerTime string) (string, error) {
	return SmartTradingDate(triggerTime, ReportDateLayout)
}

func backToTradingDay(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Sunday:
		return t.AddDate(0, 0, -2)
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	default:
		return t
	}
}
