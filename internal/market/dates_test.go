package market

import "testing"

func TestSmartTradingDate(t *testing.T) {
	cases := []struct {
		name    string
		trigger string
		want    string
	}{
		// 2024-08-19 is a Monday.
		{"before close uses previous trading day", "2024-08-19 09:00:00", "20240816"},
		{"after close uses same day", "2024-08-19 16:00:00", "20240819"},
		{"at cutoff uses same day", "2024-08-19 15:30:00", "20240819"},
		{"monday morning skips weekend to friday", "2024-08-19 10:00:00", "20240816"},
		{"sunday maps to friday", "2024-08-18 12:00:00", "20240816"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SmartTradingDate(tc.trigger, DateLayout)
			if err != nil {
				t.Fatalf("SmartTradingDate: %v", err)
			}
			if got != tc.want {
				t.Fatalf("SmartTradingDate(%q) = %s, want %s", tc.trigger, got, tc.want)
			}
		})
	}
}

func TestPreviousTradingDate(t *testing.T) {
	got, err := PreviousTradingDate("2024-08-19 09:00:00", DateLayout)
	if err != nil {
		t.Fatalf("PreviousTradingDate: %v", err)
	}
	// The day before Monday is Sunday, which rolls back to Friday.
	if got != "20240816" {
		t.Fatalf("PreviousTradingDate = %s, want 20240816", got)
	}
}

func TestReportDate(t *testing.T) {
	got, err := ReportDate("2024-08-19 16:00:00")
	if err != nil {
		t.Fatalf("ReportDate: %v", err)
	}
	if got != "2024年08月19日" {
		t.Fatalf("ReportDate = %s", got)
	}
}

func TestParseTriggerTimeRejectsGarbage(t *testing.T) {
	if _, err := ParseTriggerTime("not a time"); err == nil {
		t.Fatal("expected parse error")
	}
}
