package service_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/msomdec/birthday-bot/internal/domain"
	"github.com/msomdec/birthday-bot/internal/service"
)

func defaultCalendar(t *testing.T) *service.Calendar {
	t.Helper()
	cal, err := service.LoadCalendar("")
	if err != nil {
		t.Fatalf("LoadCalendar: %v", err)
	}
	return cal
}

func TestDefaultCalendar(t *testing.T) {
	cal := defaultCalendar(t)

	want := []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	if diff := cmp.Diff(want, cal.Months()); diff != "" {
		t.Fatalf("months mismatch (-want +got):\n%s", diff)
	}
	if n, _ := cal.DayCount("February"); n != 29 {
		t.Fatalf("expected February to offer 29 days, got %d", n)
	}
}

func TestIsValidDay(t *testing.T) {
	cal := defaultCalendar(t)

	tests := []struct {
		month string
		day   int
		want  bool
	}{
		{"February", 28, true},
		{"February", 29, true},
		{"February", 30, false},
		{"April", 31, false},
		{"March", 31, true},
		{"March", 0, false},
		{"March", -1, false},
		{"Unknown", 1, false},
		{"", 1, false},
	}
	for _, tt := range tests {
		if got := cal.IsValidDay(tt.month, tt.day); got != tt.want {
			t.Errorf("IsValidDay(%q, %d) = %v, want %v", tt.month, tt.day, got, tt.want)
		}
	}
}

func TestMonthsReturnsCopy(t *testing.T) {
	cal := defaultCalendar(t)
	months := cal.Months()
	months[0] = "Smarch"
	if cal.Months()[0] != "January" {
		t.Fatal("Months must not expose internal state")
	}
}

func TestParseCalendarRejectsBadTables(t *testing.T) {
	full := `"January": 31, "February": 28, "March": 31, "April": 30, "May": 31, "June": 30,
		"July": 31, "August": 31, "September": 30, "October": 31, "November": 30`

	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"January":`},
		{"missing month", `{` + full + `}`},
		{"too many days", `{` + full + `, "December": 32}`},
		{"too few days", `{` + full + `, "December": 27}`},
		{"unknown month", `{` + full + `, "December": 31, "Smarch": 30}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ParseCalendar([]byte(tt.doc))
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestLoadCalendarFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendar.jsonc")
	doc := `{
		// non-leap table
		"January": 31, "February": 28, "March": 31, "April": 30, "May": 31, "June": 30,
		"July": 31, "August": 31, "September": 30, "October": 31, "November": 30, "December": 31,
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write calendar: %v", err)
	}

	cal, err := service.LoadCalendar(path)
	if err != nil {
		t.Fatalf("LoadCalendar: %v", err)
	}
	if cal.IsValidDay("February", 29) {
		t.Fatal("expected February 29 to be invalid in a non-leap table")
	}
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"5", 5, false},
		{"5.0", 5, false},
		{" 12 ", 12, false},
		{"31", 31, false},
		{"5.5", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"NaN", 0, true},
		{"1e12", 0, true},
	}
	for _, tt := range tests {
		got, err := service.ParseDay(tt.in)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("ParseDay(%q): expected ErrInvalidInput, got %d, %v", tt.in, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseDay(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}
