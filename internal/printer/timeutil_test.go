package printer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/usbforge/usbforge/internal/printer"
)

func TestTimeAgo(t *testing.T) {
	now := time.Now().UTC()

	tests := map[string]struct {
		t   time.Time
		exp string
	}{
		"seconds ago": {t: now.Add(-5 * time.Second), exp: "5 seconds ago (UTC)"},
		"one minute":  {t: now.Add(-time.Minute - time.Second), exp: "1 minute ago (UTC)"},
		"hours ago":   {t: now.Add(-3 * time.Hour), exp: "3 hours ago (UTC)"},
		"days ago":    {t: now.Add(-49 * time.Hour), exp: "2 days ago (UTC)"},
		"future":      {t: now.Add(time.Hour), exp: "in the future (UTC)"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, printer.TimeAgo(test.t))
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2025, 11, 2, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-11-02 10:30:00 UTC", printer.FormatTimestamp(ts))
}

func TestFormatDuration(t *testing.T) {
	tests := map[string]struct {
		d   time.Duration
		exp string
	}{
		"seconds":  {d: 45 * time.Second, exp: "45s"},
		"minutes":  {d: 2*time.Minute + 30*time.Second, exp: "2m30s"},
		"hours":    {d: time.Hour + 5*time.Minute, exp: "1h05m"},
		"negative": {d: -time.Second, exp: "0s"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, printer.FormatDuration(test.d))
		})
	}
}
