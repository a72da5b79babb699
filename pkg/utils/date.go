package utils

import (
	"fmt"
	"sync/atomic"
	"time"
)

var appLocation atomic.Pointer[time.Location]

// SetLocation sets the time zone used by TimeNow. Unknown names fall back to UTC.
func SetLocation(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLocation.Store(time.UTC)
		return fmt.Errorf("failed to load location %q: %w", name, err)
	}
	appLocation.Store(loc)
	return nil
}

func GetLocation() *time.Location {
	if loc := appLocation.Load(); loc != nil {
		return loc
	}
	return time.UTC
}

// TimeNow returns the current time in the application time zone.
func TimeNow() time.Time {
	return time.Now().In(GetLocation())
}

func PrettyDate(date time.Time) string {
	return date.In(GetLocation()).Format("2006-01-02 15:04")
}

// PeriodToDays maps a history range such as "3m" to a number of days.
func PeriodToDays(period string) int {
	switch period {
	case "1d":
		return 1
	case "1w":
		return 7
	case "1m":
		return 30
	case "3m":
		return 90
	case "6m":
		return 180
	case "1y":
		return 365
	default:
		return 0
	}
}
