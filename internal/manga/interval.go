package manga

import (
	"math"
	"slices"
	"time"

	"github.com/mrlokans/mangashelf/internal/entities"
)

const (
	// DefaultFetchInterval is used when chapters carry too few dates to infer a cadence.
	DefaultFetchInterval = 7
	// MaxFetchInterval caps the inferred interval, in days.
	MaxFetchInterval = 28

	doubleIntervalAfter = 10
)

// CalculateInterval infers how many days a series usually waits between
// releases: the median gap between the most recent distinct upload days, or
// fetch days when uploads are undated. The result is clamped to 1..MaxFetchInterval.
func CalculateInterval(chapters []entities.Chapter, loc *time.Location) int {
	window := 10
	if len(chapters) <= 8 {
		window = 3
	}

	interval := DefaultFetchInterval
	if days := distinctDays(chapters, loc, window, func(c entities.Chapter) int64 { return c.DateUpload }); len(days) >= 3 {
		interval = medianGap(days)
	} else if days := distinctDays(chapters, loc, window, func(c entities.Chapter) int64 { return c.DateFetch }); len(days) >= 3 {
		interval = medianGap(days)
	}

	return min(max(interval, 1), MaxFetchInterval)
}

// distinctDays returns up to limit distinct start-of-day times, newest first.
func distinctDays(chapters []entities.Chapter, loc *time.Location, limit int, date func(entities.Chapter) int64) []time.Time {
	var stamps []int64
	for _, c := range chapters {
		if d := date(c); d > 0 {
			stamps = append(stamps, d)
		}
	}
	slices.Sort(stamps)
	slices.Reverse(stamps)

	var days []time.Time
	for _, stamp := range stamps {
		day := startOfDay(time.UnixMilli(stamp).In(loc))
		if len(days) > 0 && days[len(days)-1].Equal(day) {
			continue
		}
		days = append(days, day)
		if len(days) == limit {
			break
		}
	}
	return days
}

func medianGap(days []time.Time) int {
	gaps := make([]int, 0, len(days)-1)
	for i := 1; i < len(days); i++ {
		gaps = append(gaps, daysBetween(days[i], days[i-1]))
	}
	slices.Sort(gaps)
	return gaps[(len(gaps)-1)/2]
}

// NextUpdate predicts when m should next be checked. A negative FetchInterval
// is a user-fixed interval and is used as is; otherwise the interval doubles
// while the series has been quiet for more than a few cycles.
func NextUpdate(m entities.Manga, interval int, now time.Time) int64 {
	latest := now
	if m.LastUpdate > 0 {
		latest = time.UnixMilli(m.LastUpdate).In(now.Location())
	}
	latest = startOfDay(latest)
	sinceLatest := max(daysBetween(latest, startOfDay(now)), 0)

	var step int
	switch {
	case interval < 0:
		step = -interval
	case interval == 0:
		step = doubleInterval(DefaultFetchInterval, sinceLatest)
	default:
		step = doubleInterval(interval, sinceLatest)
	}

	cycle := sinceLatest / step
	return latest.AddDate(0, 0, (cycle+1)*step).UnixMilli()
}

func doubleInterval(delta, sinceLatest int) int {
	for delta < MaxFetchInterval {
		if sinceLatest/delta+1 <= doubleIntervalAfter {
			return delta
		}
		delta *= 2
	}
	return MaxFetchInterval
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}
