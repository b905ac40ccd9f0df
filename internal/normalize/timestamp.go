package normalize

import (
	"regexp"
	"strings"
	"time"
)

// Layouts carrying an explicit zone offset. Values parsed with these are
// converted to UTC before the offset is discarded.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05-0700",
}

// Layouts without zone information. Values parsed with these are assumed to
// already be in the target zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"02-01-2006",
	"02-01-06",
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04:05 PM",
}

// resolveTimestamp produces the record's naive timestamp. Any zone-aware
// input is converted to UTC and the zone dropped; naive input is taken as
// already representing the target zone. Every resulting time.Time lives in
// time.UTC, so sorting and diffing across a dataset never mixes
// representations. A separate clock-time field, when present, is added onto
// a date-only timestamp.
func resolveTimestamp(rec RawRecord) (time.Time, bool) {
	for _, key := range timestampAliases {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		ts, ok := coerceTimestamp(v)
		if !ok {
			continue
		}
		if clock, ok := resolveClock(rec); ok && ts.Hour() == 0 && ts.Minute() == 0 && ts.Second() == 0 {
			ts = ts.Add(clock)
		}
		return ts, true
	}
	return time.Time{}, false
}

func coerceTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return stripZone(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range zonedLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return stripZone(parsed), true
			}
		}
		for _, layout := range naiveLayouts {
			if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// stripZone converts an aware time to UTC and rebuilds it as a naive value
// with the UTC wall clock.
func stripZone(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC)
}

func resolveClock(rec RawRecord) (time.Duration, bool) {
	for _, key := range timeAliases {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		for _, layout := range clockLayouts {
			if parsed, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				return time.Duration(parsed.Hour())*time.Hour +
					time.Duration(parsed.Minute())*time.Minute +
					time.Duration(parsed.Second())*time.Second, true
			}
		}
	}
	return 0, false
}

var (
	hoursPattern   = regexp.MustCompile(`(\d+)\s*h`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*m`)
)

// durationHours parses session lengths like "1h 30m", "45 minutes" or
// "90 min" into fractional hours; zero means unparseable.
func durationHours(raw string) float64 {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}

	var hours, minutes float64
	if m := hoursPattern.FindStringSubmatch(s); m != nil {
		hours = parseFloatOrZero(m[1])
	}
	if m := minutesPattern.FindStringSubmatch(s); m != nil {
		minutes = parseFloatOrZero(m[1])
	}
	return hours + minutes/60
}

func parseFloatOrZero(s string) float64 {
	f, ok := coerceFloat(s)
	if !ok {
		return 0
	}
	return f
}
