package conversation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Slot grammar: `<destination> [at <time>[ to <time>]]` where <time> is
// `HH:MM` or `YYYY-MM-DD HH:MM`. A line without an `at` clause is a plain
// destination.
var (
	searchPattern = regexp.MustCompile(
		`^(?P<destination>.+) at (?P<start>(?:\d{4}-\d{2}-\d{2} )?\d{2}:\d{2})(?: to (?P<end>(?:\d{4}-\d{2}-\d{2} )?\d{2}:\d{2}))?$`,
	)
	timePattern = regexp.MustCompile(
		`^(?P<start>(?:\d{4}-\d{2}-\d{2} )?\d{2}:\d{2})(?: to (?P<end>(?:\d{4}-\d{2}-\d{2} )?\d{2}:\d{2}))?$`,
	)
)

// ParseError reports free text that does not match the slot grammar. It is
// distinct from deserialization errors: it means bad input, not corrupted
// state, and callers re-prompt instead of resetting.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
}

// SearchQuery is the structured result of parsing a search line.
type SearchQuery struct {
	Destination string
	Start       time.Time
	End         time.Time
}

// ParseSearch extracts destination and parking window from one line of free
// text. Missing start defaults to now+30m; missing end to start+1h.
func ParseSearch(text string, now time.Time, loc *time.Location) (SearchQuery, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return SearchQuery{}, &ParseError{Input: text, Reason: "empty input"}
	}

	match := searchPattern.FindStringSubmatch(trimmed)
	if match == nil {
		// No time clause: the whole line is the destination.
		start := now.Add(30 * time.Minute)
		return SearchQuery{
			Destination: trimmed,
			Start:       start,
			End:         start.Add(time.Hour),
		}, nil
	}

	destination := strings.TrimSpace(match[searchPattern.SubexpIndex("destination")])
	if destination == "" {
		return SearchQuery{}, &ParseError{Input: text, Reason: "missing destination"}
	}

	start, end, err := parseWindow(
		match[searchPattern.SubexpIndex("start")],
		match[searchPattern.SubexpIndex("end")],
		text, now, loc,
	)
	if err != nil {
		return SearchQuery{}, err
	}

	return SearchQuery{Destination: destination, Start: start, End: end}, nil
}

// ParseTimeRange extracts a parking window from `<time>[ to <time>]` input.
func ParseTimeRange(text string, now time.Time, loc *time.Location) (start, end time.Time, err error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, time.Time{}, &ParseError{Input: text, Reason: "empty input"}
	}

	match := timePattern.FindStringSubmatch(trimmed)
	if match == nil {
		return time.Time{}, time.Time{}, &ParseError{Input: text, Reason: "not a HH:MM or YYYY-MM-DD HH:MM time"}
	}

	return parseWindow(
		match[timePattern.SubexpIndex("start")],
		match[timePattern.SubexpIndex("end")],
		text, now, loc,
	)
}

func parseWindow(rawStart, rawEnd, input string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	start, err := parseTimestamp(rawStart, now, loc)
	if err != nil {
		return time.Time{}, time.Time{}, &ParseError{Input: input, Reason: err.Error()}
	}

	var end time.Time
	if rawEnd == "" {
		end = start.Add(time.Hour)
	} else {
		end, err = parseTimestamp(rawEnd, now, loc)
		if err != nil {
			return time.Time{}, time.Time{}, &ParseError{Input: input, Reason: err.Error()}
		}
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, &ParseError{Input: input, Reason: "end time precedes start time"}
	}

	return start, end, nil
}

// parseTimestamp accepts `HH:MM` (today's date) or `YYYY-MM-DD HH:MM`.
func parseTimestamp(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04", raw, loc); err == nil {
		return t, nil
	}

	t, err := time.ParseInLocation("15:04", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", raw)
	}

	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
