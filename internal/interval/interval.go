// Package interval turns relative-time phrases such as "2 часа 30 минут" or
// "1 hour 5 min" into a number of seconds.
package interval

import (
	"regexp"
	"strconv"
	"time"
)

// Each unit is searched independently; the first match of a unit wins and the
// contributions are summed. Magnitudes are limited to one or two digits.
var (
	hoursPattern   = regexp.MustCompile(`(?i)(?:^|\D)(\d{1,2})\s*(?:ч(?:ас(?:а|ов)?)?|h(?:ours?|rs?)?)(?:\P{L}|$)`)
	minutesPattern = regexp.MustCompile(`(?i)(?:^|\D)(\d{1,2})\s*(?:м(?:ин(?:ут(?:а|у|ы)?)?)?|m(?:in(?:s|utes?)?)?)(?:\P{L}|$)`)
	secondsPattern = regexp.MustCompile(`(?i)(?:^|\D)(\d{1,2})\s*(?:с(?:ек(?:унд(?:а|у|ы)?)?)?|s(?:ecs?|econds?)?)(?:\P{L}|$)`)
)

const (
	secondsPerHour   = 3600
	secondsPerMinute = 60
)

// Parse returns the total number of seconds described by text.
// Units that are not present contribute zero, so text without any recognised
// fragment yields 0.
func Parse(text string) int {
	return unit(hoursPattern, text)*secondsPerHour +
		unit(minutesPattern, text)*secondsPerMinute +
		unit(secondsPattern, text)
}

// Duration is Parse expressed as a time.Duration.
func Duration(text string) time.Duration {
	return time.Duration(Parse(text)) * time.Second
}

func unit(pattern *regexp.Regexp, text string) int {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}

	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}

	return n
}
