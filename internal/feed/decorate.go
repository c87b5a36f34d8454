package feed

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ExpiredLabel replaces the countdown once the deadline has passed.
const ExpiredLabel = "EXPIRED"

var phoneMask = regexp.MustCompile(`(\d{4})\d{4}(\d{2})`)

// MaskPhone hides the middle four digits, so 9876543210 reads 9876XXXX10.
func MaskPhone(phone string) string {
	loc := phoneMask.FindStringSubmatchIndex(phone)
	if loc == nil {
		return strings.Repeat("X", len(phone))
	}
	return phone[:loc[0]] + phone[loc[2]:loc[3]] + "XXXX" + phone[loc[4]:loc[5]] + phone[loc[1]:]
}

// FormatRemaining renders a countdown as "1h 5m".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return ExpiredLabel
	}
	total := int(d / time.Minute)
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// RefID is the short card label, e.g. L-3F2A9.
func RefID(id string) string {
	return "L-" + strings.ToUpper(prefix(id, 5))
}

// RefNo is the long reference printed on the detail view, e.g. #9C41D7E2.
func RefNo(id string) string {
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "#" + strings.ToUpper(id)
}

// Region is the last comma-separated part of a free-text location.
func Region(location string) string {
	parts := strings.Split(location, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
