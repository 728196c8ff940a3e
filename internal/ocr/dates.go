package ocr

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts covers the formats dates appear in on travel documents and
// in stored verification records.
var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	"02.01.2006",
	"02/01/2006",
	"2006/01/02",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDate parses a free-form date in any of the supported layouts.
func ParseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
