package ocr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MRZData holds the fields parsed from a TD3 machine readable zone.
type MRZData struct {
	DocType        string
	IssuingCountry string
	Surname        string
	GivenNames     string
	DocumentNumber string
	Nationality    string
	BirthDate      string
	Sex            string
	ExpiryDate     string
	PersonalNumber string

	// Confidence is the fraction of MRZ check digits that validated.
	Confidence float64
	RawLines   [2]string
}

var ErrNoMRZ = errors.New("no machine readable zone found")

var mrzLinePattern = regexp.MustCompile(`[A-Z0-9<]{44}`)

// ExtractMRZ scans raw OCR text for the two 44-character TD3 lines. OCR
// output often breaks lines oddly, so whitespace inside candidate lines is
// stripped before matching.
func ExtractMRZ(text string) (line1, line2 string, err error) {
	var candidates []string
	for _, raw := range strings.Split(text, "\n") {
		cleaned := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\t' || r == '\r' {
				return -1
			}
			return r
		}, strings.ToUpper(raw))
		if m := mrzLinePattern.FindString(cleaned); m != "" {
			candidates = append(candidates, m)
		}
	}
	for i := 0; i+1 < len(candidates); i++ {
		if strings.HasPrefix(candidates[i], "P") {
			return candidates[i], candidates[i+1], nil
		}
	}
	return "", "", ErrNoMRZ
}

// ParseTD3 parses two TD3 MRZ lines and validates the embedded check digits.
func ParseTD3(line1, line2 string) (*MRZData, error) {
	if len(line1) != 44 || len(line2) != 44 {
		return nil, fmt.Errorf("mrz lines must be 44 characters, got %d and %d", len(line1), len(line2))
	}
	if line1[0] != 'P' {
		return nil, fmt.Errorf("not a passport mrz: document code %q", line1[0:1])
	}

	data := &MRZData{
		DocType:        strings.TrimRight(line1[0:2], "<"),
		IssuingCountry: strings.TrimRight(line1[2:5], "<"),
		RawLines:       [2]string{line1, line2},
	}

	names := strings.SplitN(line1[5:44], "<<", 2)
	data.Surname = strings.ReplaceAll(strings.TrimRight(names[0], "<"), "<", " ")
	if len(names) == 2 {
		data.GivenNames = strings.ReplaceAll(strings.TrimRight(names[1], "<"), "<", " ")
	}

	data.DocumentNumber = strings.TrimRight(line2[0:9], "<")
	data.Nationality = strings.TrimRight(line2[10:13], "<")
	data.BirthDate = line2[13:19]
	data.Sex = line2[20:21]
	data.ExpiryDate = line2[21:27]
	data.PersonalNumber = strings.TrimRight(line2[28:42], "<")

	checks := []struct {
		field string
		digit byte
	}{
		{line2[0:9], line2[9]},
		{line2[13:19], line2[19]},
		{line2[21:27], line2[27]},
		{line2[0:10] + line2[13:20] + line2[21:43], line2[43]},
	}
	// The personal number check digit may be filler when the field is empty.
	if line2[42] != '<' || data.PersonalNumber != "" {
		checks = append(checks, struct {
			field string
			digit byte
		}{line2[28:42], line2[42]})
	}

	passed := 0
	for _, c := range checks {
		if checkDigit(c.field) == c.digit {
			passed++
		}
	}
	data.Confidence = float64(passed) / float64(len(checks))

	if data.Sex != "M" && data.Sex != "F" && data.Sex != "<" {
		return nil, fmt.Errorf("invalid sex character %q", data.Sex)
	}
	return data, nil
}

// checkDigit computes the ICAO 9303 check digit over a field using the
// repeating 7-3-1 weights.
func checkDigit(field string) byte {
	weights := []int{7, 3, 1}
	sum := 0
	for i := 0; i < len(field); i++ {
		c := field[i]
		var v int
		switch {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case c >= 'A' && c <= 'Z':
			v = int(c-'A') + 10
		case c == '<':
			v = 0
		default:
			v = 0
		}
		sum += v * weights[i%3]
	}
	return byte('0' + sum%10)
}

// ResolveBirthDate expands a YYMMDD birth date into an ISO date. Two-digit
// years more than ten years past the current year are taken as the previous
// century.
func ResolveBirthDate(yymmdd string, now time.Time) (string, error) {
	return resolveDate(yymmdd, now, true)
}

// ResolveExpiryDate expands a YYMMDD expiry date into an ISO date. Expiry
// dates always map into the current century.
func ResolveExpiryDate(yymmdd string, now time.Time) (string, error) {
	return resolveDate(yymmdd, now, false)
}

func resolveDate(yymmdd string, now time.Time, backdate bool) (string, error) {
	t, err := time.Parse("060102", yymmdd)
	if err != nil {
		return "", fmt.Errorf("invalid mrz date %q: %w", yymmdd, err)
	}
	yy := t.Year() % 100
	year := 2000 + yy
	if backdate {
		cutoff := now.Year()%100 + 10
		if yy > cutoff {
			year = 1900 + yy
		}
	}
	resolved := time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return resolved.Format("2006-01-02"), nil
}
