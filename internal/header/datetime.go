package header

import (
	"errors"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DateTimeLayout is the normalized form of RG DT: RFC 3339 at one-second
// precision.
const DateTimeLayout = time.RFC3339

// ErrUnparsableDateTime is wrapped in the MetadataFormatError for DT.
var ErrUnparsableDateTime = errors.New("no known date/time format matched")

// Layouts are tried in order. Layouts without a zone parse as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"20060102T150405Z0700",
	"20060102T150405",
	"20060102",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.RFC822Z,
	time.RFC822,
	time.ANSIC,
	time.UnixDate,
	"2 Jan 2006 15:04:05",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

// Natural-language results are resolved against both bases and accepted
// only when they agree, so relative values like "yesterday" or "noon" are
// rejected. Both bases sit at midnight UTC so unset clock fields read as zero.
var bases = [2]time.Time{
	time.Date(2001, time.February, 3, 0, 0, 0, 0, time.UTC),
	time.Date(2012, time.November, 28, 0, 0, 0, 0, time.UTC),
}

var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// NormalizeDateTime parses raw under a permissive grammar and renders it as
// RFC 3339 with sub-second precision dropped. A value without a zone is
// taken as UTC. Normalizing an already normalized value returns it unchanged.
func NormalizeDateTime(raw string) (string, error) {
	t, err := parseDateTime(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return t.Truncate(time.Second).Format(DateTimeLayout), nil
}

func parseDateTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrUnparsableDateTime
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if zoneByName(layout) {
			if !namesUTC(s) {
				return time.Time{}, ErrUnparsableDateTime
			}
			t = t.UTC()
		}
		return t, nil
	}

	var got [len(bases)]time.Time
	for i, base := range bases {
		t, err := parseNatural(s, base)
		if err != nil {
			return time.Time{}, err
		}
		got[i] = t
	}
	if !got[0].Equal(got[1]) {
		return time.Time{}, ErrUnparsableDateTime
	}
	return got[0], nil
}

// parseNatural accepts "15/01/2020 10am" style input. The match must cover
// the whole value; a partial hit inside arbitrary text is not a date.
func parseNatural(s string, base time.Time) (time.Time, error) {
	r, err := parser.Parse(s, base)
	if err != nil {
		return time.Time{}, err
	}
	if r == nil || !strings.EqualFold(strings.TrimSpace(r.Text), s) {
		return time.Time{}, ErrUnparsableDateTime
	}
	return r.Time.UTC(), nil
}

// zoneByName reports whether layout carries its zone only as an
// abbreviation. time.Parse gives unknown abbreviations a zero offset.
func zoneByName(layout string) bool {
	return strings.Contains(layout, "MST") &&
		!strings.Contains(layout, "-07") && !strings.Contains(layout, "Z07")
}

// namesUTC reports whether s names UTC or GMT as its zone.
func namesUTC(s string) bool {
	for _, f := range strings.Fields(s) {
		switch strings.ToUpper(f) {
		case "UTC", "GMT":
			return true
		}
	}
	return false
}
