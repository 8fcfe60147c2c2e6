package gamelist

import (
	"encoding/json"
	"fmt"
	"time"

	"kakehashi/constants"
)

// ReleaseDate is an optional date field. Valid distinguishes "no release
// date" from a zero date: an entry without the field round-trips as a fully
// absent field, never as 00010101.
type ReleaseDate struct {
	Time  time.Time
	Valid bool
}

// releaseDateFormats are the accepted input formats. The first is the
// on-disk form; the rest cover what users paste into the date field.
var releaseDateFormats = []string{
	constants.ReleaseDateLayout,
	"20060102",
	"2006-01-02",
	"2006/01/02",
}

// NewReleaseDate returns a valid date truncated to midnight UTC.
func NewReleaseDate(t time.Time) ReleaseDate {
	y, m, d := t.Date()
	return ReleaseDate{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// ParseReleaseDate parses s with any accepted format. An empty string is the
// absent date, not an error.
func ParseReleaseDate(s string) (ReleaseDate, error) {
	if s == "" {
		return ReleaseDate{}, nil
	}
	for _, format := range releaseDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return NewReleaseDate(t), nil
		}
	}
	return ReleaseDate{}, fmt.Errorf("failed to parse release date %q with any supported format", s)
}

// String returns the on-disk form (YYYYMMDDT000000), or "" when absent.
func (d ReleaseDate) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(constants.ReleaseDateLayout)
}

// MarshalJSON serializes as the on-disk string so the UI sees "" for absent.
func (d ReleaseDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts any supported input format from the UI.
func (d *ReleaseDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseReleaseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
