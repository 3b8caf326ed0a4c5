package timex

import "time"

// CivilLayout is the offset-free wire format used when a timestamp has to be
// stored or compared as text (the SQLite backend binds timestamps this way).
const CivilLayout = "2006-01-02 15:04:05.999999999"

// Civil converts t to UTC and discards the offset, yielding the naive civil
// timestamp all range and ordering comparisons are made with. Two submissions
// of the same instant tagged with different offsets normalize to the same
// value:
//
//	2023-09-26 15:11:02 +05:30 -> 2023-09-26 09:41:02
//	2023-09-26 15:11:02 -07:00 -> 2023-09-26 22:11:02
func Civil(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC)
}

// CivilString renders t in CivilLayout after normalization.
func CivilString(t time.Time) string {
	return Civil(t).Format(CivilLayout)
}

// ParseCivil parses a CivilLayout timestamp back into a UTC time.Time.
func ParseCivil(s string) (time.Time, error) {
	return time.ParseInLocation(CivilLayout, s, time.UTC)
}
