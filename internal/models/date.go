package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	DateFormat  = "2006-01-02"
	MonthFormat = "2006-01"
)

// Date is a calendar day with no time of day or zone.
type Date struct {
	y int
	m time.Month
	d int
}

func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{t.Year(), t.Month(), t.Day()}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Date())
}

func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(DateFormat, raw)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want %s: %w", raw, DateFormat, err)
	}
	return DateOf(t), nil
}

func MustDate(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) Time() time.Time    { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }
func (d Date) Year() int          { return d.y }
func (d Date) Month() Month       { return Month{y: d.y, m: d.m} }
func (d Date) Day() int           { return d.d }
func (d Date) IsZero() bool       { return d.y == 0 && d.m == 0 && d.d == 0 }
func (d Date) Before(x Date) bool { return d.Time().Before(x.Time()) }
func (d Date) After(x Date) bool  { return d.Time().After(x.Time()) }
func (d Date) Equal(x Date) bool  { return d == x }
func (d Date) AddDays(n int) Date { return NewDate(d.y, d.m, d.d+n) }
func (d Date) String() string     { return d.Time().Format(DateFormat) }
func (d Date) Compare(x Date) int { return d.Time().Compare(x.Time()) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan accepts what lib/pq returns for DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v.UTC())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(raw string) error {
	if len(raw) > len(DateFormat) {
		raw = raw[:len(DateFormat)]
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Month is a calendar month.
type Month struct {
	y int
	m time.Month
}

func NewMonth(year int, month time.Month) Month {
	return NewDate(year, month, 1).Month()
}

func ParseMonth(raw string) (Month, error) {
	t, err := time.Parse(MonthFormat, raw)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, want %s: %w", raw, MonthFormat, err)
	}
	return NewMonth(t.Year(), t.Month()), nil
}

func (m Month) Year() int            { return m.y }
func (m Month) Number() time.Month   { return m.m }
func (m Month) First() Date          { return NewDate(m.y, m.m, 1) }
func (m Month) Last() Date           { return NewDate(m.y, m.m+1, 0) }
func (m Month) Next() Month          { return NewMonth(m.y, m.m+1) }
func (m Month) Prev() Month          { return NewMonth(m.y, m.m-1) }
func (m Month) Before(x Month) bool  { return m.First().Before(x.First()) }
func (m Month) After(x Month) bool   { return m.First().After(x.First()) }
func (m Month) Contains(d Date) bool { return d.Month() == m }
func (m Month) String() string       { return m.First().Time().Format(MonthFormat) }

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Month) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseMonth(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
