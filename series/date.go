// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package series

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/stockparfait/errors"
)

// dateLayouts are the date formats accepted from Quandl data and user input.
// Some datasets append a time of day, which is dropped.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006/01/02",
}

// Date is a calendar date without time zone. The zero value means "no date".
type Date struct {
	YearVal  uint16
	MonthVal uint8
	DayVal   uint8
}

var _ flag.Value = &Date{}

// NewDate is the constructor for Date.
func NewDate(year uint16, month, day uint8) Date {
	return Date{YearVal: year, MonthVal: month, DayVal: day}
}

// DateFromTime extracts the calendar date of t in t's own location.
func DateFromTime(t time.Time) Date {
	return NewDate(uint16(t.Year()), uint8(t.Month()), uint8(t.Day()))
}

// ParseDate parses a date in one of the formats used by Quandl, most commonly
// YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateFromTime(t), nil
		}
	}
	return Date{}, errors.Reason("invalid date: '%s'", s)
}

func (d Date) Year() uint16 { return d.YearVal }
func (d Date) Month() uint8 { return d.MonthVal }
func (d Date) Day() uint8   { return d.DayVal }

// String prints the date as YYYY-MM-DD, which is also the format of the
// trim_start and trim_end query parameters.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.YearVal, d.MonthVal, d.DayVal)
}

// Set implements flag.Value.
func (d *Date) Set(s string) error {
	date, err := ParseDate(s)
	if err != nil {
		return errors.Annotate(err, "failed to set date")
	}
	*d = date
	return nil
}

// ToTime converts Date to midnight UTC of that day.
func (d Date) ToTime() time.Time {
	return time.Date(int(d.YearVal), time.Month(d.MonthVal), int(d.DayVal),
		0, 0, 0, 0, time.UTC)
}

// IsZero checks whether the date has a zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before compares two dates for strict inequality, d < d2.
func (d Date) Before(d2 Date) bool {
	if d.YearVal != d2.YearVal {
		return d.YearVal < d2.YearVal
	}
	if d.MonthVal != d2.MonthVal {
		return d.MonthVal < d2.MonthVal
	}
	return d.DayVal < d2.DayVal
}

// After compares two dates for strict inequality, d > d2.
func (d Date) After(d2 Date) bool {
	return d2.Before(d)
}
