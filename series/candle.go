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
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
)

// Candle is a single daily price bar, as served by stock price datasets in
// CSV format: Date,Open,High,Low,Close,Volume. Additional columns, when
// present, are ignored.
type Candle struct {
	Date   Date
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CandleHeader is the header row for the table representation of Candle.
func CandleHeader() []string {
	return []string{"Date", "Open", "High", "Low", "Close", "Volume"}
}

// ParseCandle constructs a Candle from one CSV line. It has the signature of
// quandl.Constructor[Candle].
func ParseCandle(line string) (Candle, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < 6 {
		return Candle{}, errors.Reason("expected at least 6 columns, got %d",
			len(fields))
	}
	var c Candle
	var err error
	if c.Date, err = ParseDate(fields[0]); err != nil {
		return Candle{}, errors.Annotate(err, "failed to parse Date")
	}
	values := []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
	names := CandleHeader()[1:]
	for i, v := range values {
		s := strings.TrimSpace(fields[i+1])
		if s == "" { // missing values are legal in Quandl data
			continue
		}
		if *v, err = strconv.ParseFloat(s, 64); err != nil {
			return Candle{}, errors.Annotate(err, "failed to parse %s", names[i])
		}
	}
	return c, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CSV implements table.Row.
func (c Candle) CSV() []string {
	return []string{
		c.Date.String(),
		formatFloat(c.Open),
		formatFloat(c.High),
		formatFloat(c.Low),
		formatFloat(c.Close),
		formatFloat(c.Volume),
	}
}
