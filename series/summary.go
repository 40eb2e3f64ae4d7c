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
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary of a sequence of candles.
type Summary struct {
	Count       int
	First       Date // earliest date
	Last        Date // latest date
	MeanClose   float64
	StdDevClose float64 // sample standard deviation; 0 for less than 2 candles
	MinLow      float64
	MaxHigh     float64
	TotalVolume float64
}

// Summarize computes the Summary of candles, which may be in any date order.
func Summarize(candles []Candle) Summary {
	s := Summary{Count: len(candles)}
	if len(candles) == 0 {
		return s
	}
	closes := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	s.First = candles[0].Date
	s.Last = candles[0].Date
	for i, c := range candles {
		closes[i] = c.Close
		lows[i] = c.Low
		highs[i] = c.High
		volumes[i] = c.Volume
		if c.Date.Before(s.First) {
			s.First = c.Date
		}
		if c.Date.After(s.Last) {
			s.Last = c.Date
		}
	}
	if len(closes) > 1 {
		s.MeanClose, s.StdDevClose = stat.MeanStdDev(closes, nil)
	} else {
		s.MeanClose = closes[0]
	}
	s.MinLow = floats.Min(lows)
	s.MaxHigh = floats.Max(highs)
	s.TotalVolume = floats.Sum(volumes)
	return s
}
