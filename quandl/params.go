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

package quandl

import (
	"net/url"
	"strconv"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/quandl/series"

	"golang.org/x/exp/slices"
)

// Param is a single query parameter.
type Param struct {
	Key   string
	Value string
}

// encode the parameter as key=value with percent-encoding.
func (p Param) encode() string {
	return url.QueryEscape(p.Key) + "=" + url.QueryEscape(p.Value)
}

// Params is an ordered list of query parameters. The order is preserved in the
// request URL. Keys are not validated or deduplicated.
//
// The builder methods never modify the receiver, they return an extended
// copy, so a common set of parameters can be shared between requests:
//
//   base := Params{}.TrimStart(start).TrimEnd(end)
//   weekly := base.Collapse(CollapseWeekly)
//   monthly := base.Collapse(CollapseMonthly)
type Params []Param

// Add appends an arbitrary parameter.
func (p Params) Add(key, value string) Params {
	return append(slices.Clone(p), Param{Key: key, Value: value})
}

// Get returns the value of the first parameter with the key, if any.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Values converts the parameters to url.Values, losing the order.
func (p Params) Values() url.Values {
	v := make(url.Values)
	for _, kv := range p {
		v[kv.Key] = append(v[kv.Key], kv.Value)
	}
	return v
}

// Collapse is the enum for the sampling frequency of a dataset.
type Collapse string

// Values of Collapse.
const (
	CollapseNone      = Collapse("none")
	CollapseDaily     = Collapse("daily")
	CollapseWeekly    = Collapse("weekly")
	CollapseMonthly   = Collapse("monthly")
	CollapseQuarterly = Collapse("quarterly")
	CollapseAnnual    = Collapse("annual")
)

// ParseCollapse converts a string to Collapse.
func ParseCollapse(s string) (Collapse, error) {
	switch c := Collapse(s); c {
	case CollapseNone, CollapseDaily, CollapseWeekly, CollapseMonthly,
		CollapseQuarterly, CollapseAnnual:
		return c, nil
	}
	return "", errors.Reason("unknown collapse value '%s'", s)
}

// Transformation is the enum for the server side transformation of values.
type Transformation string

// Values of Transformation.
const (
	TransformNone      = Transformation("none")
	TransformDiff      = Transformation("diff")      // row-on-row change
	TransformRDiff     = Transformation("rdiff")     // row-on-row % change
	TransformCumul     = Transformation("cumul")     // cumulative sum
	TransformNormalize = Transformation("normalize") // start at 100
)

// SortOrder of the dataset rows by date.
type SortOrder string

// Values of SortOrder.
const (
	SortAsc  = SortOrder("asc")
	SortDesc = SortOrder("desc")
)

// TrimStart limits the dataset to dates on or after d.
func (p Params) TrimStart(d series.Date) Params {
	return p.Add("trim_start", d.String())
}

// TrimEnd limits the dataset to dates on or before d.
func (p Params) TrimEnd(d series.Date) Params {
	return p.Add("trim_end", d.String())
}

// Collapse sets the sampling frequency.
func (p Params) Collapse(c Collapse) Params {
	return p.Add("collapse", string(c))
}

// Transformation sets the value transformation.
func (p Params) Transformation(t Transformation) Params {
	return p.Add("transformation", string(t))
}

// Rows limits the number of returned rows.
func (p Params) Rows(n int) Params {
	return p.Add("rows", strconv.Itoa(n))
}

// SortOrder sets the order of the rows by date.
func (p Params) SortOrder(s SortOrder) Params {
	return p.Add("sort_order", string(s))
}

// Column requests a single column by its index; the date column is always
// included.
func (p Params) Column(n int) Params {
	return p.Add("column", strconv.Itoa(n))
}

// ExcludeHeaders controls whether the CSV header line is omitted. Note, that
// MapRecords always skips the first line.
func (p Params) ExcludeHeaders(exclude bool) Params {
	return p.Add("exclude_headers", strconv.FormatBool(exclude))
}

// Page selects a page of search results, starting from 1.
func (p Params) Page(n int) Params {
	return p.Add("page", strconv.Itoa(n))
}

// PerPage sets the number of search results per page.
func (p Params) PerPage(n int) Params {
	return p.Add("per_page", strconv.Itoa(n))
}

// SourceCode restricts the search to a single data source, e.g. GOOG.
func (p Params) SourceCode(code string) Params {
	return p.Add("source_code", code)
}
