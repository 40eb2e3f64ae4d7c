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

// Package table prints sequences of records as aligned text or CSV.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/stockparfait/errors"
)

// Row is a record that can be printed as a table row.
type Row interface {
	CSV() []string // an encoding/csv compatible row representation
}

// Table of rows with an optional header. When present, the header must have
// as many columns as each row.
type Table struct {
	Header []string
	Rows   []Row
}

// NewTable creates a new Table with optional column headers.
func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

// AddRow adds one or more rows to the table.
func (t *Table) AddRow(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// AddRecords adds a slice of any Row type to the table, e.g. the result of
// quandl.FetchDataset.
func AddRecords[R Row](t *Table, records []R) {
	for _, r := range records {
		t.Rows = append(t.Rows, r)
	}
}

// Params for printing a Table.
type Params struct {
	Rows        int  // max. number of rows to print; 0 = unlimited
	NoHeader    bool // do not print the header
	MaxColWidth int  // WriteText only: 0 = unlimited, otherwise >= 4
}

// cells collects the header (unless disabled) and the rows to print, as
// limited by p.
func (t *Table) cells(p Params) (header []string, rows [][]string) {
	if !p.NoHeader && len(t.Header) > 0 {
		header = t.Header
	}
	n := len(t.Rows)
	if p.Rows > 0 && p.Rows < n {
		n = p.Rows
	}
	rows = make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = t.Rows[i].CSV()
	}
	return
}

// WriteCSV writes the table to w in CSV format.
func (t *Table) WriteCSV(w io.Writer, p Params) error {
	header, rows := t.cells(p)
	cw := csv.NewWriter(w)
	if header != nil {
		if err := cw.Write(header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		return errors.Annotate(err, "failed to write rows")
	}
	return nil
}

// columnWidths computes the printed width of each column, in runes.
func columnWidths(rows [][]string, maxWidth int) ([]int, error) {
	var widths []int
	for i, row := range rows {
		if len(row) == 0 {
			return nil, errors.Reason("row %d is empty", i)
		}
		if widths == nil {
			widths = make([]int, len(row))
		}
		if len(row) != len(widths) {
			return nil, errors.Reason("row %d has %d columns, expected %d",
				i, len(row), len(widths))
		}
		for j, s := range row {
			l := len([]rune(s))
			if maxWidth > 0 && l > maxWidth {
				l = maxWidth
			}
			if l > widths[j] {
				widths[j] = l
			}
		}
	}
	return widths, nil
}

// fit right-aligns s in a field of the given width, abbreviating it with ".."
// when it's too long.
func fit(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		s = string(r[:width-2]) + ".."
	}
	return fmt.Sprintf("%*s", width, s)
}

// WriteText writes the table as human readable text with right-aligned
// columns separated by " | ".
func (t *Table) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	header, rows := t.cells(p)
	all := rows
	if header != nil {
		all = append([][]string{header}, rows...)
	}
	widths, err := columnWidths(all, p.MaxColWidth)
	if err != nil {
		return errors.Annotate(err, "failed to compute column widths")
	}
	if header != nil {
		dashes := make([]string, len(widths))
		for i, n := range widths {
			dashes[i] = strings.Repeat("-", n)
		}
		all = append([][]string{header, dashes}, rows...)
	}
	for _, row := range all {
		line := make([]string, len(row))
		for i, s := range row {
			line[i] = fit(s, widths[i])
		}
		if _, err := fmt.Fprintln(w, strings.Join(line, " | ")); err != nil {
			return errors.Annotate(err, "failed to write a row")
		}
	}
	return nil
}
