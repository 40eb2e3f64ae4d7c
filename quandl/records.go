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
	"context"
	"strings"

	"github.com/stockparfait/logging"
)

// Constructor creates a record of type T from a single line of a CSV payload.
// The line is passed as is, without the line separator but possibly with
// other surrounding white space.
type Constructor[T any] func(line string) (T, error)

// splitLines splits the payload on '\r' and '\n'. A "\r\n" pair counts as a
// single separator, so line indices match what a text editor shows.
func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	return strings.Split(raw, "\n")
}

// MapRecords converts a multi-line CSV payload into records. The first line is
// the header and is skipped without inspection; so are blank lines. Every
// other line is converted by construct, in order. The first failure stops the
// conversion and is returned as *RecordConstructionError.
//
// A payload with at most one line results in an empty, non-nil slice.
func MapRecords[T any](raw string, construct Constructor[T]) ([]T, error) {
	lines := splitLines(raw)
	records := []T{}
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		r, err := construct(line)
		if err != nil {
			return nil, &RecordConstructionError{Line: line, Index: i, Err: err}
		}
		records = append(records, r)
	}
	return records, nil
}

// FetchDataset downloads the dataset and converts it into records using
// construct. Use FormatCSV unless the server is known to produce a compatible
// line-oriented payload in another format.
//
// The returned error is *RemoteFetchError when the download fails, and
// *RecordConstructionError when a line cannot be converted.
func FetchDataset[T any](ctx context.Context, dataset string, params Params, format Format, construct Constructor[T]) ([]T, error) {
	raw, err := FetchRawDataset(ctx, dataset, params, format)
	if err != nil {
		return nil, err
	}
	records, err := MapRecords(raw, construct)
	if err != nil {
		return nil, err
	}
	if format != FormatCSV {
		logging.Warningf(ctx, "Quandl: mapped %d records from a %s payload",
			len(records), format)
	}
	return records, nil
}
