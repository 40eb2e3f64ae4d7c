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

// Package quandl implements a client for the Quandl time-series API (v1).
//
// Official documentation of the legacy API lives at
// https://www.quandl.com/help/api .
//
// A dataset is identified by its code, e.g. GOOG/NYSE_IBM, and may be
// downloaded in one of several formats (see Format). The raw payload is
// returned as is by FetchRawDataset. For CSV payloads, FetchDataset and
// MapRecords convert each data line into a value of a caller-defined type
// using a caller-supplied Constructor; the first line is always treated as
// the header and skipped.
//
// The Client is stored in the context with UseClient. Without an auth token
// the service allows only a small number of requests per day.
//
//   ctx = quandl.UseClient(ctx, token)
//   params := quandl.Params{}.Collapse(quandl.CollapseWeekly).
//     TrimStart(series.NewDate(2010, 2, 1))
//   candles, err := quandl.FetchDataset(ctx, "GOOG/NYSE_IBM", params,
//     quandl.FormatCSV, series.ParseCandle)
//
// Neither the package functions nor the Client do any caching, retrying or
// paging. A Client is not safe for concurrent modification: SetAuthToken and
// SetTransport must not race with requests.
package quandl
