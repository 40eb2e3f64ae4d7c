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
	"fmt"
	"strings"
)

// RemoteFetchError is returned when the transport fails to retrieve a
// payload: connection and DNS errors, non-2xx HTTP status, timeouts. Requests
// are never retried.
type RemoteFetchError struct {
	Target string // dataset code or search query
	Err    error  // the cause reported by the transport
	redact string // secret to remove from the cause's message
}

var _ error = &RemoteFetchError{}

func (e *RemoteFetchError) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.redact != "" {
		msg = strings.ReplaceAll(msg, e.redact, "REDACTED")
	}
	return fmt.Sprintf("failed to fetch '%s' from Quandl: %s", e.Target, msg)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

// RecordConstructionError is returned by MapRecords when a Constructor fails
// on a data line. No lines after the failed one are processed.
type RecordConstructionError struct {
	Line  string // content of the offending line
	Index int    // zero-based line index; the header is 0, "\r\n" is one separator
	Err   error  // the Constructor's error
}

var _ error = &RecordConstructionError{}

func (e *RecordConstructionError) Error() string {
	return fmt.Sprintf("failed to construct record from line %d '%s': %s",
		e.Index, e.Line, e.Err.Error())
}

func (e *RecordConstructionError) Unwrap() error { return e.Err }
