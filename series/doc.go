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

// Package series defines record types for the time-series datasets served by
// Quandl, along with the constructors that parse them from single CSV lines.
//
// The types here are what a typical caller of the quandl package would write
// for itself. They are used by the command line tool and serve as examples of
// the construction contract expected by quandl.MapRecords.
package series
