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
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stockparfait/fetch"
	"github.com/stockparfait/quandl/series"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

type testRecord struct {
	Name  string
	Value int
}

func parseTestRecord(line string) (testRecord, error) {
	var r testRecord
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 2 {
		return r, fmt.Errorf("expected 2 columns, got %d", len(parts))
	}
	r.Name = parts[0]
	if _, err := fmt.Sscanf(parts[1], "%d", &r.Value); err != nil {
		return r, fmt.Errorf("bad value '%s': %w", parts[1], err)
	}
	return r, nil
}

type testTransport struct {
	uris []string
	body string
	err  error
}

var _ Transport = &testTransport{}

func (t *testTransport) FetchText(ctx context.Context, uri string) (string, error) {
	t.uris = append(t.uris, uri)
	if t.err != nil {
		return "", fmt.Errorf("GET %s: %w", uri, t.err)
	}
	return t.body, nil
}

func TestQuandl(t *testing.T) {
	t.Parallel()

	base := "https://test.server/api/v1/"

	Convey("DatasetURL", t, func() {
		params := Params{}.Add("collapse", "weekly").Add("trim_start", "2010-02-01")

		Convey("without a token", func() {
			u := DatasetURL(base, "GOOG/NYSE_IBM", params, FormatCSV, "")
			So(u, ShouldEqual, base+
				"datasets/GOOG/NYSE_IBM.csv?collapse=weekly&trim_start=2010-02-01&")
			So(u, ShouldNotContainSubstring, "auth_token")
		})

		Convey("with a token", func() {
			u := DatasetURL(base, "GOOG/NYSE_IBM", params, FormatJSON, "tok")
			So(u, ShouldEqual, base+
				"datasets/GOOG/NYSE_IBM.json?auth_token=tok&collapse=weekly&trim_start=2010-02-01")
			So(strings.Count(u, "auth_token="), ShouldEqual, 1)
		})

		Convey("without parameters", func() {
			So(DatasetURL(base, "A/B", nil, FormatXML, ""), ShouldEqual,
				base+"datasets/A/B.xml?")
			So(DatasetURL(base, "A/B", nil, FormatXML, "tok"), ShouldEqual,
				base+"datasets/A/B.xml?auth_token=tok")
		})

		Convey("preserves insertion order", func() {
			p := Params{}.Add("z", "1").Add("a", "2").Add("m", "3")
			So(DatasetURL(base, "A/B", p, FormatCSV, ""), ShouldEqual,
				base+"datasets/A/B.csv?z=1&a=2&m=3&")
			So(DatasetURL(base, "A/B", p, FormatCSV, "t"), ShouldEqual,
				base+"datasets/A/B.csv?auth_token=t&z=1&a=2&m=3")
		})

		Convey("percent-encodes unsafe input", func() {
			p := Params{}.Add("q", "a b&c").Add("k=", "v")
			So(DatasetURL(base, "WIKI/A B", p, FormatCSV, "x/y"), ShouldEqual,
				base+"datasets/WIKI/A%20B.csv?auth_token=x%2Fy&q=a+b%26c&k%3D=v")
		})

		Convey("uses the client's URL and token", func() {
			ctx := UseClient(context.Background(), "")
			c := GetClient(ctx)
			c.SetBaseURL("http://other/api")
			So(c.DatasetURL("A/B", nil, FormatCSV), ShouldEqual,
				"http://other/api/datasets/A/B.csv?")
			c.SetAuthToken("tok")
			So(c.AuthToken(), ShouldEqual, "tok")
			So(c.DatasetURL("A/B", nil, FormatCSV), ShouldEqual,
				"http://other/api/datasets/A/B.csv?auth_token=tok")
		})
	})

	Convey("SearchURL", t, func() {
		Convey("formats the query", func() {
			So(FormatQuery("foo bar&baz"), ShouldEqual, "foo+bar+baz")
			So(FormatQuery("crude  oil"), ShouldEqual, "crude++oil")
			So(FormatQuery("a=b"), ShouldEqual, "a%3Db")
			So(FormatQuery(""), ShouldEqual, "")
		})

		Convey("without a token", func() {
			So(SearchURL(base, "foo bar&baz", Params{}.Page(2), FormatXML, ""),
				ShouldEqual, base+"datasets.xml?query=foo+bar+baz&page=2")
		})

		Convey("with a token", func() {
			p := Params{}.PerPage(5).SourceCode("GOOG")
			So(SearchURL(base, "oil", p, FormatJSON, "tok"), ShouldEqual,
				base+"datasets.json?query=oil&auth_token=tok&per_page=5&source_code=GOOG")
		})
	})

	Convey("Params", t, func() {
		Convey("builds nondestructively", func() {
			common := Params{}.TrimStart(series.NewDate(2010, 2, 1))
			weekly := common.Collapse(CollapseWeekly)
			monthly := common.Collapse(CollapseMonthly)
			So(len(common), ShouldEqual, 1)
			So(weekly, ShouldResemble, Params{
				{"trim_start", "2010-02-01"}, {"collapse", "weekly"}})
			So(monthly, ShouldResemble, Params{
				{"trim_start", "2010-02-01"}, {"collapse", "monthly"}})
		})

		Convey("typed parameters", func() {
			p := Params{}.TrimEnd(series.NewDate(2010, 3, 28)).
				Transformation(TransformRDiff).Rows(10).SortOrder(SortAsc).
				Column(4).ExcludeHeaders(true)
			So(p, ShouldResemble, Params{
				{"trim_end", "2010-03-28"},
				{"transformation", "rdiff"},
				{"rows", "10"},
				{"sort_order", "asc"},
				{"column", "4"},
				{"exclude_headers", "true"},
			})
		})

		Convey("Get and Values", func() {
			p := Params{}.Add("a", "1").Add("b", "2").Add("a", "3")
			v, ok := p.Get("a")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "1")
			_, ok = p.Get("c")
			So(ok, ShouldBeFalse)
			So(p.Values(), ShouldResemble, url.Values{
				"a": []string{"1", "3"}, "b": []string{"2"}})
		})

		Convey("parses enums", func() {
			f, err := ParseFormat("CSV")
			So(err, ShouldBeNil)
			So(f, ShouldEqual, FormatCSV)
			_, err = ParseFormat("yaml")
			So(err, ShouldNotBeNil)

			c, err := ParseCollapse("quarterly")
			So(err, ShouldBeNil)
			So(c, ShouldEqual, CollapseQuarterly)
			_, err = ParseCollapse("hourly")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("MapRecords", t, func() {
		Convey("empty and header-only payloads", func() {
			records, err := MapRecords("", parseTestRecord)
			So(err, ShouldBeNil)
			So(records, ShouldResemble, []testRecord{})

			records, err = MapRecords("Name,Value\n", parseTestRecord)
			So(err, ShouldBeNil)
			So(records, ShouldResemble, []testRecord{})
		})

		Convey("skips the header and blank lines", func() {
			records, err := MapRecords("header\nA,1\n\nB,2\n", parseTestRecord)
			So(err, ShouldBeNil)
			So(records, ShouldResemble, []testRecord{{"A", 1}, {"B", 2}})

			records, err = MapRecords("not,a,valid,record\r\nA,1\r\n \t\r\nB,2\rC,3", parseTestRecord)
			So(err, ShouldBeNil)
			So(records, ShouldResemble, []testRecord{{"A", 1}, {"B", 2}, {"C", 3}})
		})

		Convey("passes lines unmodified", func() {
			var lines []string
			_, err := MapRecords("h\n A,1 \n", func(line string) (string, error) {
				lines = append(lines, line)
				return line, nil
			})
			So(err, ShouldBeNil)
			So(lines, ShouldResemble, []string{" A,1 "})
		})

		Convey("counts CRLF as a single separator", func() {
			var construct Constructor[testRecord] = parseTestRecord
			_, err := MapRecords("h\r\nA,1\r\nB,2\r\nC,x\r\n", construct)
			e, ok := err.(*RecordConstructionError)
			So(ok, ShouldBeTrue)
			So(e.Line, ShouldEqual, "C,x")
			So(e.Index, ShouldEqual, 3)
		})

		Convey("stops at the first failure", func() {
			var calls []string
			construct := func(line string) (testRecord, error) {
				calls = append(calls, line)
				return parseTestRecord(line)
			}
			records, err := MapRecords("h\nA,1\nB,x\nC,3\n", construct)
			So(records, ShouldBeNil)
			So(err, ShouldNotBeNil)
			e, ok := err.(*RecordConstructionError)
			So(ok, ShouldBeTrue)
			So(e.Line, ShouldEqual, "B,x")
			So(e.Index, ShouldEqual, 2)
			So(e.Unwrap(), ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "line 2 'B,x'")
			So(calls, ShouldResemble, []string{"A,1", "B,x"})
		})
	})

	Convey("API calls work correctly", t, func() {
		server := testutil.NewTestServer()
		defer server.Close()
		server.ResponseBody = []string{""}

		ctx := fetch.UseClient(context.Background(), server.Client())
		URL = server.URL() + "/api/v1/"

		Convey("anonymous FetchRawDataset", func() {
			ctx = UseClient(ctx, "")
			server.ResponseBody = []string{"Date,Close\n2010-03-26,562.69\n"}
			params := Params{}.Collapse(CollapseWeekly).TrimStart(series.NewDate(2010, 2, 1))
			raw, err := FetchRawDataset(ctx, "GOOG/NYSE_IBM", params, FormatCSV)
			So(err, ShouldBeNil)
			So(raw, ShouldEqual, "Date,Close\n2010-03-26,562.69\n")
			So(server.RequestPath, ShouldEqual, "/api/v1/datasets/GOOG/NYSE_IBM.csv")
			So(server.RequestQuery, ShouldResemble, url.Values{
				"collapse":   []string{"weekly"},
				"trim_start": []string{"2010-02-01"},
			})
		})

		Convey("authenticated FetchDataset", func() {
			ctx = UseClient(ctx, "testtoken")
			server.ResponseBody = []string{"Name,Value\nA,1\nB,2\n"}
			records, err := FetchDataset(ctx, "TEST/DATA", Params{}.Rows(2), FormatCSV, parseTestRecord)
			So(err, ShouldBeNil)
			So(records, ShouldResemble, []testRecord{{"A", 1}, {"B", 2}})
			So(server.RequestPath, ShouldEqual, "/api/v1/datasets/TEST/DATA.csv")
			So(server.RequestQuery, ShouldResemble, url.Values{
				"auth_token": []string{"testtoken"},
				"rows":       []string{"2"},
			})
		})

		Convey("FetchDataset reports bad lines", func() {
			ctx = UseClient(ctx, "")
			server.ResponseBody = []string{"Name,Value\nA,1\nB,two\n"}
			_, err := FetchDataset(ctx, "TEST/DATA", nil, FormatCSV, parseTestRecord)
			So(err, ShouldNotBeNil)
			e, ok := err.(*RecordConstructionError)
			So(ok, ShouldBeTrue)
			So(e.Index, ShouldEqual, 2)
		})

		Convey("SearchDatasets", func() {
			ctx = UseClient(ctx, "testtoken")
			server.ResponseBody = []string{`{"docs":[]}`}
			raw, err := SearchDatasets(ctx, "crude oil&gas", Params{}.PerPage(10), FormatJSON)
			So(err, ShouldBeNil)
			So(raw, ShouldEqual, `{"docs":[]}`)
			So(server.RequestPath, ShouldEqual, "/api/v1/datasets.json")
			So(server.RequestQuery, ShouldResemble, url.Values{
				"query":      []string{"crude oil gas"},
				"auth_token": []string{"testtoken"},
				"per_page":   []string{"10"},
			})
		})

		Convey("no client in context", func() {
			_, err := FetchRawDataset(context.Background(), "A/B", nil, FormatCSV)
			So(err, ShouldNotBeNil)
			_, ok := err.(*RemoteFetchError)
			So(ok, ShouldBeFalse)
			_, err = SearchDatasets(context.Background(), "oil", nil, FormatCSV)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Transport failures", t, func() {
		ctx := UseClient(context.Background(), "secret")
		client := GetClient(ctx)

		Convey("are wrapped into RemoteFetchError", func() {
			cause := fmt.Errorf("connection refused")
			tr := &testTransport{err: cause}
			client.SetTransport(tr)
			_, err := FetchDataset(ctx, "GOOG/NYSE_IBM", nil, FormatCSV, parseTestRecord)
			So(err, ShouldNotBeNil)
			e, ok := err.(*RemoteFetchError)
			So(ok, ShouldBeTrue)
			So(e.Target, ShouldEqual, "GOOG/NYSE_IBM")
			So(e.Unwrap().Error(), ShouldContainSubstring, "connection refused")
			So(err.Error(), ShouldContainSubstring, "connection refused")
			So(err.Error(), ShouldNotContainSubstring, "secret")
			So(err.Error(), ShouldContainSubstring, "auth_token=REDACTED")
			So(len(tr.uris), ShouldEqual, 1)
		})

		Convey("for search", func() {
			client.SetTransport(&testTransport{err: fmt.Errorf("timeout")})
			_, err := SearchDatasets(ctx, "oil", nil, FormatXML)
			e, ok := err.(*RemoteFetchError)
			So(ok, ShouldBeTrue)
			So(e.Target, ShouldEqual, "oil")
		})

		Convey("non-2xx status from the default transport", func() {
			ts := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					http.Error(w, "no such dataset", http.StatusNotFound)
				}))
			defer ts.Close()
			ctx = fetch.UseClient(ctx, ts.Client())
			client.SetBaseURL(ts.URL + "/api/v1")
			_, err := FetchRawDataset(ctx, "NO/SUCH", nil, FormatCSV)
			So(err, ShouldNotBeNil)
			_, ok := err.(*RemoteFetchError)
			So(ok, ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "404")
		})

		Convey("server errors are not retried", func() {
			var requests int32
			ts := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					atomic.AddInt32(&requests, 1)
					http.Error(w, "try later", http.StatusInternalServerError)
				}))
			defer ts.Close()
			ctx = fetch.UseClient(ctx, ts.Client())
			client.SetBaseURL(ts.URL + "/api/v1")
			_, err := FetchRawDataset(ctx, "GOOG/NYSE_IBM", nil, FormatCSV)
			So(err, ShouldNotBeNil)
			e, ok := err.(*RemoteFetchError)
			So(ok, ShouldBeTrue)
			So(e.Target, ShouldEqual, "GOOG/NYSE_IBM")
			So(err.Error(), ShouldContainSubstring, "500")
			So(err.Error(), ShouldNotContainSubstring, "secret")
			So(atomic.LoadInt32(&requests), ShouldEqual, 1)
		})

		Convey("nil cause", func() {
			e := &RemoteFetchError{Target: "A/B"}
			So(e.Error(), ShouldEqual, "failed to fetch 'A/B' from Quandl: unknown error")
		})
	})
}
