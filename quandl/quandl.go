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
	"io"
	"net/url"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// URL is the default base URL of the server, including the trailing slash. It
// may be overwritten in tests before creating a new client.
var URL = "https://www.quandl.com/api/v1/"

// Format of the response requested from the server. Only FormatCSV payloads
// can be converted to records; the others are returned as raw strings.
type Format string

// Values of Format.
const (
	FormatCSV   = Format("csv")
	FormatPlain = Format("plain")
	FormatJSON  = Format("json")
	FormatXML   = Format("xml")
)

// ParseFormat converts a format token to Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatPlain, FormatJSON, FormatXML:
		return f, nil
	}
	return "", errors.Reason("unknown format '%s'; expected csv, plain, json or xml", s)
}

// Transport retrieves the body of a GET request as text. It must return an
// error for any unsuccessful request, including non-2xx HTTP status.
type Transport interface {
	FetchText(ctx context.Context, uri string) (string, error)
}

// httpTransport is the default Transport. It uses the http.Client injected
// into the context by fetch.UseClient, or the default client, and sends
// exactly one request per call.
type httpTransport struct{}

var _ Transport = httpTransport{}

func (httpTransport) FetchText(ctx context.Context, uri string) (string, error) {
	resp, err := fetch.GetRetry(ctx, uri, nil, fetch.NewParams().Retries(0))
	if resp != nil {
		defer resp.Body.Close()
		// The error for a bad status may carry a nil cause, so it's not used.
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", errors.Reason("HTTP status %s", resp.Status)
		}
	}
	if err != nil {
		return "", errors.Annotate(err, "failed to GET")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Annotate(err, "failed to read response body")
	}
	return string(body), nil
}

// Client for querying Quandl datasets. The response format is not a part of
// the client; it is passed explicitly to every request.
//
// Client is not synchronized. Mutating it with SetAuthToken, SetBaseURL or
// SetTransport concurrently with requests is the caller's responsibility.
type Client struct {
	baseURL   string // the base URL of the server, with the trailing slash
	authToken string // optional; empty means the limited anonymous quota
	transport Transport
}

// newClient creates a new client.
func newClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		transport: httpTransport{},
	}
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

// UseClient creates a new client based on the auth token and injects it into
// the context. The token may be empty.
func UseClient(ctx context.Context, authToken string) context.Context {
	return context.WithValue(ctx, clientContextKey, newClient(URL, authToken))
}

// SetAuthToken replaces the auth token for all subsequent requests. An empty
// token switches the client to the anonymous mode.
func (c *Client) SetAuthToken(token string) {
	c.authToken = token
}

// AuthToken returns the current auth token.
func (c *Client) AuthToken() string {
	return c.authToken
}

// SetBaseURL overrides the server URL. A missing trailing slash is added.
func (c *Client) SetBaseURL(baseURL string) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c.baseURL = baseURL
}

// SetTransport replaces the default HTTP transport.
func (c *Client) SetTransport(t Transport) {
	c.transport = t
}

// escapeDataset escapes each segment of a dataset code, preserving the '/'
// between the source and the dataset name.
func escapeDataset(dataset string) string {
	segments := strings.Split(dataset, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// DatasetURL composes the URL for downloading a dataset. Without a token,
// each parameter is followed by '&', including the last one; with a token,
// auth_token is the first parameter and every other parameter is preceded by
// '&'. The server accepts both. Keys, values and the token are
// percent-encoded, but the order of parameters is always preserved.
func DatasetURL(baseURL, dataset string, params Params, format Format, token string) string {
	var b strings.Builder
	b.WriteString(baseURL)
	b.WriteString("datasets/")
	b.WriteString(escapeDataset(dataset))
	b.WriteString(".")
	b.WriteString(string(format))
	b.WriteString("?")
	if token == "" {
		for _, p := range params {
			b.WriteString(p.encode())
			b.WriteString("&")
		}
		return b.String()
	}
	b.WriteString("auth_token=")
	b.WriteString(url.QueryEscape(token))
	for _, p := range params {
		b.WriteString("&")
		b.WriteString(p.encode())
	}
	return b.String()
}

// FormatQuery converts a free text search query into the form expected by the
// search API: spaces and ampersands become '+', and the remaining words are
// query-escaped.
func FormatQuery(query string) string {
	replaced := strings.NewReplacer(" ", "+", "&", "+").Replace(query)
	words := strings.Split(replaced, "+")
	for i, w := range words {
		words[i] = url.QueryEscape(w)
	}
	return strings.Join(words, "+")
}

// SearchURL composes the URL for a free text dataset search. The auth token,
// when present, and the parameters are each preceded by '&'.
func SearchURL(baseURL, query string, params Params, format Format, token string) string {
	var b strings.Builder
	b.WriteString(baseURL)
	b.WriteString("datasets.")
	b.WriteString(string(format))
	b.WriteString("?query=")
	b.WriteString(FormatQuery(query))
	if token != "" {
		b.WriteString("&auth_token=")
		b.WriteString(url.QueryEscape(token))
	}
	for _, p := range params {
		b.WriteString("&")
		b.WriteString(p.encode())
	}
	return b.String()
}

// DatasetURL composes the dataset URL using the client's base URL and token.
func (c *Client) DatasetURL(dataset string, params Params, format Format) string {
	return DatasetURL(c.baseURL, dataset, params, format, c.authToken)
}

// SearchURL composes the search URL using the client's base URL and token.
func (c *Client) SearchURL(query string, params Params, format Format) string {
	return SearchURL(c.baseURL, query, params, format, c.authToken)
}

// fetchText retrieves uri with the client's transport, wrapping any failure
// into RemoteFetchError for the target.
func (c *Client) fetchText(ctx context.Context, target, uri string) (string, error) {
	logging.Debugf(ctx, "Quandl: fetching '%s'", target)
	raw, err := c.transport.FetchText(ctx, uri)
	if err != nil {
		e := &RemoteFetchError{Target: target, Err: err}
		if c.authToken != "" {
			e.redact = url.QueryEscape(c.authToken)
		}
		return "", e
	}
	logging.Infof(ctx, "Quandl: fetched %d bytes for '%s'", len(raw), target)
	return raw, nil
}

// FetchRawDataset downloads the dataset in the given format using the Client
// from the context, and returns the payload as is. Transport failures are
// returned as *RemoteFetchError.
func FetchRawDataset(ctx context.Context, dataset string, params Params, format Format) (string, error) {
	client := GetClient(ctx)
	if client == nil {
		return "", errors.Reason("FetchRawDataset: no client in context")
	}
	return client.fetchText(ctx, dataset, client.DatasetURL(dataset, params, format))
}

// SearchDatasets runs a free text search for datasets using the Client from
// the context and returns the raw result in the given format. Transport
// failures are returned as *RemoteFetchError.
func SearchDatasets(ctx context.Context, query string, params Params, format Format) (string, error) {
	client := GetClient(ctx)
	if client == nil {
		return "", errors.Reason("SearchDatasets: no client in context")
	}
	return client.fetchText(ctx, query, client.SearchURL(query, params, format))
}
