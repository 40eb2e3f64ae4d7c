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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/quandl/quandl"
	"github.com/stockparfait/quandl/series"
	"github.com/stockparfait/quandl/table"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

var _ quandl.Constructor[series.Candle] = series.ParseCandle

// paramsFlag collects repeated -param key=value flags in the order given.
type paramsFlag struct {
	params quandl.Params
}

var _ flag.Value = &paramsFlag{}

func (p *paramsFlag) String() string {
	kv := make([]string, len(p.params))
	for i, x := range p.params {
		kv[i] = x.Key + "=" + x.Value
	}
	return strings.Join(kv, ",")
}

func (p *paramsFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return errors.Reason("expected key=value, got '%s'", s)
	}
	p.params = p.params.Add(k, v)
	return nil
}

type Flags struct {
	Config    string // default: ~/.stockparfait/quandl/config.toml
	Token     string // overrides the config
	Dataset   string // dataset code to download
	Search    string // free text query
	Format    string // default: from config, or csv
	Params    paramsFlag
	TrimStart series.Date
	TrimEnd   series.Date
	Collapse  string
	Candles   bool // print the dataset as a table of candles
	CSV       bool // with -candles: print CSV instead of text
	Summary   bool // print summary statistics of candles
	LogLevel  logging.Level
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("quandl", flag.ExitOnError)
	fs.StringVar(&flags.Config, "config",
		filepath.Join(os.Getenv("HOME"), ".stockparfait", "quandl", "config.toml"),
		"configuration file (optional)")
	fs.StringVar(&flags.Token, "token", "", "Quandl auth token, overrides config")
	fs.StringVar(&flags.Dataset, "dataset", "", "dataset code, e.g. GOOG/NYSE_IBM")
	fs.StringVar(&flags.Search, "search", "", "search datasets by free text")
	fs.StringVar(&flags.Format, "format", "", "response format: csv, plain, json, xml")
	fs.Var(&flags.Params, "param", "query parameter key=value; may be repeated")
	fs.Var(&flags.TrimStart, "trim-start", "first date, YYYY-MM-DD")
	fs.Var(&flags.TrimEnd, "trim-end", "last date, YYYY-MM-DD")
	fs.StringVar(&flags.Collapse, "collapse", "",
		"frequency: none, daily, weekly, monthly, quarterly, annual")
	fs.BoolVar(&flags.Candles, "candles", false, "print the dataset as price candles")
	fs.BoolVar(&flags.CSV, "csv", false, "print candles in CSV format; default: text")
	fs.BoolVar(&flags.Summary, "summary", false, "print summary of candles")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if (flags.Dataset == "") == (flags.Search == "") {
		return nil, errors.Reason("expected exactly one of -dataset or -search")
	}
	if flags.Search != "" && (flags.Candles || flags.Summary) {
		return nil, errors.Reason("-candles and -summary require -dataset")
	}
	if flags.Collapse != "" {
		if _, err := quandl.ParseCollapse(flags.Collapse); err != nil {
			return nil, errors.Annotate(err, "invalid -collapse")
		}
	}
	return &flags, nil
}

type Config struct {
	AuthToken string `toml:"auth_token"`
	Format    string `toml:"format" validate:"omitempty,oneof=csv plain json xml"`
	BaseURL   string `toml:"base_url" validate:"omitempty,url"`
}

var validate = validator.New()

// parseConfig reads the config file. A missing file is not an error: the
// client then runs anonymously with the default settings.
func parseConfig(ctx context.Context, filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Warningf(ctx, "config file '%s' does not exist, using defaults",
				filePath)
			return &Config{}, nil
		}
		return nil, errors.Annotate(err,
			"cannot check config file for existence: '%s'", filePath)
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open config file %s", filePath)
	}
	defer f.Close()

	d := toml.NewDecoder(f)
	d.DisallowUnknownFields()
	var c Config
	if err := d.Decode(&c); err != nil {
		return nil, errors.Annotate(err, "failed to read config file %s", filePath)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, errors.Annotate(err, "invalid config file %s", filePath)
	}
	return &c, nil
}

// queryParams combines -param flags with the typed ones, in this order.
func queryParams(flags *Flags) quandl.Params {
	params := flags.Params.params
	if !flags.TrimStart.IsZero() {
		params = params.TrimStart(flags.TrimStart)
	}
	if !flags.TrimEnd.IsZero() {
		params = params.TrimEnd(flags.TrimEnd)
	}
	if flags.Collapse != "" {
		params = params.Collapse(quandl.Collapse(flags.Collapse))
	}
	return params
}

type summaryRow [2]string

func (r summaryRow) CSV() []string { return r[:] }

func summaryTable(s series.Summary) *table.Table {
	f := func(x float64) string { return fmt.Sprintf("%.4g", x) }
	tbl := table.NewTable("Statistic", "Value")
	tbl.AddRow(
		summaryRow{"Candles", fmt.Sprintf("%d", s.Count)},
		summaryRow{"First date", s.First.String()},
		summaryRow{"Last date", s.Last.String()},
		summaryRow{"Mean close", f(s.MeanClose)},
		summaryRow{"Std. dev. close", f(s.StdDevClose)},
		summaryRow{"Min low", f(s.MinLow)},
		summaryRow{"Max high", f(s.MaxHigh)},
		summaryRow{"Total volume", f(s.TotalVolume)},
	)
	return tbl
}

func writeTable(tbl *table.Table, csv bool, w io.Writer) error {
	if csv {
		return tbl.WriteCSV(w, table.Params{})
	}
	return tbl.WriteText(w, table.Params{})
}

func printCandles(ctx context.Context, flags *Flags, params quandl.Params, format quandl.Format, w io.Writer) error {
	if format != quandl.FormatCSV {
		return errors.Reason("-candles and -summary require csv format, not %s", format)
	}
	candles, err := quandl.FetchDataset(ctx, flags.Dataset, params, format, series.ParseCandle)
	if err != nil {
		return errors.Annotate(err, "failed to fetch candles for %s", flags.Dataset)
	}
	if flags.Candles {
		tbl := table.NewTable(series.CandleHeader()...)
		table.AddRecords(tbl, candles)
		if err := writeTable(tbl, flags.CSV, w); err != nil {
			return errors.Annotate(err, "failed to print candles")
		}
	}
	if flags.Summary {
		if err := writeTable(summaryTable(series.Summarize(candles)), flags.CSV, w); err != nil {
			return errors.Annotate(err, "failed to print summary")
		}
	}
	return nil
}

func run(ctx context.Context, flags *Flags, w io.Writer) error {
	config, err := parseConfig(ctx, flags.Config)
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}
	token := config.AuthToken
	if flags.Token != "" {
		token = flags.Token
	}
	if token == "" {
		logging.Warningf(ctx, "no auth token: the number of requests is limited")
	}
	formatName := flags.Format
	if formatName == "" {
		formatName = config.Format
	}
	if formatName == "" {
		formatName = string(quandl.FormatCSV)
	}
	format, err := quandl.ParseFormat(formatName)
	if err != nil {
		return errors.Annotate(err, "invalid format")
	}

	ctx = quandl.UseClient(ctx, token)
	if config.BaseURL != "" {
		quandl.GetClient(ctx).SetBaseURL(config.BaseURL)
	}
	params := queryParams(flags)

	if flags.Search != "" {
		raw, err := quandl.SearchDatasets(ctx, flags.Search, params, format)
		if err != nil {
			return errors.Annotate(err, "search failed")
		}
		_, err = io.WriteString(w, raw)
		return err
	}
	if flags.Candles || flags.Summary {
		return printCandles(ctx, flags, params, format, w)
	}
	raw, err := quandl.FetchRawDataset(ctx, flags.Dataset, params, format)
	if err != nil {
		return errors.Annotate(err, "failed to fetch %s", flags.Dataset)
	}
	_, err = io.WriteString(w, raw)
	return err
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := run(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
