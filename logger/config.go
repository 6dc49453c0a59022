package logger

import (
	"encoding/json"
	"fmt"

	"github.com/hesphoros/lumberhouse/config"
	"github.com/hesphoros/lumberhouse/format"
	"github.com/hesphoros/lumberhouse/output"
)

// fileSinkOptions is the Type: "file" payload of config.OutputSpec.Config.
type fileSinkOptions struct {
	Path      string `json:"path"`
	AutoFlush bool   `json:"auto_flush"`
	JSON      bool   `json:"json"`
}

// consoleSinkOptions is the Type: "console" payload of
// config.OutputSpec.Config.
type consoleSinkOptions struct {
	SplitStreams bool `json:"split_streams"`
	Color        bool `json:"color"`
	JSON         bool `json:"json"`
}

// SinksFromConfig builds a concrete output.Sink for every entry in
// doc.Outputs, matching the type set config.Validate already enforces
// ("console", "file"). Callers typically AddSink each result onto a
// Builder before calling Build.
func SinksFromConfig(doc config.Document) ([]output.Sink, error) {
	sinks := make([]output.Sink, 0, len(doc.Outputs))
	for _, o := range doc.Outputs {
		switch o.Type {
		case "console":
			var opts consoleSinkOptions
			if len(o.Config) > 0 {
				if err := json.Unmarshal(o.Config, &opts); err != nil {
					return nil, fmt.Errorf("logger: output %q: %w", o.Name, err)
				}
			}
			sink := output.NewConsoleSink(output.ConsoleConfig{
				Name:         o.Name,
				Formatter:    consoleFormatterFor(opts.JSON, opts.Color, opts.SplitStreams),
				MinLevel:     o.MinLevel,
				SplitStreams: opts.SplitStreams,
				Color:        opts.Color,
			})
			sink.SetEnabled(o.Enabled)
			sinks = append(sinks, sink)

		case "file":
			var opts fileSinkOptions
			if len(o.Config) > 0 {
				if err := json.Unmarshal(o.Config, &opts); err != nil {
					return nil, fmt.Errorf("logger: output %q: %w", o.Name, err)
				}
			}
			if opts.Path == "" {
				return nil, fmt.Errorf("logger: output %q: file sink requires a \"path\"", o.Name)
			}
			sink := output.NewFileSink(output.FileConfig{
				Name:      o.Name,
				Path:      opts.Path,
				Formatter: fileFormatterFor(opts.JSON),
				MinLevel:  o.MinLevel,
				AutoFlush: opts.AutoFlush,
			})
			sink.SetEnabled(o.Enabled)
			sinks = append(sinks, sink)

		default:
			return nil, fmt.Errorf("logger: output %q has unknown type %q", o.Name, o.Type)
		}
	}
	return sinks, nil
}

// consoleFormatterFor mirrors the color decision output.NewConsoleSink
// makes for its own default formatter, so a "color": true option in a
// config document isn't silently dropped just because SinksFromConfig
// always supplies an explicit Formatter.
func consoleFormatterFor(useJSON, wantColor bool, splitStreams bool) format.Formatter {
	if useJSON {
		return format.NewJSONFormatter(format.Config{})
	}
	color := wantColor && output.StdoutIsColorTerminal(splitStreams)
	return format.NewTextFormatter(format.Config{Color: color})
}

// fileFormatterFor never colors: ANSI escapes in a log file on disk are
// noise for every downstream consumer (tail, grep, log shippers), not
// the convenience they are on an interactive terminal.
func fileFormatterFor(useJSON bool) format.Formatter {
	if useJSON {
		return format.NewJSONFormatter(format.Config{})
	}
	return format.NewTextFormatter(format.Config{})
}
