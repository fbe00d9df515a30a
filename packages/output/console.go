package output

import (
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/tidwall/pretty"

	"github.com/abdul-hamid-achik/hitdesk/packages/executor"
	"github.com/abdul-hamid-achik/hitdesk/packages/history"
	"github.com/abdul-hamid-achik/hitdesk/packages/store"
)

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}

// FormatRequest prints the request line and, in verbose mode, its headers and body.
func (f *ConsoleFormatter) FormatRequest(spec executor.RequestSpec) {
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s\n", bold(strings.ToUpper(spec.Method)), spec.URL)
	if !f.verbose {
		return
	}
	for _, h := range spec.Headers {
		fmt.Fprintf(f.writer, "  %s\n", faint(h.Key+": "+h.Value))
	}
	if spec.Body != nil && *spec.Body != "" {
		fmt.Fprintf(f.writer, "  %s\n", faint(formatValue(*spec.Body, 200)))
	}
}

// FormatResult prints one status line for result, followed by the parsed
// body of a successful response.
func (f *ConsoleFormatter) FormatResult(result executor.Result) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	elapsed := cyan(fmt.Sprintf("(%s)", formatDuration(result.Duration)))

	switch result.Kind {
	case executor.KindSuccess:
		fmt.Fprintf(f.writer, "%s %d %s %s\n", green("✓"), result.Status, nethttp.StatusText(result.Status), elapsed)
		if result.Body != nil {
			f.FormatJSON(result.Body)
		}
	case executor.KindHTTPError:
		fmt.Fprintf(f.writer, "%s %d %s %s\n", red("✗"), result.Status, nethttp.StatusText(result.Status), elapsed)
	case executor.KindTransportError:
		fmt.Fprintf(f.writer, "%s %s %s\n", red("x"), red(result.Message), elapsed)
	case executor.KindCancelled:
		fmt.Fprintf(f.writer, "%s %s\n", yellow("-"), yellow("cancelled"))
	default:
		fmt.Fprintf(f.writer, "%s\n", result.String())
	}
}

// FormatJSON pretty-prints v, colorized unless color is disabled.
func (f *ConsoleFormatter) FormatJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(f.writer, "%s\n", formatValue(v, 200))
		return
	}
	out := pretty.Pretty(data)
	if !color.NoColor {
		out = pretty.Color(out, nil)
	}
	fmt.Fprintf(f.writer, "%s", out)
}

// FormatValue prints a selected value. Strings are printed raw.
func (f *ConsoleFormatter) FormatValue(v any) {
	switch val := v.(type) {
	case string:
		fmt.Fprintln(f.writer, val)
	case map[string]any, []any:
		f.FormatJSON(val)
	default:
		fmt.Fprintln(f.writer, formatValue(val, 1<<20))
	}
}

// FormatDocument lists collections and their requests.
func (f *ConsoleFormatter) FormatDocument(doc *store.Document) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if doc == nil || (doc.RequestCount() == 0 && len(doc.Collections) == 0) {
		fmt.Fprintf(f.writer, "No saved requests\n")
		return
	}

	for _, c := range doc.Collections {
		fmt.Fprintf(f.writer, "%s %s\n", bold(c.Name), cyan(fmt.Sprintf("[%s]", c.ID)))
		if len(c.APIs) == 0 {
			fmt.Fprintf(f.writer, "  (empty)\n")
		}
		for _, r := range c.APIs {
			f.formatSavedRequest("  ", r)
		}
	}

	if len(doc.APIs) > 0 {
		if len(doc.Collections) > 0 {
			fmt.Fprintf(f.writer, "\n")
		}
		fmt.Fprintf(f.writer, "%s\n", bold("Requests"))
		for _, r := range doc.APIs {
			f.formatSavedRequest("  ", r)
		}
	}

	fmt.Fprintf(f.writer, "\n%d collections, %d requests\n", len(doc.Collections), doc.RequestCount())
}

func (f *ConsoleFormatter) formatSavedRequest(indent string, r store.SavedRequest) {
	yellow := color.New(color.FgYellow).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(f.writer, "%s%-7s %s %s\n", indent, yellow(strings.ToUpper(r.Method)), r.Name, faint(r.ID))
	if f.verbose {
		fmt.Fprintf(f.writer, "%s        %s\n", indent, r.URL)
	}
}

// FormatHistory prints entries, newest first as given.
func (f *ConsoleFormatter) FormatHistory(entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintf(f.writer, "No executions recorded\n")
		return
	}

	faint := color.New(color.Faint).SprintFunc()
	for _, e := range entries {
		fmt.Fprintf(f.writer, "%s  %-6s %-40s %s %s\n",
			faint(e.StartedAt.Local().Format(time.DateTime)),
			e.Method,
			formatValue(e.URL, 40),
			f.kindLabel(e.Kind, e.Status, e.Message),
			faint(formatDuration(e.Duration)))
	}
}

func (f *ConsoleFormatter) kindLabel(kind executor.Kind, status int, message string) string {
	switch kind {
	case executor.KindSuccess:
		return color.New(color.FgGreen).Sprintf("%d", status)
	case executor.KindHTTPError:
		return color.New(color.FgRed).Sprintf("%d", status)
	case executor.KindTransportError:
		return color.New(color.FgRed).Sprint("error: " + formatValue(message, 60))
	case executor.KindCancelled:
		return color.New(color.FgYellow).Sprint("cancelled")
	}
	return string(kind)
}

// FormatStats prints a latency summary.
func (f *ConsoleFormatter) FormatStats(stats history.Stats) {
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "%s\n", bold("Executions"))
	fmt.Fprintf(f.writer, "  Total:        %d\n", stats.Count)
	if stats.Count == 0 {
		return
	}
	for _, kind := range []executor.Kind{executor.KindSuccess, executor.KindHTTPError, executor.KindTransportError, executor.KindCancelled} {
		if n := stats.ByKind[kind]; n > 0 {
			fmt.Fprintf(f.writer, "  %-14s%d\n", string(kind)+":", n)
		}
	}
	fmt.Fprintf(f.writer, "  Success rate: %.1f%%\n", stats.SuccessRate())

	fmt.Fprintf(f.writer, "\n%s\n", bold("Latency"))
	fmt.Fprintf(f.writer, "  Min:  %s\n", formatDuration(stats.Min))
	fmt.Fprintf(f.writer, "  Mean: %s\n", formatDuration(stats.Mean))
	fmt.Fprintf(f.writer, "  P50:  %s\n", formatDuration(stats.P50))
	fmt.Fprintf(f.writer, "  P95:  %s\n", formatDuration(stats.P95))
	fmt.Fprintf(f.writer, "  P99:  %s\n", formatDuration(stats.P99))
	fmt.Fprintf(f.writer, "  Max:  %s\n", formatDuration(stats.Max))
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}
