package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tokenboard/ordering"
)

type sortOptions struct {
	Key         string
	Dir         string
	Format      string
	InputFormat string
	NoColor     bool
}

var (
	sortFormats  = []string{"text", "json", "yaml"}
	inputFormats = []string{"auto", "json", "yaml"}
)

func newSortCommand() *cobra.Command {
	opts := &sortOptions{}

	cmd := &cobra.Command{
		Use:   "sort [file]",
		Short: "Order a JSON or YAML list of records by a key path",
		Long: `Order a list of records with the same rules the table uses.

Missing values come first, numeric-looking values ("$1.2M", "52,000")
compare as numbers, everything else compares case-insensitively. Ties keep
their input order. Reads stdin when no file (or "-") is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runSort(opts, path, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Key, "key", "k", "", "field name or dotted path to sort by (required)")
	f.StringVarP(&opts.Dir, "dir", "d", "desc", "direction: asc|desc|none")
	f.StringVarP(&opts.Format, "format", "f", "text", "output format (text|json|yaml)")
	f.StringVar(&opts.InputFormat, "input-format", "auto", "input format (auto|json|yaml)")
	f.BoolVar(&opts.NoColor, "no-color", false, "disable colored text output")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func runSort(opts *sortOptions, path string, stdin io.Reader, out io.Writer) error {
	if !contains(sortFormats, opts.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, sortFormats)
	}
	if !contains(inputFormats, opts.InputFormat) {
		return fmt.Errorf("invalid input format %q: must be one of %v", opts.InputFormat, inputFormats)
	}
	dir, ok := ordering.ParseDirection(opts.Dir)
	if !ok {
		return fmt.Errorf("invalid dir %q: must be asc, desc or none", opts.Dir)
	}

	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	records, err := decodeRecords(raw, inputFormatFor(opts.InputFormat, path))
	if err != nil {
		return err
	}

	key := ordering.ParseKey[any](opts.Key)
	sorted := ordering.SortBy(records, key, dir)

	switch opts.Format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(sorted)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(sorted); err != nil {
			return err
		}
		return enc.Close()
	default:
		color.NoColor = opts.NoColor || !isTerminal(out)
		return writeSortText(out, sorted, key, dir)
	}
}

func inputFormatFor(flag, path string) string {
	if flag != "auto" {
		return flag
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	}
	return "auto"
}

// decodeRecords accepts a top-level list, or an object holding the list
// under "data", "tokens" or "items".
func decodeRecords(raw []byte, format string) ([]any, error) {
	if format == "auto" {
		format = "yaml"
		if t := bytes.TrimSpace(raw); len(t) > 0 && (t[0] == '[' || t[0] == '{') {
			format = "json"
		}
	}

	var doc any
	switch format {
	case "json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}

	switch d := doc.(type) {
	case []any:
		return d, nil
	case map[string]any:
		for _, k := range []string{"data", "tokens", "items"} {
			if list, ok := d[k].([]any); ok {
				return list, nil
			}
		}
	}
	return nil, fmt.Errorf("input must be a list of records (or an object with data, tokens or items)")
}

func writeSortText(out io.Writer, records []any, key ordering.Key[any], dir ordering.Direction) error {
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	num := color.New(color.FgCyan).SprintFunc()
	text := color.New(color.FgYellow).SprintFunc()

	dirLabel := dir.String()
	if dirLabel == "" {
		dirLabel = "none"
	}
	if _, err := fmt.Fprintln(out, bold(fmt.Sprintf("sorted %d records by %s (%s)", len(records), key.Name(), dirLabel))); err != nil {
		return err
	}

	extract := key.Extractor()
	values := make([]ordering.Value, len(records))
	width := 0
	for i, rec := range records {
		values[i] = extract(rec)
		width = max(width, utf8.RuneCountInString(values[i].String()))
	}

	for i, rec := range records {
		v := values[i]
		cell := v.String() + strings.Repeat(" ", width-utf8.RuneCountInString(v.String()))
		switch {
		case v.IsMissing():
			cell = faint(cell)
		case isNumeric(v):
			cell = num(cell)
		default:
			cell = text(cell)
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if _, err := fmt.Fprintf(out, "%3d  %s  %s\n", i+1, cell, b); err != nil {
			return err
		}
	}
	return nil
}

func isNumeric(v ordering.Value) bool {
	_, ok := ordering.Normalize(v)
	return ok
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
