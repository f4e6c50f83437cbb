package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"tipfinity/integrations/exports"
)

func (c *cli) runExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var record, out, format string
	fs.StringVar(&record, "creator", "", "creator record address")
	fs.StringVar(&out, "out", "", "output file")
	fs.StringVar(&format, "format", "jsonl", "jsonl, csv or parquet")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	record, out = strings.TrimSpace(record), strings.TrimSpace(out)
	if record == "" || out == "" {
		fmt.Fprintln(c.stderr, "Error: --creator and --out are required")
		return 1
	}
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "jsonl", "csv", "parquet":
	default:
		fmt.Fprintf(c.stderr, "Error: unsupported format %q\n", format)
		return 1
	}

	ctx, cancel := c.context()
	defer cancel()
	view, tips, err := c.client.AllTips(ctx, record)
	if err != nil {
		return c.handleRPCError(err)
	}
	rows := exports.FromRPC(tips)

	var checksum string
	switch format {
	case "parquet":
		checksum, err = exports.WriteTipsParquet(out, rows)
	default:
		var data []byte
		if format == "csv" {
			data, checksum, err = exports.TipsCSV(rows)
		} else {
			data, checksum, err = exports.TipsJSONL(rows)
		}
		if err == nil {
			err = os.WriteFile(out, data, 0o644)
		}
	}
	if err != nil {
		fmt.Fprintf(c.stderr, "Export failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(c.stdout, "Exported %d tips for %s (%s) to %s\n", len(rows), view.Username, view.Address, out)
	fmt.Fprintf(c.stdout, "sha256: %s\n", checksum)
	return 0
}
