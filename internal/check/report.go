package check

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aurwatch/aurwatch/internal/common/output"
)

// Reporter renders check results. Result data goes to Out; Out is
// expected to stay machine-parseable in list and JSON mode, so
// diagnostics belong on the logger, never here.
type Reporter struct {
	Out io.Writer
}

// jsonRecord is the NDJSON shape, one object per line.
type jsonRecord struct {
	Package         string `json:"package"`
	CurrentVersion  string `json:"current_version"`
	UpstreamVersion string `json:"upstream_version"`
	Status          string `json:"status"`
}

// Table prints a fixed-width human-readable table.
func (r *Reporter) Table(results []Result) {
	pkgWidth := len("PACKAGE")
	curWidth := len("CURRENT")
	upWidth := len("UPSTREAM")

	for _, res := range results {
		pkgWidth = maxInt(pkgWidth, len(res.Package))
		curWidth = maxInt(curWidth, len(displayVersion(res.CurrentVersion)))
		upWidth = maxInt(upWidth, len(displayVersion(res.UpstreamVersion)))
	}

	fmt.Fprintf(r.Out, "%-*s  %-*s  %-*s  %s\n",
		pkgWidth, "PACKAGE", curWidth, "CURRENT", upWidth, "UPSTREAM", "STATUS")

	for _, res := range results {
		status := res.Status.String()
		// Pad before coloring so ANSI escapes do not skew the column width
		fmt.Fprintf(r.Out, "%s  %-*s  %-*s  %s\n",
			output.FormatPackage(fmt.Sprintf("%-*s", pkgWidth, res.Package)),
			curWidth, displayVersion(res.CurrentVersion),
			upWidth, displayVersion(res.UpstreamVersion),
			output.StatusColor(status).Sprint(status))
	}
}

// List prints one line per package needing an update.
func (r *Reporter) List(results []Result) {
	for _, res := range results {
		if res.Status == StatusUpdate {
			fmt.Fprintln(r.Out, res.Package)
		}
	}
}

// JSON prints newline-delimited JSON objects, one per result.
func (r *Reporter) JSON(results []Result) error {
	enc := json.NewEncoder(r.Out)
	for _, res := range results {
		record := jsonRecord{
			Package:         res.Package,
			CurrentVersion:  res.CurrentVersion,
			UpstreamVersion: res.UpstreamVersion,
			Status:          res.Status.String(),
		}
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	return nil
}

// displayVersion substitutes a dash for an absent version in the table.
func displayVersion(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
