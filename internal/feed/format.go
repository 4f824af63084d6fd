// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatTable writes the feed as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Papers) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-24s  %-10s  %s\n",
		"Num", "Title", "Authors", "Date", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for i, p := range out.Papers {
		date := ""
		if !p.Date.IsZero() {
			date = p.Date.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-24s  %-10s  %s\n",
			i+1, truncate(p.Title, 60), truncate(p.Authors, 24), date, p.Source)
	}

	fmt.Fprintf(w, "\n%d papers", len(out.Papers))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	if len(out.KeywordErrors) > 0 {
		fmt.Fprintf(w, ", %d keyword(s) failed", len(out.KeywordErrors))
	}
	fmt.Fprintln(w)
}

// FormatJSON writes the feed as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Papers)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
