// Package ingest normalizes and de-duplicates merchant domain lists before
// they reach the batch orchestrator. It accepts single domains, newline
// lists, and CSV files, and guarantees every emitted domain is lowercase,
// scheme-free, www-free, and IDNA-encoded.
package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/idna"
)

// Normalize canonicalizes one domain string: trim whitespace, lowercase,
// strip http(s) scheme, a leading "www.", any path or trailing slashes,
// and IDNA-encode unicode labels. Returns "" for rows that normalize to
// nothing; callers drop those.
func Normalize(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	// Strip a port and any userinfo, both invalid in a bare domain list.
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, ".")
	if s == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(s); err == nil {
		s = ascii
	}
	return s
}

// Dedupe normalizes every entry, drops empties, and removes duplicates
// while preserving first-seen order.
func Dedupe(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, r := range raw {
		d := Normalize(r)
		if d == "" {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// ReadList reads domains from r, one per line, ignoring blank lines and
// lines starting with "#".
func ReadList(r io.Reader) ([]string, error) {
	var raw []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raw = append(raw, line)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading domain list: %w", err)
	}
	return Dedupe(raw), nil
}

// ReadCSV reads domains from CSV content. The domain is taken from the
// column named "domain" (or "url"/"website") when a header row is present,
// otherwise from the first column. Rows whose domain normalizes to empty
// are dropped.
func ReadCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := 0
	start := 0
	for i, name := range records[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "domain", "url", "website":
			col = i
			start = 1
		}
	}

	var raw []string
	for _, rec := range records[start:] {
		if col < len(rec) {
			raw = append(raw, rec[col])
		}
	}
	return Dedupe(raw), nil
}

// ReadFile loads domains from path, choosing the CSV parser for .csv files
// and the line parser otherwise.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path from CLI flag
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return ReadCSV(f)
	}
	return ReadList(f)
}
