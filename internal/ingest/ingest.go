// Package ingest turns imported text into candidate entry names.
//
// It sits outside the session engine: it cleans up what CSV files and OCR
// produce, and lets the caller choose which part of a batch with duplicates
// goes onto the wheel.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"spinwheel/internal/models"
)

// ErrNoCandidates is returned when an import yields nothing usable.
var ErrNoCandidates = errors.New("no valid names found")

// Choice picks which candidates of a batch are added when some are duplicates.
type Choice string

const (
	ChoiceAll        Choice = "all"
	ChoiceUnique     Choice = "unique"
	ChoiceDuplicates Choice = "duplicates"
)

// ParseChoice maps a form or JSON value to a Choice. Empty means ChoiceAll.
func ParseChoice(v string) (Choice, error) {
	switch c := Choice(strings.ToLower(strings.TrimSpace(v))); c {
	case "":
		return ChoiceAll, nil
	case ChoiceAll, ChoiceUnique, ChoiceDuplicates:
		return c, nil
	default:
		return "", fmt.Errorf("unknown choice %q", v)
	}
}

// ParseCSV reads candidate names from a CSV file. A file with several rows
// contributes the first column of each row; a single row contributes every field.
func ParseCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		if isBlank(record) {
			continue
		}
		records = append(records, record)
	}

	var names []string
	switch len(records) {
	case 0:
	case 1:
		for _, field := range records[0] {
			names = append(names, cleanField(field))
		}
	default:
		for _, record := range records {
			names = append(names, cleanField(record[0]))
		}
	}

	names = Filter(names)
	if len(names) == 0 {
		return nil, ErrNoCandidates
	}
	return names, nil
}

// ParseLines splits recognized text into one candidate per line.
func ParseLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return Filter(lines)
}

// Filter drops empty and over-long names and trims the rest.
func Filter(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || utf8.RuneCountInString(name) > models.MaxNameLength {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Choose returns the part of candidates selected by choice, given the
// duplicates the session reported for them.
func Choose(candidates, duplicates []string, choice Choice) []string {
	if choice == ChoiceAll {
		return append([]string(nil), candidates...)
	}
	dup := make(map[string]bool, len(duplicates))
	for _, d := range duplicates {
		dup[d] = true
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if dup[c] == (choice == ChoiceDuplicates) {
			out = append(out, c)
		}
	}
	return out
}

func cleanField(field string) string {
	return strings.TrimSpace(strings.NewReplacer(`"`, "", `'`, "").Replace(field))
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
