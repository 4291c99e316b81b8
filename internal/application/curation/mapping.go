package curation

import (
	"bufio"
	"io"
	"strings"

	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// MappingEntry is one row of the list handed to the external atom mapper.
type MappingEntry struct {
	InputString string `json:"input_string"`
	QueryID     string `json:"query_id"`
}

// MappedEntry is one row of the mapper's output, keyed back to the reaction
// it was generated from.
type MappedEntry struct {
	QueryID      string `json:"query_id"`
	OutputString string `json:"output_string"`
}

// MappingFormat names the on-disk encodings a mapped list may arrive in.
type MappingFormat string

const (
	// MappingFormatJSON is a JSON array of MappedEntry objects.
	MappingFormatJSON MappingFormat = "json"
	// MappingFormatSMI is line-oriented text, "SMILES<space>query_id" per line.
	MappingFormatSMI MappingFormat = "smi"
)

// IsValid reports whether f is a recognized mapping format.
func (f MappingFormat) IsValid() bool {
	switch f {
	case MappingFormatJSON, MappingFormatSMI:
		return true
	}
	return false
}

// ParseMappedSMI reads mapper output in .smi form. Blank lines and lines
// that do not split into exactly two fields are skipped.
func ParseMappedSMI(r io.Reader) ([]MappedEntry, error) {
	entries := make([]MappedEntry, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, " ")
		if len(parts) != 2 {
			continue
		}
		entries = append(entries, MappedEntry{QueryID: parts[1], OutputString: parts[0]})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMappingError, "cannot read mapped SMILES list")
	}
	return entries, nil
}
