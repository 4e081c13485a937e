package ingestion

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/poiesic/fuzzystore/core"
)

const (
	fieldSeparator    = "\t"
	metadataSeparator = ";"
	pairSeparator     = "="
	commentPrefix     = "#"
)

// corpus is the parsed content of one import source.
type corpus struct {
	lines   int
	entries []*core.Entry
}

// parseCorpus parses every line of data. The first malformed line fails the
// whole corpus so that nothing is written from a broken file.
func parseCorpus(data []byte) (*corpus, error) {
	c := &corpus{}
	for raw := range bytes.Lines(data) {
		c.lines++
		entry, err := ParseLine(string(raw))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", c.lines, err)
		}
		if entry != nil {
			c.entries = append(c.entries, entry)
		}
	}
	return c, nil
}

// ParseLine parses one corpus line. It returns nil for blank and comment lines.
func ParseLine(line string) (*core.Entry, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentPrefix) {
		return nil, nil
	}

	fields := strings.Split(line, fieldSeparator)
	if len(fields) > 3 {
		return nil, fmt.Errorf("%w: %d fields, at most 3 expected", ErrInvalidLine, len(fields))
	}

	entry := &core.Entry{Primary: strings.TrimSpace(fields[0])}
	if len(fields) > 1 {
		entry.Secondary = strings.TrimSpace(fields[1])
	}
	if len(fields) > 2 {
		metadata, err := parseMetadata(fields[2])
		if err != nil {
			return nil, err
		}
		entry.Metadata = metadata
	}

	if err := core.ValidateEntry(entry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLine, err)
	}
	return entry, nil
}

func parseMetadata(field string) (map[string]string, error) {
	var metadata map[string]string
	for pair := range strings.SplitSeq(field, metadataSeparator) {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, pairSeparator)
		if !ok {
			return nil, fmt.Errorf("%w: metadata %q has no %q", ErrInvalidLine, pair, pairSeparator)
		}
		key = strings.TrimSpace(key)
		if err := core.ValidateMetadataPair(key, value); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLine, err)
		}
		if metadata == nil {
			metadata = make(map[string]string)
		}
		metadata[key] = value
	}
	return metadata, nil
}
