// Package csvimport provides CSV parsing for the bulk-import pipelines:
// header-keyed rows, UTF-8 BOM handling, and the fuzzy header mapping used
// by the member import.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parsing errors
var (
	ErrEmptyFile     = errors.New("CSV file is empty")
	ErrMissingHeader = errors.New("CSV file missing header row")
	ErrNoDataRows    = errors.New("CSV must have a header and at least one data row")
)

// Row is a parsed CSV row keyed by mapped header name
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a mapped header, trimmed
func (r *Row) Get(key string) string {
	return r.Data[key]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// Parser reads header-keyed rows from CSV input
type Parser struct {
	reader  *csv.Reader
	headers []string
	line    int
}

// NewParser creates a parser from a reader, stripping a UTF-8 BOM when
// present
func NewParser(r io.Reader) (*Parser, error) {
	buf := bufio.NewReader(r)

	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	reader := csv.NewReader(buf)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	return &Parser{reader: reader}, nil
}

// ParseString creates a parser over an in-memory CSV payload
func ParseString(data string) (*Parser, error) {
	return NewParser(strings.NewReader(data))
}

// ParseHeader reads the header row. Header names are trimmed and stripped
// of stray quotes.
func (p *Parser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		p.headers[i] = cleanField(h)
	}
	p.line = 1
	return nil
}

// Headers returns the cleaned header names
func (p *Parser) Headers() []string {
	return p.headers
}

// HasHeader checks whether a header is present (exact match)
func (p *Parser) HasHeader(name string) bool {
	for _, h := range p.headers {
		if h == name {
			return true
		}
	}
	return false
}

// ReadAllRows reads every remaining data row, keyed by the given
// header-to-key mapping. Headers absent from the mapping are dropped;
// completely empty rows are skipped.
func (p *Parser) ReadAllRows(headerMap map[string]string) ([]*Row, error) {
	var rows []*Row
	for {
		record, err := p.reader.Read()
		if err == io.EOF {
			break
		}
		p.line++
		if err != nil {
			return rows, fmt.Errorf("error reading row %d: %w", p.line, err)
		}

		row := &Row{LineNumber: p.line, Data: make(map[string]string, len(headerMap))}
		for i, header := range p.headers {
			key, ok := headerMap[header]
			if !ok || i >= len(record) {
				continue
			}
			row.Data[key] = cleanField(record[i])
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// IdentityMap maps each header name to itself, for pipelines with exact
// header matching
func IdentityMap(headers []string) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h] = h
	}
	return m
}

func cleanField(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}
