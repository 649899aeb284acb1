// Package parse decodes CSV access-log lines into structured records.
//
// The input is w3c-ish CSV: the first line names the columns, every
// following line is one request. The parser only requires the "date" and
// "request" columns; "status" and "bytes" are decoded when present so
// downstream statistics can use them.
//
// Example:
//
//	"remotehost","rfc931","authuser","date","request","status","bytes"
//	"10.0.0.1","-","apache",1549573860,"GET /api/user HTTP/1.0",200,1234
package parse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Decode failures. All are recoverable: the offending line is skipped and
// the stream continues.
var (
	ErrNoHeader      = errors.New("no header line seen yet")
	ErrFieldCount    = errors.New("wrong field count")
	ErrMissingColumn = errors.New("missing required column")
	ErrBadTimestamp  = errors.New("bad timestamp")
	ErrBadRequest    = errors.New("bad request field")
)

// Record is one decoded access-log line.
type Record struct {
	// Timestamp is the request time in integer Unix seconds.
	Timestamp int64

	// Section is the first path segment of the request URL,
	// e.g. "/api" for "/api/user".
	Section string

	RemoteHost string
	AuthUser   string
	Method     string

	// Status is the HTTP status code, 0 if the column is absent.
	Status int

	// Bytes is the response size, 0 if the column is absent.
	Bytes int64
}

// Parser decodes one line at a time, using the column order announced by the
// header line. A Parser is not safe for concurrent use.
type Parser struct {
	columns map[string]int
	fields  int
}

// New returns a Parser that has not yet seen a header line.
func New() *Parser {
	return &Parser{}
}

// ParseLine decodes a single line. The first non-empty line is consumed as
// the column header and yields ok=false with no error, as do blank lines.
// Malformed data lines return an error; the parser stays usable.
func (p *Parser) ParseLine(line string) (Record, bool, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Record{}, false, nil
	}

	fields, err := splitCSV(line)
	if err != nil {
		return Record{}, false, err
	}

	if p.columns == nil {
		if err := p.readHeader(fields); err != nil {
			return Record{}, false, err
		}
		return Record{}, false, nil
	}

	if len(fields) != p.fields {
		return Record{}, false, fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(fields), p.fields)
	}

	rec := Record{}

	ts, err := strconv.ParseInt(p.field(fields, "date"), 10, 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: %q", ErrBadTimestamp, p.field(fields, "date"))
	}
	rec.Timestamp = ts

	method, section, err := splitRequest(p.field(fields, "request"))
	if err != nil {
		return Record{}, false, err
	}
	rec.Method = method
	rec.Section = section

	rec.RemoteHost = p.field(fields, "remotehost")
	rec.AuthUser = p.field(fields, "authuser")

	if s := p.field(fields, "status"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			rec.Status = v
		}
	}
	if s := p.field(fields, "bytes"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			rec.Bytes = v
		}
	}

	return rec, true, nil
}

// HeaderSeen reports whether the column header has been consumed.
func (p *Parser) HeaderSeen() bool {
	return p.columns != nil
}

func (p *Parser) readHeader(fields []string) error {
	columns := make(map[string]int, len(fields))
	for i, name := range fields {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, required := range []string{"date", "request"} {
		if _, ok := columns[required]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingColumn, required)
		}
	}

	p.columns = columns
	p.fields = len(fields)
	return nil
}

// field returns the named column's value, or "" if the column is absent.
func (p *Parser) field(fields []string, name string) string {
	i, ok := p.columns[name]
	if !ok {
		return ""
	}
	return fields[i]
}

// splitCSV decodes one CSV record, honoring quoted fields.
func splitCSV(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.TrimLeadingSpace = true
	fields, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFieldCount, err)
	}
	return fields, nil
}

// splitRequest decodes a request field of the form
// "METHOD /path/and/more PROTO" into the method and URL section.
func splitRequest(request string) (method, section string, err error) {
	parts := strings.Split(request, " ")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("%w: %q", ErrBadRequest, request)
	}

	path := parts[1]
	if !strings.HasPrefix(path, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrBadRequest, request)
	}

	// Section is everything up to the second slash: /api/user -> /api.
	if i := strings.Index(path[1:], "/"); i >= 0 {
		path = path[:i+1]
	}
	// Strip any query string on a bare section.
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	return parts[0], path, nil
}
