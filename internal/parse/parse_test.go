package parse

import (
	"errors"
	"testing"
)

const header = `"remotehost","rfc931","authuser","date","request","status","bytes"`

func newReadyParser(t *testing.T) *Parser {
	t.Helper()
	p := New()
	if _, ok, err := p.ParseLine(header); ok || err != nil {
		t.Fatalf("header: ok=%v err=%v", ok, err)
	}
	if !p.HeaderSeen() {
		t.Fatal("header not consumed")
	}
	return p
}

func TestParser_ValidLine(t *testing.T) {
	p := newReadyParser(t)

	rec, ok, err := p.ParseLine(`"10.0.0.4","-","apache",1549573860,"GET /api/user HTTP/1.0",200,1234`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !ok {
		t.Fatal("expected a record")
	}

	if rec.Timestamp != 1549573860 {
		t.Errorf("expected ts=1549573860, got %d", rec.Timestamp)
	}
	if rec.Section != "/api" {
		t.Errorf("expected section /api, got %q", rec.Section)
	}
	if rec.Method != "GET" {
		t.Errorf("expected method GET, got %q", rec.Method)
	}
	if rec.RemoteHost != "10.0.0.4" {
		t.Errorf("expected host 10.0.0.4, got %q", rec.RemoteHost)
	}
	if rec.Status != 200 || rec.Bytes != 1234 {
		t.Errorf("expected status=200 bytes=1234, got %d/%d", rec.Status, rec.Bytes)
	}
}

func TestParser_Sections(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/report/123", "/report"},
		{"/report", "/report"},
		{"/", "/"},
		{"/api/user/5/details", "/api"},
		{"/search?q=x", "/search"},
	}

	p := newReadyParser(t)
	for _, tt := range tests {
		line := `"10.0.0.1","-","apache",100,"GET ` + tt.path + ` HTTP/1.0",200,10`
		rec, ok, err := p.ParseLine(line)
		if err != nil || !ok {
			t.Errorf("%s: ok=%v err=%v", tt.path, ok, err)
			continue
		}
		if rec.Section != tt.want {
			t.Errorf("%s: expected section %q, got %q", tt.path, tt.want, rec.Section)
		}
	}
}

func TestParser_MalformedLines(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr error
	}{
		{
			name:    "wrong field count",
			line:    `"10.0.0.1","-","apache",100`,
			wantErr: ErrFieldCount,
		},
		{
			name:    "bad timestamp",
			line:    `"10.0.0.1","-","apache",soon,"GET /a HTTP/1.0",200,10`,
			wantErr: ErrBadTimestamp,
		},
		{
			name:    "request without protocol",
			line:    `"10.0.0.1","-","apache",100,"GET /a",200,10`,
			wantErr: ErrBadRequest,
		},
		{
			name:    "request path without slash",
			line:    `"10.0.0.1","-","apache",100,"GET a HTTP/1.0",200,10`,
			wantErr: ErrBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newReadyParser(t)
			_, ok, err := p.ParseLine(tt.line)
			if ok {
				t.Fatal("malformed line yielded a record")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}

			// The parser survives and keeps decoding.
			if _, ok, err := p.ParseLine(`"10.0.0.1","-","apache",100,"GET /a HTTP/1.0",200,10`); !ok || err != nil {
				t.Errorf("parser broken after bad line: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestParser_HeaderRequirements(t *testing.T) {
	p := New()
	if _, _, err := p.ParseLine(`"remotehost","rfc931","authuser","when","request"`); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected missing column error, got %v", err)
	}
	if p.HeaderSeen() {
		t.Error("bad header must not be accepted")
	}

	// A minimal header with just the required columns works, in any order.
	if _, ok, err := p.ParseLine(`"request","date"`); ok || err != nil {
		t.Fatalf("minimal header: ok=%v err=%v", ok, err)
	}
	rec, ok, err := p.ParseLine(`"POST /report/1 HTTP/1.1",42`)
	if err != nil || !ok {
		t.Fatalf("minimal record: ok=%v err=%v", ok, err)
	}
	if rec.Timestamp != 42 || rec.Section != "/report" || rec.Method != "POST" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestParser_BlankLines(t *testing.T) {
	p := New()
	if _, ok, err := p.ParseLine(""); ok || err != nil {
		t.Errorf("blank line: ok=%v err=%v", ok, err)
	}
	if p.HeaderSeen() {
		t.Error("blank line consumed as header")
	}
	if _, ok, err := p.ParseLine("  \r\n"); ok || err != nil {
		t.Errorf("whitespace line: ok=%v err=%v", ok, err)
	}
}
