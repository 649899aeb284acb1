// Package reader feeds log lines to a callback, either from a plain stream
// or from a growing file (follow mode). This is the only place in the
// system that blocks; everything downstream is synchronous in-memory work.
package reader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	defaults "github.com/xtxerr/accessmon/config"
)

// Stream reads r line by line until EOF, invoking fn for each line.
// It stops early when ctx is canceled.
func Stream(ctx context.Context, r io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), defaults.DefaultMaxLineBytes)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// Follow reads path to its current end, then keeps polling for appended
// lines until ctx is canceled. A partially written last line is held back
// until its newline arrives.
func Follow(ctx context.Context, path string, pollInterval time.Duration, fn func(string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64*1024)
	var partial strings.Builder

	for {
		chunk, err := br.ReadString('\n')
		if err == nil {
			partial.WriteString(chunk)
			line := strings.TrimRight(partial.String(), "\n")
			partial.Reset()
			fn(line)
			continue
		}

		partial.WriteString(chunk)

		if err != io.EOF {
			return fmt.Errorf("read %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
