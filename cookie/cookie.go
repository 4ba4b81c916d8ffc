// Package cookie handles the raw cookie string users paste from their browser.
//
// The same string is sent verbatim as a Cookie header by the fetcher and is
// converted into a Netscape cookie jar for the extractor.
package cookie

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidfetch/vidfetch/filesystem"
	"github.com/vidfetch/vidfetch/where"
)

// NetscapeHeader starts every Netscape cookie file.
const NetscapeHeader = "# Netscape HTTP Cookie File"

// Pair is a single name=value cookie.
type Pair struct {
	Name  string
	Value string
}

// Parse splits "a=1; b=2" into pairs. Entries without '=' are dropped.
func Parse(raw string) []Pair {
	var pairs []Pair
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}

		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		pairs = append(pairs, Pair{Name: name, Value: strings.TrimSpace(value)})
	}
	return pairs
}

// ParseNetscape reads the name and value columns of a Netscape cookie file.
// Comments and malformed lines are skipped.
func ParseNetscape(text string) []Pair {
	var pairs []Pair
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 || fields[5] == "" {
			continue
		}
		pairs = append(pairs, Pair{Name: fields[5], Value: fields[6]})
	}
	return pairs
}

// HeaderValue returns the Cookie header for raw, which may be a header value or a Netscape cookie file.
func HeaderValue(raw string) string {
	if IsNetscape(raw) {
		return Header(ParseNetscape(raw))
	}
	return strings.TrimSpace(raw)
}

// Header renders pairs back into a Cookie header value.
func Header(pairs []Pair) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.Name + "=" + p.Value
	}
	return strings.Join(parts, "; ")
}

// IsNetscape reports whether raw is already a Netscape cookie file.
func IsNetscape(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), "# Netscape")
}

// Netscape converts raw into Netscape cookie file text. Text that already is one is returned unchanged.
// Every pair is written for all domains and paths, never secure and never expiring.
func Netscape(raw string) string {
	if IsNetscape(raw) {
		return raw
	}

	var b strings.Builder
	b.WriteString(NetscapeHeader)
	b.WriteString("\n\n")
	for _, p := range Parse(raw) {
		fmt.Fprintf(&b, ".\tTRUE\t/\tFALSE\t0\t%s\t%s\n", p.Name, p.Value)
	}
	return b.String()
}

// WriteJar writes raw as a Netscape cookie file under where.Temp.
// The returned cleanup removes it and is safe to call more than once.
func WriteJar(raw string) (path string, cleanup func(), err error) {
	fs := filesystem.API()

	file, err := fs.TempFile(where.Temp(), "cookies-*.txt")
	if err != nil {
		return "", func() {}, fmt.Errorf("create cookie jar: %w", err)
	}
	path = filepath.Clean(file.Name())

	cleanup = func() {
		_ = fs.Remove(path)
	}

	if _, err := file.WriteString(Netscape(raw)); err != nil {
		_ = file.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("write cookie jar: %w", err)
	}

	if err := file.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("write cookie jar: %w", err)
	}

	_ = fs.Chmod(path, os.FileMode(0o600))
	return path, cleanup, nil
}
