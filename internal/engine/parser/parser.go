package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hejijunhao/triage/internal/model"
)

// ErrInvalidEncoding is returned when uploaded content is not valid UTF-8.
var ErrInvalidEncoding = errors.New("parser: content is not valid UTF-8")

// linePattern matches lines of the form
//
//	2024-01-01 00:00:01.123 [ECU1] [NAV] [ERROR] message text...
//
// Bracketed segments are non-greedy; the message takes the rest of the line.
var linePattern = regexp.MustCompile(`^([\d\-:.\s]+) \[(.*?)\] \[(.*?)\] \[(.*?)\] (.*)$`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseLine turns a single log line into a record. Lines outside the grammar
// become unstructured records holding the trimmed text.
func ParseLine(line string) model.LogRecord {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return model.Unstructured(strings.TrimSpace(line))
	}
	return model.Structured(
		strings.TrimSpace(m[1]),
		strings.TrimSpace(m[2]),
		strings.TrimSpace(m[3]),
		strings.TrimSpace(m[4]),
		strings.TrimSpace(m[5]),
	)
}

// LoadStructured parses a sequence of lines in order. Blank lines are skipped;
// every other line yields exactly one record.
func LoadStructured(lines []string) []model.LogRecord {
	records := make([]model.LogRecord, 0, len(lines))
	for _, line := range lines {
		cleaned := strings.TrimSpace(line)
		if cleaned == "" {
			continue
		}
		records = append(records, ParseLine(cleaned))
	}
	return records
}

// SplitLines splits decoded text on LF, CRLF and lone CR line endings.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Decode validates uploaded bytes as UTF-8 and strips a leading byte order mark.
func Decode(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", ErrInvalidEncoding
	}
	return string(bytes.TrimPrefix(content, utf8BOM)), nil
}

// LoadFile reads a log file and returns its full text along with its records.
func LoadFile(path string) (string, []model.LogRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("parser: %w", err)
	}
	text, err := Decode(data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", err, path)
	}
	return text, LoadStructured(SplitLines(text)), nil
}
