package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/triage/internal/model"
)

func TestParseLineRoundTrip(t *testing.T) {
	tests := []struct {
		ts, ecu, ctx, sev, msg string
		wantMsg                string
	}{
		{"2024-01-01 00:00:01", "ECU1", "NAV", "ERROR", "Bus load > 90% on CAN1", "Bus load > 90% on CAN1"},
		{"1970-01-01 00:00:01.123", "GW", "DIAG", "WARN", "DTC U0100 lost communication", "DTC U0100 lost communication"},
		{"12:00:00", "ECU 7", "CAN BUS", "INFO", "  padded message  ", "padded message"},
		{"2024-01-01 00:00:03 ", "ECU1", "NAV", "ERROR", "x", "x"},
	}
	for _, tt := range tests {
		line := tt.ts + " [" + tt.ecu + "] [" + tt.ctx + "] [" + tt.sev + "] " + tt.msg
		rec := ParseLine(line)
		require.True(t, rec.IsStructured(), "line %q", line)
		assert.Equal(t, strings.TrimSpace(tt.ts), rec.Timestamp)
		assert.Equal(t, tt.ecu, rec.ECU)
		assert.Equal(t, tt.ctx, rec.Context)
		assert.Equal(t, tt.sev, rec.Severity)
		assert.Equal(t, tt.wantMsg, rec.Message)
		assert.Empty(t, rec.Raw)
	}
}

func TestParseLineFallback(t *testing.T) {
	for _, line := range []string{
		"plain text no brackets",
		"  continuation line with spaces  ",
		"2024-01-01 00:00:01 [ECU1] [NAV] message without severity",
		"[ECU1] [NAV] [ERROR] missing timestamp",
		"2024-01-01T00:00:01 [ECU1] [NAV] [ERROR] letter in timestamp",
	} {
		rec := ParseLine(line)
		assert.False(t, rec.IsStructured(), "line %q", line)
		assert.Equal(t, model.Unstructured(strings.TrimSpace(line)), rec)
		assert.Empty(t, rec.Message)
	}
}

func TestParseLineNonGreedyBrackets(t *testing.T) {
	rec := ParseLine("2024-01-01 00:00:01 [ECU1] [NAV] [ERROR] value [0x1F] out of range")
	require.True(t, rec.IsStructured())
	assert.Equal(t, "ECU1", rec.ECU)
	assert.Equal(t, "NAV", rec.Context)
	assert.Equal(t, "ERROR", rec.Severity)
	assert.Equal(t, "value [0x1F] out of range", rec.Message)
}

func TestLoadStructuredSkipsBlankLinesAndKeepsOrder(t *testing.T) {
	lines := []string{
		"",
		"2024-01-01 00:00:01 [ECU1] [NAV] [ERROR] first",
		"   ",
		"noise line",
		"2024-01-01 00:00:02 [ECU2] [DIAG] [INFO] second",
	}
	records := LoadStructured(lines)
	require.Len(t, records, 3)
	assert.Equal(t, "first", records[0].Message)
	assert.Equal(t, model.Unstructured("noise line"), records[1])
	assert.Equal(t, "second", records[2].Message)
}

func TestLoadStructuredEmpty(t *testing.T) {
	assert.Empty(t, LoadStructured(nil))
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a", "b", "c"}, SplitLines("a\r\nb\nc\n"))
	assert.Equal(t, []string{"a", "", "b"}, SplitLines("a\r\rb"))
}

func TestDecode(t *testing.T) {
	text, err := Decode([]byte("\xEF\xBB\xBFhello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = Decode([]byte{0xff, 0xfe, 0x00})
	assert.True(t, errors.Is(err, ErrInvalidEncoding))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log1.txt")
	content := "2024-01-01 00:00:01 [ECU1] [NAV] [ERROR] Bus load > 90% on CAN1\n\nrandom\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	text, records, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, text)
	require.Len(t, records, 2)
	assert.True(t, records[0].IsStructured())
	assert.False(t, records[1].IsStructured())

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
