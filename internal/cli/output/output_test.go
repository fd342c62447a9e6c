package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"table", FormatTable, false},
		{"", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" json ", FormatJSON, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestPrintTable(t *testing.T) {
	data := NewTableData("MOUNT PATH", "URL", "MODE")
	data.AddRow("/mnt/webdav/alice", "https://cloud.example/dav/alice/", "manual")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, data))

	out := buf.String()
	assert.Contains(t, out, "MOUNT PATH")
	assert.Contains(t, out, "/mnt/webdav/alice")
	assert.Contains(t, out, "manual")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]string{"mount": "/mnt/a"}))
	assert.JSONEq(t, `{"mount": "/mnt/a"}`, buf.String())
}
