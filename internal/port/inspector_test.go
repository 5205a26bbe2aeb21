package port

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParsePIDLines covers the lsof -t output format: one PID per line,
// possibly with duplicates (one per open file descriptor on older lsof
// versions) and trailing newlines.
func TestParsePIDLines(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    []int
		wantErr bool
	}{
		{
			name:   "single pid",
			output: "1234\n",
			want:   []int{1234},
		},
		{
			name:   "multiple pids sorted",
			output: "5678\n1234\n",
			want:   []int{1234, 5678},
		},
		{
			name:   "duplicates collapsed",
			output: "1234\n1234\n1234\n",
			want:   []int{1234},
		},
		{
			name:   "empty output",
			output: "",
			want:   nil,
		},
		{
			name:   "blank lines and whitespace",
			output: "  1234 \n\n 42\n",
			want:   []int{42, 1234},
		},
		{
			name:    "diagnostic text",
			output:  "lsof: WARNING: can't stat() fuse file system\n1234\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pids, err := parsePIDLines(tt.output)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, pids)
		})
	}
}

// TestParseNetstatListeners covers the Windows netstat -ano table format,
// including the banner/header lines netstat mixes into its output and rows
// for states and ports we must ignore.
func TestParseNetstatListeners(t *testing.T) {
	output := "\r\n" +
		"Active Connections\r\n" +
		"\r\n" +
		"  Proto  Local Address          Foreign Address        State           PID\r\n" +
		"  TCP    0.0.0.0:4000           0.0.0.0:0              LISTENING       1234\r\n" +
		"  TCP    127.0.0.1:4000         0.0.0.0:0              LISTENING       1234\r\n" +
		"  TCP    0.0.0.0:40001          0.0.0.0:0              LISTENING       77\r\n" +
		"  TCP    10.0.0.5:4000          10.0.0.9:51000         ESTABLISHED     88\r\n" +
		"  TCP    0.0.0.0:4000           0.0.0.0:0              LISTENING       5678\r\n"

	pids := parseNetstatListeners(output, 4000)
	assert.Equal(t, []int{1234, 5678}, pids)

	// A port with no rows yields an empty result, not an error.
	assert.Empty(t, parseNetstatListeners(output, 9999))
}

// TestListListeners_InvalidPort verifies range validation happens before
// any external tool is invoked.
func TestListListeners_InvalidPort(t *testing.T) {
	inspector := NewInspector()

	_, err := inspector.ListListeners(context.Background(), 0)
	assert.Error(t, err)

	_, err = inspector.ListListeners(context.Background(), 70000)
	assert.Error(t, err)
}
