package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFileRejections(t *testing.T) {
	v := NewValidator(1024)
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	big := filepath.Join(dir, "big.pdf")
	require.NoError(t, os.WriteFile(big, make([]byte, 2048), 0o644))

	notPDF := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(notPDF, []byte("plain text"), 0o644))

	garbage := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("not a pdf at all"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"empty path", "", "path cannot be empty"},
		{"missing file", filepath.Join(dir, "absent.pdf"), "does not exist"},
		{"directory", dir, "directory"},
		{"wrong extension", notPDF, "not a PDF"},
		{"empty file", empty, "empty"},
		{"oversized file", big, "too large"},
		{"garbage content", garbage, "invalid PDF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateFile(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsValidPDF(t *testing.T) {
	v := NewValidator(1024)
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("not a pdf at all"), 0o644))

	assert.False(t, v.IsValidPDF(filepath.Join(dir, "absent.pdf")))
	assert.False(t, v.IsValidPDF(garbage))
	assert.False(t, v.IsValidPDF(""))
}
