package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLibraryID(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantID      string
		wantVersion string
		wantErr     bool
	}{
		{
			name:   "org and project",
			input:  "/vercel/next.js",
			wantID: "/vercel/next.js",
		},
		{
			name:        "with version suffix",
			input:       "/gin-gonic/gin/v1.10.0",
			wantID:      "/gin-gonic/gin",
			wantVersion: "v1.10.0",
		},
		{
			name:   "surrounding whitespace trimmed",
			input:  "  /facebook/react  ",
			wantID: "/facebook/react",
		},
		{
			name:    "missing leading slash",
			input:   "vercel/next.js",
			wantErr: true,
		},
		{
			name:    "too few segments",
			input:   "/react",
			wantErr: true,
		},
		{
			name:    "too many segments",
			input:   "/a/b/c/d",
			wantErr: true,
		},
		{
			name:    "empty segment",
			input:   "/vercel//next.js",
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, version, err := ParseLibraryID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}
