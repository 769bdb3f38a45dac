package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Status("🔍", "Searching snippets...")

	output := buf.String()
	assert.Contains(t, output, "🔍")
	assert.Contains(t, output, "Searching snippets...")
}

func TestWriter_Status_EmptyIconIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Status("", "detail line")

	assert.Equal(t, "   detail line\n", buf.String())
}

func TestWriter_Success_PrintsCheckmark(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Success("Ingest complete!")

	output := buf.String()
	assert.Contains(t, output, "✅")
	assert.Contains(t, output, "Ingest complete!")
}

func TestWriter_Statusf_FormatsMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Statusf("📂", "Found %d files in %s", 42, "/path/to/docs")

	output := buf.String()
	assert.Contains(t, output, "📂")
	assert.Contains(t, output, "Found 42 files in /path/to/docs")
}

func TestWriter_Successf_FormatsMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Successf("Ingested %d snippets", 7)

	assert.Contains(t, buf.String(), "Ingested 7 snippets")
}

func TestWriter_Newline_PrintsEmptyLine(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Newline()

	assert.Equal(t, "\n", buf.String())
}
