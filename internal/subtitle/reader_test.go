package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,500
Hello there.

2
00:00:04,000 --> 00:00:06,000
How are you today?
Fine, thank you.

3
00:00:07,250 --> 00:00:09,000
Goodbye.
`

func writeTempSRT(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.srt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReader_ParsesSRT(t *testing.T) {
	path := writeTempSRT(t, sampleSRT)

	parsed, err := NewReader(path).Read()
	require.NoError(t, err)

	require.Len(t, parsed.Lines, 3)
	assert.Equal(t, "SRT", parsed.Format)
	assert.Equal(t, path, parsed.Path)

	first := parsed.Lines[0]
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, time.Second, first.StartTime)
	assert.Equal(t, 3*time.Second+500*time.Millisecond, first.EndTime)
	assert.Equal(t, "Hello there.", first.Text)

	// Multi-line text joins with a newline
	assert.Equal(t, "How are you today?\nFine, thank you.", parsed.Lines[1].Text)
}

func TestReader_TrailingEntryWithoutBlankLine(t *testing.T) {
	path := writeTempSRT(t, strings.TrimRight(sampleSRT, "\n"))

	parsed, err := NewReader(path).Read()
	require.NoError(t, err)
	assert.Len(t, parsed.Lines, 3)
}

func TestReader_DetectsLanguage(t *testing.T) {
	path := writeTempSRT(t, sampleSRT)

	parsed, err := NewReader(path).Read()
	require.NoError(t, err)
	assert.Equal(t, language.English, parsed.Language)
}

func TestReader_RejectsNonSRT(t *testing.T) {
	_, err := NewReader("/tmp/whatever.ass").Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SRT")
}

func TestReader_MissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.srt")).Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestReader_InvalidTimeLine(t *testing.T) {
	path := writeTempSRT(t, "1\nnot a time line\ntext\n")

	_, err := NewReader(path).Read()
	require.Error(t, err)
}

func TestParseSRTTime(t *testing.T) {
	start, end, err := parseSRTTime("00:02:16,612 --> 00:02:19,376")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute+16*time.Second+612*time.Millisecond, start)
	assert.Equal(t, 2*time.Minute+19*time.Second+376*time.Millisecond, end)
}
