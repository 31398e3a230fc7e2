package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNFO = `<?xml version="1.0" encoding="UTF-8"?>
<tvshow>
	<title>  The Long Voyage </title>
	<originaltitle>Le Long Voyage</originaltitle>
	<plot>A crew sets out.</plot>
	<genre>Drama</genre>
	<genre> Adventure </genre>
	<genre>  </genre>
	<year>2021</year>
	<studio>Example Studio</studio>
	<actor>
		<name>Jane Doe</name>
		<role>Captain</role>
		<order>1</order>
	</actor>
	<actor>
		<name>  </name>
		<role>ignored</role>
	</actor>
</tvshow>`

func writeNFO(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tvshow.nfo")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNFOReader_ParsesShowInfo(t *testing.T) {
	path := writeNFO(t, sampleNFO)

	info, err := NewNFOReader().ReadTVShowInfo(path)
	require.NoError(t, err)

	assert.Equal(t, "The Long Voyage", info.Title)
	assert.Equal(t, "Le Long Voyage", info.OriginalTitle)
	assert.Equal(t, 2021, info.Year)
	assert.Equal(t, "Example Studio", info.Studio)
	// Genres are trimmed and blanks dropped
	assert.Equal(t, []string{"Drama", "Adventure"}, info.Genre)
	// Actors without a name are dropped
	require.Len(t, info.Actors, 1)
	assert.Equal(t, "Jane Doe", info.Actors[0].Name)
	assert.Equal(t, "Captain", info.Actors[0].Role)
}

func TestNFOReader_RejectsWrongExtension(t *testing.T) {
	_, err := NewNFOReader().ReadTVShowInfo("/tmp/tvshow.xml")
	require.Error(t, err)
}

func TestNFOReader_MissingFile(t *testing.T) {
	_, err := NewNFOReader().ReadTVShowInfo(filepath.Join(t.TempDir(), "missing.nfo"))
	require.Error(t, err)
}

func TestNFOReader_InvalidXML(t *testing.T) {
	path := writeNFO(t, "<tvshow><title>broken")
	_, err := NewNFOReader().ReadTVShowInfo(path)
	require.Error(t, err)
}

func TestFfmpeg_DefaultCommands(t *testing.T) {
	ff := NewFfmpeg("/media/show/episode.mkv")

	assert.Equal(t, "/media/show", ff.fileDir)
	assert.Equal(t, "episode.mkv", ff.fileName)

	args := ff.extractSubArgs("/media/show/out.srt")
	assert.Contains(t, args, "-map")
	assert.Contains(t, args, "0:s:0")
	assert.Equal(t, "/media/show/out.srt", args[len(args)-1])
}
