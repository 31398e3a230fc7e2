package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/MimeLyc/bulk-sub-translator/internal/subtitle"
	"github.com/MimeLyc/bulk-sub-translator/internal/translator"
)

// fakeEngine is a translator.Translator that marks every line instead
// of calling a remote endpoint.
type fakeEngine struct {
	lastMedia     translator.MediaMeta
	lastChunkSize int
	batchCalls    int
	err           error
}

func (f *fakeEngine) TranslateText(_ context.Context, media translator.MediaMeta, text, _ string) (string, error) {
	f.lastMedia = media
	return "T:" + text, f.err
}

func (f *fakeEngine) TranslateBulk(_ context.Context, media translator.MediaMeta, texts []string, _ string) ([]string, error) {
	f.lastMedia = media
	ret := make([]string, len(texts))
	for i, text := range texts {
		ret[i] = "T:" + text
	}
	return ret, f.err
}

func (f *fakeEngine) BatchTranslate(_ context.Context, media translator.MediaMeta, lines []subtitle.Line, _ string, chunkSize int) ([]subtitle.Line, error) {
	f.batchCalls++
	f.lastMedia = media
	f.lastChunkSize = chunkSize
	if f.err != nil {
		return nil, f.err
	}
	ret := make([]subtitle.Line, len(lines))
	for i, line := range lines {
		ret[i] = line
		ret[i].TranslatedText = "T:" + line.Text
	}
	return ret, nil
}

const testSRT = `1
00:00:01,000 --> 00:00:02,000
Hello there.

2
00:00:03,000 --> 00:00:04,000
See you soon.
`

const testNFO = `<tvshow>
	<title>Test Show</title>
	<year>2020</year>
	<genre>Drama</genre>
	<plot>Something happens.</plot>
</tvshow>`

func writeFixtures(t *testing.T) (srtPath, nfoPath string) {
	t.Helper()
	dir := t.TempDir()
	srtPath = filepath.Join(dir, "show.srt")
	nfoPath = filepath.Join(dir, "tvshow.nfo")
	require.NoError(t, os.WriteFile(srtPath, []byte(testSRT), 0o644))
	require.NoError(t, os.WriteFile(nfoPath, []byte(testNFO), 0o644))
	return srtPath, nfoPath
}

func TestTranslatorConfig_OutputPath(t *testing.T) {
	cfg := TranslatorConfig{
		TargetLanguage: language.Chinese,
		InputPath:      "/media/season1/show.eng.srt",
	}
	assert.Equal(t, "/media/season1/show.eng.bulktrans.zh.srt", cfg.OutputPath())

	cfg.OutputDir = "/out"
	cfg.OutputName = "custom.srt"
	assert.Equal(t, "/out/custom.srt", cfg.OutputPath())
}

func TestNewTranslator_Validation(t *testing.T) {
	_, err := NewTranslator(TranslatorConfig{InputPath: "x.srt"}, nil)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrValidation))

	_, err = NewTranslator(TranslatorConfig{}, &fakeEngine{})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrValidation))
}

func TestFileTranslator_TranslatesAndWritesOutput(t *testing.T) {
	srtPath, nfoPath := writeFixtures(t)
	engine := &fakeEngine{}

	trans, err := NewTranslator(TranslatorConfig{
		TargetLanguage: language.Chinese,
		ChunkSize:      10,
		ContextEnabled: true,
		InputPath:      srtPath,
	}, engine)
	require.NoError(t, err)

	result, err := trans.Translate(context.Background(), nfoPath)
	require.NoError(t, err)

	assert.Equal(t, 1, engine.batchCalls)
	assert.Equal(t, 10, engine.lastChunkSize)
	assert.Equal(t, "Test Show", engine.lastMedia.Title)

	require.Len(t, result.TranslatedFile.Lines, 2)
	assert.Equal(t, "T:Hello there.", result.TranslatedFile.Lines[0].TranslatedText)
	assert.Equal(t, language.Chinese, result.Metadata.TargetLanguage)
	assert.Contains(t, result.Metadata.ContextSummary, "Test Show")

	// The translated file landed next to the input
	written, err := os.ReadFile(result.TranslatedFile.Path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "T:Hello there.")
}

func TestSubTranslator_ContextDisabledDropsMetadata(t *testing.T) {
	srtPath, nfoPath := writeFixtures(t)
	engine := &fakeEngine{}

	trans, err := NewTranslator(TranslatorConfig{
		TargetLanguage: language.Chinese,
		InputPath:      srtPath,
		ContextEnabled: false,
	}, engine)
	require.NoError(t, err)

	_, err = trans.Translate(context.Background(), nfoPath)
	require.NoError(t, err)

	assert.Empty(t, engine.lastMedia.Title)
}

func TestSubTranslator_NoNFOTranslatesWithoutContext(t *testing.T) {
	srtPath, _ := writeFixtures(t)
	engine := &fakeEngine{}

	trans, err := NewTranslator(TranslatorConfig{
		TargetLanguage: language.Chinese,
		InputPath:      srtPath,
		ContextEnabled: false,
	}, engine)
	require.NoError(t, err)

	result, err := trans.Translate(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 1, engine.batchCalls)
	assert.Empty(t, engine.lastMedia.Title)
	assert.Empty(t, result.Metadata.ContextSummary)
	require.Len(t, result.TranslatedFile.Lines, 2)
	assert.Equal(t, "T:Hello there.", result.TranslatedFile.Lines[0].TranslatedText)
}

func TestSubTranslator_MissingNFOFails(t *testing.T) {
	srtPath, _ := writeFixtures(t)
	engine := &fakeEngine{}

	trans, err := NewTranslator(TranslatorConfig{
		TargetLanguage: language.Chinese,
		InputPath:      srtPath,
	}, engine)
	require.NoError(t, err)

	_, err = trans.Translate(context.Background(), filepath.Join(t.TempDir(), "missing.nfo"))
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrFileRead))
}

func TestSubTranslator_EngineErrorWrapped(t *testing.T) {
	srtPath, nfoPath := writeFixtures(t)
	engine := &fakeEngine{err: assert.AnError}

	trans, err := NewTranslator(TranslatorConfig{
		TargetLanguage: language.Chinese,
		InputPath:      srtPath,
	}, engine)
	require.NoError(t, err)

	_, err = trans.Translate(context.Background(), nfoPath)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrTranslation))
	assert.ErrorIs(t, err, assert.AnError)
}
