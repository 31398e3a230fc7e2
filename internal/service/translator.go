package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"github.com/MimeLyc/bulk-sub-translator/internal/media"
	"github.com/MimeLyc/bulk-sub-translator/internal/subtitle"
	"github.com/MimeLyc/bulk-sub-translator/internal/translator"
)

// TranslatorConfig contains translator configuration
type TranslatorConfig struct {
	TargetLanguage language.Tag
	ChunkSize      int
	ContextEnabled bool
	InputPath      string
	SubtitleFile   *subtitle.File

	OutputDir  string
	OutputName string
}

// OutputPath derives where the translated subtitle is written. By
// default the file lands next to the input, tagged with the target
// language: "show.srt" becomes "show.bulktrans.zh.srt".
func (c TranslatorConfig) OutputPath() string {
	outputDir := c.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(c.InputPath)
	}
	outputName := c.OutputName
	if outputName == "" {
		base := filepath.Base(c.InputPath)
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		outputName = stem + ".bulktrans." + c.TargetLanguage.String() + ext
	}
	return filepath.Join(outputDir, outputName)
}

// SubTranslator translates an already parsed subtitle file
type SubTranslator struct {
	nfoReader NFOReader

	subtitleWriter subtitle.Writer
	translator     translator.Translator
	config         TranslatorConfig
	file           *subtitle.File
}

// Translate translates the subtitle file using show metadata from the
// given NFO file as conversation context. An empty nfoPath translates
// without context; not every bundle ships an NFO.
func (t *SubTranslator) Translate(
	ctx context.Context,
	nfoPath string,
) (*TranslationResult, error) {
	var tvShowInfo *media.TVShowInfo
	if nfoPath != "" {
		info, err := t.nfoReader.ReadTVShowInfo(nfoPath)
		if err != nil {
			return nil, WrapError(err, ErrFileRead, "failed to read NFO file")
		}
		tvShowInfo = info
	}

	// Metadata only feeds the prompt when context is enabled
	var contextInfo media.TVShowInfo
	if t.config.ContextEnabled && tvShowInfo != nil {
		contextInfo = *tvShowInfo
	}

	translations, err := t.translator.BatchTranslate(
		ctx,
		translator.MediaMeta{TVShowInfo: contextInfo},
		t.file.Lines,
		t.config.TargetLanguage.String(),
		t.config.ChunkSize,
	)
	if err != nil {
		return nil, WrapError(err, ErrTranslation, "failed to translate subtitles")
	}

	translatedFile := &subtitle.File{
		Lines:    translations,
		Language: t.config.TargetLanguage,
		Format:   t.file.Format,
		Path:     t.config.OutputPath(),
	}

	if err := t.subtitleWriter.Write(translatedFile.Path, translatedFile); err != nil {
		return nil, WrapError(err, ErrFileWrite, "failed to save translation results")
	}

	return &TranslationResult{
		OriginalFile:   *t.file,
		TranslatedFile: *translatedFile,
		Metadata: TranslationMetadata{
			SourceLanguage: t.file.Language,
			TargetLanguage: t.config.TargetLanguage,
			ContextSummary: contextSummary(tvShowInfo),
			CharCount:      countCharacters(t.file.Lines),
		},
	}, nil
}

// FileTranslator reads a subtitle file from disk before translating it
type FileTranslator struct {
	subtitleReader subtitle.Reader
	translator     translator.Translator
	config         TranslatorConfig
}

func (t *FileTranslator) Translate(
	ctx context.Context,
	nfoPath string,
) (*TranslationResult, error) {
	subtitleFile, err := t.subtitleReader.Read()
	if err != nil {
		return nil, WrapError(err, ErrFileRead, "failed to read subtitle file")
	}

	t.config.SubtitleFile = subtitleFile
	subTrans, err := NewTranslator(t.config, t.translator)
	if err != nil {
		return nil, err
	}
	return subTrans.Translate(ctx, nfoPath)
}

// NewTranslator creates a translator for the config. A preloaded
// subtitle file short-circuits the disk read.
func NewTranslator(
	config TranslatorConfig,
	cli translator.Translator,
) (Translator, error) {
	if cli == nil {
		return nil, NewError(ErrValidation, "translation engine is required")
	}
	if config.SubtitleFile != nil {
		return &SubTranslator{
			nfoReader:      media.NewNFOReader(),
			subtitleWriter: subtitle.NewWriter(),
			config:         config,
			translator:     cli,
			file:           config.SubtitleFile,
		}, nil
	}
	if config.InputPath == "" {
		return nil, NewError(ErrValidation, "subtitle input path is required")
	}
	return &FileTranslator{
		subtitleReader: subtitle.NewReader(config.InputPath),
		config:         config,
		translator:     cli,
	}, nil
}

// contextSummary condenses show metadata for reporting
func contextSummary(info *media.TVShowInfo) string {
	if info == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	if info.Title != "" {
		parts = append(parts, info.Title)
	}
	if info.Year > 0 {
		parts = append(parts, fmt.Sprintf("%d", info.Year))
	}
	if len(info.Genre) > 0 {
		parts = append(parts, strings.Join(info.Genre, "/"))
	}
	return strings.Join(parts, ", ")
}

// countCharacters calculates total subtitle characters
func countCharacters(lines []subtitle.Line) int {
	total := 0
	for _, line := range lines {
		total += len(line.Text)
	}
	return total
}
