package service

import (
	"context"

	"golang.org/x/text/language"

	"github.com/MimeLyc/bulk-sub-translator/internal/media"
	"github.com/MimeLyc/bulk-sub-translator/internal/subtitle"
)

// Translator turns one subtitle file into its translated counterpart
type Translator interface {
	Translate(ctx context.Context, nfoPath string) (*TranslationResult, error)
}

// TranslationResult represents translation result
type TranslationResult struct {
	OriginalFile   subtitle.File
	TranslatedFile subtitle.File
	Metadata       TranslationMetadata
}

// TranslationMetadata contains translation metadata
type TranslationMetadata struct {
	SourceLanguage language.Tag
	TargetLanguage language.Tag
	ContextSummary string
	CharCount      int
}

// NFOReader is the interface for reading NFO files
type NFOReader interface {
	ReadTVShowInfo(path string) (*media.TVShowInfo, error)
}

// MediaBundle groups a media file with its parsed subtitles and NFO
// metadata
type MediaBundle struct {
	MediaFile     string
	NFOFiles      []media.TVShowInfo
	SubtitleFiles []subtitle.File
}

// MediaPathBundle groups the on-disk paths belonging to one media file
type MediaPathBundle struct {
	MediaFile     string
	NFOFiles      []string
	SubtitleFiles []string
}

var subtitleExts = []string{
	".srt",  // SubRip
	".ass",  // Advanced SubStation Alpha
	".ssa",  // SubStation Alpha
	".vtt",  // WebVTT
	".sub",  // MicroDVD/SubViewer
	".idx",  // VobSub index
	".sup",  // Blu-ray PGS
	".ttml", // Timed Text Markup Language
	".sbv",  // YouTube
	".smi",  // SAMI
	".stl",  // Spruce subtitle format
}

var mediaExts = []string{
	// Container formats that support embedded subtitles
	".mkv",
	".mp4",
	".m4v",
	".mov",
	".avi",
	".wmv",
	".flv",
	".webm",
	".ogv",
	".ts",
	".m2ts",
	".vob",
	".mpg",
	".mpeg",
}
