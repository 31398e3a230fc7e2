package translator

import (
	"context"

	"github.com/MimeLyc/bulk-sub-translator/internal/media"
	"github.com/MimeLyc/bulk-sub-translator/internal/subtitle"
)

// MediaMeta carries the show context woven into translation prompts
type MediaMeta struct {
	media.TVShowInfo
}

// Translator is the translation engine surface consumed by the service
// layer.
//
// TranslateText translates a single text. Timeout or transport-fault
// exhaustion is returned as an error; an unusable reply degrades to the
// original text.
//
// TranslateBulk translates an ordered list of texts in one remote call
// (with retries). The result always has the same length and order as
// the input; recoverable failures degrade to the original texts, and an
// error is returned only on unrecoverable exhaustion.
//
// BatchTranslate translates subtitle lines chunk by chunk, preserving
// each line's index and timecodes.
type Translator interface {
	TranslateText(
		ctx context.Context,
		media MediaMeta,
		text string,
		targetLanguage string,
	) (string, error)

	TranslateBulk(
		ctx context.Context,
		media MediaMeta,
		texts []string,
		targetLanguage string,
	) ([]string, error)

	BatchTranslate(
		ctx context.Context,
		media MediaMeta,
		subtitleLines []subtitle.Line,
		targetLanguage string,
		chunkSize int,
	) ([]subtitle.Line, error)
}
