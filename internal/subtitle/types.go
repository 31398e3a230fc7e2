package subtitle

import (
	"time"

	"golang.org/x/text/language"
)

// Reader is the interface for reading subtitle files
type Reader interface {
	Read() (*File, error)
}

// Writer is the interface for writing subtitle files
type Writer interface {
	Write(path string, subtitle *File) error
}

// Line represents a single timed subtitle entry. The index keeps the
// original numbering from the source file, which is not necessarily
// contiguous.
type Line struct {
	Index          int           `json:"index"`
	StartTime      time.Duration `json:"start_time"`
	EndTime        time.Duration `json:"end_time"`
	Text           string        `json:"text"` // may span multiple lines
	TranslatedText string        `json:"translated_text,omitempty"`
}

// File represents a parsed subtitle file
type File struct {
	Lines    []Line
	Language language.Tag
	Format   string // e.g. SRT
	Path     string
}

// Description describes one subtitle stream embedded in a media container
type Description struct {
	Language    string
	SubLanguage string
	LangTag     language.Tag
}

type Descriptions []Description

// HasLanguage reports whether any stream matches the given language
func (ds Descriptions) HasLanguage(tag language.Tag) bool {
	for _, d := range ds {
		if d.LangTag == tag {
			return true
		}
	}
	return false
}
