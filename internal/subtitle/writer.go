package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"time"
)

// DefaultWriter writes SRT subtitle files
type DefaultWriter struct{}

// NewWriter creates a new subtitle file writer
func NewWriter() Writer {
	return &DefaultWriter{}
}

// Write serializes the subtitle file to path. Each entry keeps its
// original index and timecodes; the text slot carries the translated
// text, falling back to the original when no translation exists.
func (w *DefaultWriter) Write(path string, subtitle *File) error {
	if subtitle == nil {
		return fmt.Errorf("subtitle data is empty")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	writer := bufio.NewWriter(f)
	for _, line := range subtitle.Lines {
		fmt.Fprintf(writer, "%d\n", line.Index)

		startTime := formatDuration(line.StartTime)
		endTime := formatDuration(line.EndTime)
		fmt.Fprintf(writer, "%s --> %s\n", startTime, endTime)

		text := line.TranslatedText
		if text == "" {
			text = line.Text
		}
		fmt.Fprintf(writer, "%s\n\n", text)
	}

	// A swallowed flush or close error would report a truncated file
	// as written
	if err := writer.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// formatDuration formats a time.Duration in SRT time format
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}
