package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DefaultReader reads SRT subtitle files
type DefaultReader struct {
	path string
}

// NewReader creates a new subtitle file reader for path
func NewReader(path string) Reader {
	return &DefaultReader{path: path}
}

// Read parses the subtitle file
func (r *DefaultReader) Read() (*File, error) {
	if !strings.HasSuffix(strings.ToLower(r.path), ".srt") {
		return nil, fmt.Errorf("only SRT format subtitle files are supported: %s", r.path)
	}

	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil, fmt.Errorf("subtitle file does not exist: %s", r.path)
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer f.Close()

	lines, err := parseSRT(f)
	if err != nil {
		return nil, err
	}

	return &File{
		Lines:    lines,
		Language: detectLanguage(lines),
		Format:   "SRT",
		Path:     r.path,
	}, nil
}

// parseSRT scans SRT content with a small state machine:
// index line, time line, then text lines until a blank separator.
func parseSRT(src io.Reader) ([]Line, error) {
	var lines []Line
	scanner := bufio.NewScanner(src)

	currentLine := Line{}
	state := "index" // "index", "time", "text"
	var textLines []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch state {
		case "index":
			if line == "" {
				continue
			}
			index, err := strconv.Atoi(line)
			if err != nil {
				continue // skip non-index lines
			}
			currentLine.Index = index
			state = "time"

		case "time":
			if line == "" {
				continue
			}
			startTime, endTime, err := parseSRTTime(line)
			if err != nil {
				return nil, fmt.Errorf("failed to parse time: %w", err)
			}
			currentLine.StartTime = startTime
			currentLine.EndTime = endTime
			state = "text"
			textLines = []string{}

		case "text":
			if line == "" {
				// subtitle text ends
				if len(textLines) > 0 {
					currentLine.Text = strings.Join(textLines, "\n")
					lines = append(lines, currentLine)
					currentLine = Line{}
				}
				state = "index"
				textLines = []string{}
			} else {
				textLines = append(textLines, line)
			}
		}
	}

	// handle trailing subtitle group without a final blank line
	if state == "text" && len(textLines) > 0 {
		currentLine.Text = strings.Join(textLines, "\n")
		lines = append(lines, currentLine)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subtitle content: %w", err)
	}

	return lines, nil
}

var srtTimeRe = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2}),(\d{3}) --> (\d{2}):(\d{2}):(\d{2}),(\d{3})`)

// parseSRTTime parses an SRT time line, e.g. "00:02:16,612 --> 00:02:19,376"
func parseSRTTime(timeString string) (time.Duration, time.Duration, error) {
	matches := srtTimeRe.FindStringSubmatch(timeString)
	if len(matches) != 9 {
		return 0, 0, fmt.Errorf("invalid time format: %s", timeString)
	}

	parseTime := func(hours, minutes, seconds, milliseconds string) time.Duration {
		h, _ := strconv.Atoi(hours)
		m, _ := strconv.Atoi(minutes)
		s, _ := strconv.Atoi(seconds)
		ms, _ := strconv.Atoi(milliseconds)

		return time.Duration(h)*time.Hour +
			time.Duration(m)*time.Minute +
			time.Duration(s)*time.Second +
			time.Duration(ms)*time.Millisecond
	}

	startTime := parseTime(matches[1], matches[2], matches[3], matches[4])
	endTime := parseTime(matches[5], matches[6], matches[7], matches[8])

	return startTime, endTime, nil
}

// detectLanguage picks the dominant language across all text lines
func detectLanguage(lines []Line) language.Tag {
	if len(lines) == 0 {
		return language.Und
	}

	langMap := make(map[string]int)
	for _, line := range lines {
		lang := whatlanggo.DetectLang(line.Text).Iso6391()
		langMap[lang]++
	}

	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount {
			topLang = lang
			topCount = count
		}
	}

	return language.All.Make(topLang)
}
