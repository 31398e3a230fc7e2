package media

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/MimeLyc/bulk-sub-translator/internal/subtitle"
	"github.com/MimeLyc/bulk-sub-translator/pkg/file"
	"github.com/MimeLyc/bulk-sub-translator/pkg/log"
	"golang.org/x/text/language"
)

type ffmpeg struct {
	ffmpegCmd  string
	ffprobeCmd string
	filePath   string
	fileDir    string
	fileName   string
}

func NewFfmpeg(
	mediaPath string,
) ffmpeg {
	mediaPath = filepath.Clean(mediaPath)

	return ffmpeg{
		ffmpegCmd:  "ffmpeg",
		ffprobeCmd: "ffprobe",
		filePath:   mediaPath,
		fileDir:    filepath.Dir(mediaPath),
		fileName:   filepath.Base(mediaPath),
	}
}

// ExtractSubtitle extracts the first subtitle stream to an SRT file
func (ff ffmpeg) ExtractSubtitle(
	toDir string,
	name string,
) (string, error) {
	output := filepath.Join(toDir, name)

	cmdPath, err := exec.LookPath(ff.ffmpegCmd)
	if err != nil {
		return "", err
	}
	cmd := exec.Command(cmdPath, ff.extractSubArgs(output)...)

	return output, cmd.Run()
}

// DefExtractSubtitle extracts the subtitle next to the media file using
// the default naming convention
func (ff ffmpeg) DefExtractSubtitle() (string, error) {
	return ff.ExtractSubtitle(
		ff.fileDir,
		fmt.Sprintf("bulktrans_%s", file.ReplaceExt(ff.fileName, ".srt")))
}

// ReadSubtitleDescription probes the container for subtitle streams
func (ff ffmpeg) ReadSubtitleDescription() (subtitle.Descriptions, error) {
	cmdPath, err := exec.LookPath(ff.ffprobeCmd)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(cmdPath, ff.readProbeArgs(ff.filePath)...)

	output, err := cmd.Output()
	if err != nil {
		log.Error("Failed to run ffprobe: %v", err)
		return nil, err
	}

	var probeResult struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			CodecName string `json:"codec_name"`
			Tags      struct {
				Language string `json:"language"`
				Title    string `json:"title"`
			} `json:"tags"`
			Disposition struct {
				Default int `json:"default"`
			} `json:"disposition"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(output, &probeResult); err != nil {
		log.Error("Failed to parse ffprobe output: %v", err)
		return nil, err
	}

	descriptions := make([]subtitle.Description, 0)
	for _, stream := range probeResult.Streams {
		if stream.CodecType != "subtitle" {
			continue
		}
		desc := subtitle.Description{
			Language:    stream.Tags.Language,
			SubLanguage: stream.Tags.Title,
			LangTag:     language.All.Make(stream.Tags.Language),
		}
		if desc.Language == "" {
			desc.Language = "und" // undefined
			desc.LangTag = language.Und
		}
		descriptions = append(descriptions, desc)
	}

	return descriptions, nil
}

func (ffmpeg) readProbeArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams",
		"s",
		path,
	}
}

func (f ffmpeg) extractSubArgs(targetPath string) []string {
	return []string{
		"-i", f.filePath,
		"-map", "0:s:0", // select first subtitle
		"-c:s", "srt", // convert to srt
		"-f", "srt", // output format
		targetPath,
	}
}
