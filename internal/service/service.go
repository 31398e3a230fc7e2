package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/MimeLyc/bulk-sub-translator/internal/config"
	"github.com/MimeLyc/bulk-sub-translator/internal/jobs"
	"github.com/MimeLyc/bulk-sub-translator/internal/llm"
	"github.com/MimeLyc/bulk-sub-translator/internal/media"
	"github.com/MimeLyc/bulk-sub-translator/internal/persistence"
	"github.com/MimeLyc/bulk-sub-translator/internal/subtitle"
	"github.com/MimeLyc/bulk-sub-translator/internal/translator"
	"github.com/MimeLyc/bulk-sub-translator/pkg/file"
	"github.com/MimeLyc/bulk-sub-translator/pkg/icron"
	"github.com/MimeLyc/bulk-sub-translator/pkg/log"
)

// SweepService periodically scans the media directories for subtitles
// missing a target-language translation and submits one batch job per
// finding. Execution happens on the job queue so a sweep never blocks
// on the remote endpoint.
type SweepService struct {
	cfg           config.Config
	cronExpr      string
	cron          *cron.Cron
	queue         *jobs.Queue
	store         *persistence.SQLiteStore
	lastSweepTime time.Time
}

func NewSweepService(
	cfg config.Config,
	c *cron.Cron,
	queue *jobs.Queue,
	store *persistence.SQLiteStore,
) *SweepService {
	return &SweepService{
		cfg:      cfg,
		cronExpr: cfg.Translate.CronExpr,
		cron:     c,
		queue:    queue,
		store:    store,
	}
}

var sweepGroup singleflight.Group

// Schedule registers the sweep on the cron schedule. Overlapping
// triggers collapse into one running sweep.
func (s *SweepService) Schedule(ctx context.Context) error {
	log.Info("Scheduling subtitle sweep with cron expr %q", s.cronExpr)

	runFunc := func() {
		_, _, _ = sweepGroup.Do("sweep", func() (any, error) {
			s.Sweep(ctx)
			return nil, nil
		})
	}
	_, err := s.cron.AddFunc(s.cronExpr, runFunc)
	return err
}

// Sweep scans every configured media directory once
func (s *SweepService) Sweep(ctx context.Context) {
	for _, dir := range s.cfg.Media.MediaPaths() {
		log.Info("Sweeping dir %s", dir)
		submitted, err := s.sweepDir(ctx, dir)
		if err != nil {
			log.Error("Failed to sweep dir %s: %v", dir, err)
			continue
		}
		log.Info("Submitted %d job(s) from dir %s", submitted, dir)
	}
	s.lastSweepTime = time.Now()
}

func (s *SweepService) sweepDir(ctx context.Context, dir string) (int, error) {
	bundles, err := s.findTranslatableBundles(ctx, dir)
	if err != nil {
		return 0, err
	}

	submitted := 0
	for _, bundle := range bundles {
		sub := bundle.SubtitleFiles[0]
		nfoPath := ""
		if len(bundle.NFOFiles) > 0 {
			nfoPath = bundle.NFOFiles[0].Path
		}

		job, created := s.queue.Submit(jobs.Submission{
			Origin:      "sweep",
			Fingerprint: fmt.Sprintf("%s=>%s", sub.Path, s.cfg.Translate.TargetLanguage),
			Spec: jobs.BatchSpec{
				MediaFile:      bundle.MediaFile,
				SubtitleFile:   sub.Path,
				NFOFile:        nfoPath,
				TargetLanguage: s.cfg.Translate.TargetLanguage.String(),
				ChunkSize:      s.cfg.Translate.ChunkSize,
			},
		})
		if !created {
			log.Debug("Subtitle %s already tracked by job %s", sub.Path, job.ID)
			continue
		}
		submitted++
	}
	return submitted, nil
}

// RunJob executes one batch job end to end. It is the queue's runner.
func (s *SweepService) RunJob(ctx context.Context, job *jobs.BatchJob) error {
	targetLanguage, err := language.Parse(job.Spec.TargetLanguage)
	if err != nil {
		return NewErrorWithCause(ErrValidation, "invalid target language", err).
			WithContext("language", job.Spec.TargetLanguage)
	}

	client, err := llm.NewClient(&llm.Config{
		APIKey:      s.cfg.LLM.APIKey,
		APIURL:      s.cfg.LLM.APIURL,
		Model:       s.cfg.LLM.Model,
		MaxTokens:   s.cfg.LLM.MaxTokens,
		Temperature: s.cfg.LLM.Temperature,
		SiteURL:     s.cfg.LLM.SiteURL,
		AppName:     s.cfg.LLM.AppName,
	})
	if err != nil {
		return WrapError(err, ErrConfig, "failed to create LLM client")
	}

	engine := translator.NewAiTranslator(
		llm.NewChatEndpoint(client),
		translator.WithMaxAttempts(s.cfg.Translate.MaxAttempts),
		translator.WithSessionQuota(s.cfg.Translate.SessionQuota),
		translator.WithTimeoutBases(
			time.Duration(s.cfg.Translate.SingleTimeoutSeconds)*time.Second,
			time.Duration(s.cfg.Translate.BulkTimeoutSeconds)*time.Second,
		),
	)

	trans, err := NewTranslator(TranslatorConfig{
		TargetLanguage: targetLanguage,
		ChunkSize:      job.Spec.ChunkSize,
		ContextEnabled: job.Spec.NFOFile != "",
		InputPath:      job.Spec.SubtitleFile,
	}, engine)
	if err != nil {
		return err
	}

	// Interrupted runs resume from the persisted chunk checkpoints
	if s.store != nil {
		checkpoints, err := newPersistentChunkCheckpointStore(ctx, s.store, job.ID)
		if err != nil {
			log.Warn("Checkpoints unavailable for job %s, running without: %v", job.ID, err)
		} else {
			ctx = translator.WithCheckpoints(ctx, checkpoints)
		}
	}

	result, err := trans.Translate(ctx, job.Spec.NFOFile)
	if err != nil {
		return err
	}
	log.Info("Job %s translated %s into %s (%d lines)",
		job.ID, job.Spec.SubtitleFile, result.TranslatedFile.Path, len(result.TranslatedFile.Lines))

	// The run finished, its checkpoints are dead weight now
	if s.store != nil {
		if err := s.store.DeleteJobData(ctx, job.ID); err != nil {
			log.Warn("Failed to clear checkpoints of job %s: %v", job.ID, err)
		}
	}
	return nil
}

// findTranslatableBundles resolves path bundles to parsed ones,
// dropping every bundle that already has the target language covered.
func (s *SweepService) findTranslatableBundles(
	ctx context.Context,
	dir string,
) ([]MediaBundle, error) {
	all, err := s.findSourceBundlesInDir(ctx, dir)
	if err != nil {
		return nil, err
	}

	target := s.cfg.Translate.TargetLanguage
	ret := make([]MediaBundle, 0, len(all))
	for _, bundle := range all {
		subtitles, err := s.readSubtitleFiles(ctx, bundle.SubtitleFiles)
		if err != nil {
			log.Error("Failed to read subtitle files of media file %s: %v", bundle.MediaFile, err)
			continue
		}

		if containTargetSubtitle(subtitles, target) {
			continue
		}

		nfos := make([]media.TVShowInfo, 0, len(bundle.NFOFiles))
		for _, nfo := range bundle.NFOFiles {
			info, err := media.NewNFOReader().ReadTVShowInfo(nfo)
			if err != nil {
				log.Error("Failed to read NFO file %s: %v", nfo, err)
				continue
			}
			info.Path = nfo
			nfos = append(nfos, *info)
		}

		if bundle.MediaFile != "" {
			// A target subtitle embedded in the container also counts
			// as covered
			operator := media.NewOperator(bundle.MediaFile)
			subDescs, err := operator.ReadSubtitleDescription()
			if err != nil {
				log.Error("Failed to read subtitle description of media file %s: %v", bundle.MediaFile, err)
			} else if subDescs.HasLanguage(target) {
				log.Info("Target subtitle already embedded in media file %s", bundle.MediaFile)
				continue
			}

			// No external subtitle at all: extract one to translate
			if len(subtitles) == 0 && len(subDescs) > 0 {
				output, err := operator.DefExtractSubtitle()
				if err != nil {
					log.Error("Failed to extract subtitle from media file %s: %v", bundle.MediaFile, err)
					continue
				}
				extracted, err := subtitle.NewReader(output).Read()
				if err != nil {
					log.Error("Failed to read extracted subtitle %s: %v", output, err)
					continue
				}
				subtitles = []subtitle.File{*extracted}
			}
		}

		if len(subtitles) == 0 {
			continue
		}
		ret = append(ret, MediaBundle{
			MediaFile:     bundle.MediaFile,
			SubtitleFiles: subtitles,
			NFOFiles:      nfos,
		})
	}

	return ret, nil
}

// containTargetSubtitle checks if any subtitle file has the target language
func containTargetSubtitle(subtitles []subtitle.File, targetLanguage language.Tag) bool {
	for _, sub := range subtitles {
		if sub.Language.String() == targetLanguage.String() {
			return true
		}
	}
	return false
}

func (s *SweepService) readSubtitleFiles(
	_ context.Context,
	paths []string,
) ([]subtitle.File, error) {
	ret := make([]subtitle.File, 0, len(paths))

	for _, path := range paths {
		parsed, err := subtitle.NewReader(path).Read()
		if err != nil {
			return nil, fmt.Errorf("failed to read subtitle file %s: %w", path, err)
		}
		ret = append(ret, *parsed)
	}

	return ret, nil
}

func (s *SweepService) findSourceBundlesInDir(
	_ context.Context,
	dir string,
) ([]MediaPathBundle, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory %s does not exist", dir)
	}

	startTime, err := s.startTime()
	if err != nil {
		return nil, fmt.Errorf("failed to get start time: %w", err)
	}
	log.Info("Searching for media files modified after %v", startTime)

	recentFiles, err := file.FindRecentAfter(dir, startTime)
	if err != nil {
		return nil, fmt.Errorf("failed to find recent files: %w", err)
	}

	var targetFiles []string
	for _, filePath := range recentFiles {
		ext := strings.ToLower(filepath.Ext(filePath))
		if isSubtitleFile(ext) || isMediaFile(ext) {
			targetFiles = append(targetFiles, filePath)
		}
	}

	var bundles []MediaPathBundle
	processedBases := make(map[string]bool)

	for _, targetFile := range targetFiles {
		baseName := getBaseName(targetFile)
		baseDir := filepath.Dir(targetFile)

		if processedBases[baseName] {
			continue
		}
		processedBases[baseName] = true

		bundle := MediaPathBundle{
			SubtitleFiles: findMatchingSubtitleFiles(baseDir, baseName),
			MediaFile:     findMatchingMediaFile(baseDir, baseName),
			NFOFiles:      findNFOFiles(baseDir),
		}

		if len(bundle.SubtitleFiles) > 0 || bundle.MediaFile != "" {
			bundles = append(bundles, bundle)
		}
	}

	return bundles, nil
}

// getBaseName extracts the base name of a file
// e.g. "movie.mkv" -> "movie"
// e.g. "movie.eng.srt" -> "movie"
func getBaseName(filePath string) string {
	fileName := filepath.Base(filePath)
	if !strings.Contains(fileName, ".") {
		return fileName
	}
	return strings.Split(fileName, ".")[0]
}

// findMatchingSubtitleFiles finds all subtitle files with the same base name
func findMatchingSubtitleFiles(dir, baseName string) []string {
	var subtitleFiles []string

	files, err := os.ReadDir(dir)
	if err != nil {
		return subtitleFiles
	}

	for _, entry := range files {
		if entry.IsDir() {
			continue
		}

		fileName := entry.Name()
		for _, ext := range subtitleExts {
			if strings.HasPrefix(fileName, baseName) && strings.HasSuffix(fileName, ext) {
				subtitleFiles = append(subtitleFiles, filepath.Join(dir, fileName))
			}
		}
	}

	return subtitleFiles
}

// findMatchingMediaFile finds a media file with the same base name
func findMatchingMediaFile(dir, baseName string) string {
	for _, ext := range mediaExts {
		targetPath := filepath.Join(dir, baseName+ext)
		if _, err := os.Stat(targetPath); err == nil {
			return targetPath
		}
	}

	return ""
}

// findNFOFiles searches for NFO files in the current directory and its
// parents, nearest first
func findNFOFiles(startDir string) []string {
	var nfoFiles []string
	currentDir := startDir
	nfoNames := []string{"tvshow.nfo", "season.nfo", "show.nfo"}

	for {
		for _, nfoName := range nfoNames {
			nfoPath := filepath.Join(currentDir, nfoName)
			if _, err := os.Stat(nfoPath); err == nil {
				nfoFiles = append(nfoFiles, nfoPath)
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return nfoFiles
}

func isSubtitleFile(ext string) bool {
	return slices.Contains(subtitleExts, ext)
}

func isMediaFile(ext string) bool {
	return slices.Contains(mediaExts, ext)
}

// startTime picks the modification cutoff of a sweep. The first sweep
// after startup falls back to the previous cron trigger, or a week when
// the schedule is too fresh to trust.
func (s *SweepService) startTime() (time.Time, error) {
	if s.lastSweepTime.IsZero() {
		cronSchedule, err := icron.GetTriggerInfo(s.cronExpr, time.Now())
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to get cron schedule: %w", err)
		}

		if time.Now().Add(-24 * time.Hour).Before(cronSchedule.Last) {
			return time.Now().Add(-24 * 7 * time.Hour), nil
		}
		return cronSchedule.Last, nil
	}

	return s.lastSweepTime, nil
}
