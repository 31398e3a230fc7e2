package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MimeLyc/bulk-sub-translator/internal/llm"
	"github.com/MimeLyc/bulk-sub-translator/internal/subtitle"
	"github.com/MimeLyc/bulk-sub-translator/pkg/log"
)

const (
	// DefaultChunkSize is how many subtitle lines go into one bulk call
	DefaultChunkSize = 10
	// DefaultSessionQuota is how many messages one session may carry
	// before rotation
	DefaultSessionQuota = 5
	// DefaultMaxAttempts bounds retries of one logical remote call
	DefaultMaxAttempts = 5

	defaultSingleTimeoutBase = 15 * time.Second
	defaultBulkTimeoutBase   = 30 * time.Second
)

// ChunkCheckpointStore persists finished chunks of a run so an
// interrupted job can resume without re-translating. Carried through
// the context so the engine stays agnostic of the storage.
type ChunkCheckpointStore interface {
	Load(start, end int) ([]string, bool)
	Save(ctx context.Context, start, end int, translated []string) error
}

type checkpointContextKey struct{}

// WithCheckpoints attaches a checkpoint store to the context
func WithCheckpoints(ctx context.Context, store ChunkCheckpointStore) context.Context {
	if store == nil {
		return ctx
	}
	return context.WithValue(ctx, checkpointContextKey{}, store)
}

func checkpointsFromContext(ctx context.Context) ChunkCheckpointStore {
	if ctx == nil {
		return nil
	}
	store, _ := ctx.Value(checkpointContextKey{}).(ChunkCheckpointStore)
	return store
}

// aiTranslator drives the remote endpoint through the session manager,
// retry controller and bulk parser. Chunks are processed strictly
// sequentially over one rotated session; the remote service is a
// stateful, rate-limited conversation, not a parallel RPC farm.
type aiTranslator struct {
	endpoint llm.Endpoint
	sessions *SessionManager

	maxAttempts       int
	singleTimeoutBase time.Duration
	bulkTimeoutBase   time.Duration
}

// Option configures the translator
type Option func(*aiTranslator)

// WithMaxAttempts overrides the per-call attempt budget
func WithMaxAttempts(n int) Option {
	return func(t *aiTranslator) {
		if n > 0 {
			t.maxAttempts = n
		}
	}
}

// WithSessionQuota overrides the per-session message quota
func WithSessionQuota(n int) Option {
	return func(t *aiTranslator) {
		if n > 0 {
			t.sessions.quota = n
		}
	}
}

// WithTimeoutBases overrides the first-attempt timeouts of the single
// and bulk call paths
func WithTimeoutBases(single, bulk time.Duration) Option {
	return func(t *aiTranslator) {
		if single > 0 {
			t.singleTimeoutBase = single
		}
		if bulk > 0 {
			t.bulkTimeoutBase = bulk
		}
	}
}

// NewAiTranslator creates the translation engine on top of a session
// endpoint
func NewAiTranslator(endpoint llm.Endpoint, opts ...Option) Translator {
	t := &aiTranslator{
		endpoint:          endpoint,
		sessions:          NewSessionManager(endpoint, DefaultSessionQuota),
		maxAttempts:       DefaultMaxAttempts,
		singleTimeoutBase: defaultSingleTimeoutBase,
		bulkTimeoutBase:   defaultBulkTimeoutBase,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *aiTranslator) TranslateText(
	ctx context.Context,
	media MediaMeta,
	text string,
	targetLanguage string,
) (string, error) {
	t.sessions.SetContext(buildSystemPrompt(media, targetLanguage))
	defer t.sessions.Close()

	var result string
	err := t.runWithRetry(ctx, retryPolicy{t.maxAttempts, t.singleTimeoutBase},
		func(ctx context.Context, session *llm.Session) error {
			reply, err := t.endpoint.Send(ctx, session, buildSinglePrompt(text, targetLanguage))
			if err != nil {
				return err
			}
			reply = strings.TrimSpace(reply)
			if reply == "" {
				return &MalformedResponseError{Raw: reply}
			}
			result = reply
			return nil
		})

	switch classify(err) {
	case outcomeSuccess:
		return result, nil
	case outcomeMalformed, outcomeUnexpected:
		// Degrade to the original text rather than failing the caller
		return text, nil
	default:
		return "", fmt.Errorf("translation failed: %w", err)
	}
}

func (t *aiTranslator) TranslateBulk(
	ctx context.Context,
	media MediaMeta,
	texts []string,
	targetLanguage string,
) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	t.sessions.SetContext(buildSystemPrompt(media, targetLanguage))
	defer t.sessions.Close()

	result, err := t.translateChunk(ctx, texts, targetLanguage)
	if err != nil {
		return nil, err
	}
	return result.texts, nil
}

func (t *aiTranslator) BatchTranslate(
	ctx context.Context,
	media MediaMeta,
	subtitleLines []subtitle.Line,
	targetLanguage string,
	chunkSize int,
) ([]subtitle.Line, error) {
	// Zero entries: no remote calls at all
	if len(subtitleLines) == 0 {
		return []subtitle.Line{}, nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	t.sessions.SetContext(buildSystemPrompt(media, targetLanguage))
	defer t.sessions.Close()

	// Fixed-length output buffer, one slot per line, addressed by
	// absolute position. Every chunk fills exactly its own range.
	translated := make([]string, len(subtitleLines))
	checkpoints := checkpointsFromContext(ctx)
	fallbackChunks := 0

	for start := 0; start < len(subtitleLines); start += chunkSize {
		end := min(start+chunkSize, len(subtitleLines))

		if checkpoints != nil {
			if cached, ok := checkpoints.Load(start, end); ok && len(cached) == end-start {
				copy(translated[start:end], cached)
				continue
			}
		}

		texts := make([]string, 0, end-start)
		for _, line := range subtitleLines[start:end] {
			texts = append(texts, line.Text)
		}

		result, err := t.translateChunk(ctx, texts, targetLanguage)
		if err != nil {
			// Unrecoverable: the whole run fails, nothing partial is
			// handed back
			return nil, fmt.Errorf("bulk translation failed for lines %d-%d: %w", start+1, end, err)
		}

		copy(translated[start:end], result.texts)

		if result.fallback {
			fallbackChunks++
			log.Warn("Lines %d-%d kept original text after exhausting retries", start+1, end)
			continue
		}
		if checkpoints != nil {
			if err := checkpoints.Save(ctx, start, end, result.texts); err != nil {
				log.Error("Failed to checkpoint lines %d-%d: %v", start+1, end, err)
			}
		}
	}

	if fallbackChunks > 0 {
		log.Warn("Translation finished with %d chunk(s) degraded to original text", fallbackChunks)
	}

	out := make([]subtitle.Line, len(subtitleLines))
	for i, line := range subtitleLines {
		out[i] = subtitle.Line{
			Index:          line.Index,
			StartTime:      line.StartTime,
			EndTime:        line.EndTime,
			Text:           line.Text,
			TranslatedText: translated[i],
		}
	}
	return out, nil
}

// chunkResult is the resolution of one chunk: either translations or
// the original texts marked as fallback
type chunkResult struct {
	texts    []string
	fallback bool
}

// translateChunk runs one bulk remote call with retries. Timeout and
// transport exhaustion surface as errors; malformed-response
// exhaustion and unexpected failures degrade to the original texts.
func (t *aiTranslator) translateChunk(
	ctx context.Context,
	texts []string,
	targetLanguage string,
) (chunkResult, error) {
	var parsed []string

	err := t.runWithRetry(ctx, retryPolicy{t.maxAttempts, t.bulkTimeoutBase},
		func(ctx context.Context, session *llm.Session) error {
			reply, err := t.endpoint.Send(ctx, session, buildBulkPrompt(texts, targetLanguage))
			if err != nil {
				return err
			}
			result, ok := parseBulkReply(reply, len(texts))
			if !ok {
				return &MalformedResponseError{Raw: reply}
			}
			parsed = result
			return nil
		})

	switch classify(err) {
	case outcomeSuccess:
		return chunkResult{texts: parsed}, nil
	case outcomeMalformed, outcomeUnexpected:
		originals := make([]string, len(texts))
		copy(originals, texts)
		return chunkResult{texts: originals, fallback: true}, nil
	default:
		return chunkResult{}, err
	}
}
