// Package pipeline implements the document question-answering flow: ingest
// documents into a per-session vector index, and answer questions with
// filtered, retrieval-augmented, memory-aware, cached model calls.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/cache"
	"github.com/fyrsmithlabs/docqd/internal/chunker"
	"github.com/fyrsmithlabs/docqd/internal/config"
	"github.com/fyrsmithlabs/docqd/internal/extract"
	"github.com/fyrsmithlabs/docqd/internal/filter"
	"github.com/fyrsmithlabs/docqd/internal/llm"
	"github.com/fyrsmithlabs/docqd/internal/memory"
	"github.com/fyrsmithlabs/docqd/internal/metrics"
	"github.com/fyrsmithlabs/docqd/internal/notify"
	"github.com/fyrsmithlabs/docqd/internal/session"
	"github.com/fyrsmithlabs/docqd/internal/vectorstore"
)

const instrumentationName = "github.com/fyrsmithlabs/docqd/internal/pipeline"

var (
	// ErrEmptyQuestion indicates a blank question.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrInvalidConfig indicates missing pipeline dependencies.
	ErrInvalidConfig = errors.New("invalid pipeline configuration")
)

// State describes where a question ended up in the pipeline.
type State string

const (
	// StateDone means an answer was produced, from cache or inference.
	StateDone State = "done"
	// StateRejected means the content filter refused the question.
	StateRejected State = "rejected"
	// StateFailed means a required stage errored.
	StateFailed State = "failed"
)

// Answer is the outcome of a question.
type Answer struct {
	// Text is the answer. Empty when rejected or failed.
	Text string
	// State is the terminal pipeline state.
	State State
	// FromCache reports whether Text was served without an inference call.
	FromCache bool
	// Sources are the chunk IDs used as context, in similarity order.
	Sources []string
	// Reason explains a rejection.
	Reason string
}

// IngestResult summarizes a successful document upload.
type IngestResult struct {
	DocumentID string
	Chunks     int
}

// Embedder converts texts to vectors. Implemented by embeddings.Service.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Options holds the pipeline's dependencies.
type Options struct {
	Config     *config.Config
	Embedder   Embedder
	Store      vectorstore.Store
	Generator  llm.Generator
	Classifier filter.Classifier
	Notifier   notify.Notifier
	Sessions   *session.Manager
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// Service runs the ingest and ask flows.
type Service struct {
	cfg        *config.Config
	splitter   *chunker.Splitter
	counter    memory.TokenCounter
	embedder   Embedder
	store      vectorstore.Store
	generator  llm.Generator
	classifier filter.Classifier
	notifier   notify.Notifier
	sessions   *session.Manager
	cache      *cache.Cache
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewService wires the pipeline. Config, Embedder, Store, Generator and
// Classifier are required; Notifier, Sessions, Metrics and Logger default to
// no-op implementations.
func NewService(opts Options) (*Service, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: config required", ErrInvalidConfig)
	}
	if opts.Embedder == nil {
		return nil, fmt.Errorf("%w: embedder required", ErrInvalidConfig)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: vector store required", ErrInvalidConfig)
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("%w: generator required", ErrInvalidConfig)
	}
	if opts.Classifier == nil {
		return nil, fmt.Errorf("%w: classifier required", ErrInvalidConfig)
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewManager()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	splitter := chunker.NewSplitter(opts.Config.Chunking.Size, opts.Config.Chunking.Overlap)
	if err := splitter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	responseCache, err := cache.New(opts.Config.Cache.MaxEntries, !opts.Config.Cache.Disabled)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &Service{
		cfg:        opts.Config,
		splitter:   splitter,
		counter:    memory.NewTiktokenCounter(opts.Config.Memory.Encoding),
		embedder:   opts.Embedder,
		store:      opts.Store,
		generator:  opts.Generator,
		classifier: opts.Classifier,
		notifier:   opts.Notifier,
		sessions:   opts.Sessions,
		cache:      responseCache,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}, nil
}

// Ingest extracts text from blob, chunks it, embeds the chunks and indexes
// them in the session's collection. Re-uploading the same filename to the
// same session overwrites the previous chunks.
func (s *Service) Ingest(ctx context.Context, sessionID, filename string, blob []byte, contentType string) (IngestResult, error) {
	tracer := otel.Tracer(instrumentationName)
	ctx, span := tracer.Start(ctx, "pipeline.Ingest")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("document.filename", filename),
	)

	sess := s.sessions.Get(sessionID)

	text, err := extract.Extract(blob, contentType)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return IngestResult{}, fmt.Errorf("extracting document: %w", err)
	}

	docID := documentID(sessionID, filename)
	chunks, err := s.splitter.Split(docID, text)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return IngestResult{}, fmt.Errorf("chunking document: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeouts.Embed.Duration())
	defer cancel()
	vectors, err := s.embedder.Embed(embedCtx, texts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return IngestResult{}, fmt.Errorf("embedding chunks: %w", err)
	}

	if err := s.store.Upsert(ctx, sess.Collection, chunks, vectors); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return IngestResult{}, fmt.Errorf("indexing chunks: %w", err)
	}

	s.metrics.DocumentsIngested.Inc()
	s.metrics.ChunksIndexed.Add(float64(len(chunks)))
	s.logger.Info("document ingested",
		zap.String("session_id", sessionID),
		zap.String("document_id", docID),
		zap.Int("chunks", len(chunks)))

	span.SetAttributes(attribute.Int("document.chunks", len(chunks)))
	return IngestResult{DocumentID: docID, Chunks: len(chunks)}, nil
}

// Ask answers a question for the session. The question passes the content
// filter, context is retrieved from the session's index, the prompt is
// composed with bounded conversation memory, and the answer comes from the
// cache or a single model call. Successful answers are appended to memory
// and notified asynchronously; failures leave memory and cache untouched.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (Answer, error) {
	tracer := otel.Tracer(instrumentationName)
	ctx, span := tracer.Start(ctx, "pipeline.Ask")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	if question == "" {
		span.SetStatus(codes.Error, ErrEmptyQuestion.Error())
		return Answer{State: StateFailed}, ErrEmptyQuestion
	}
	s.metrics.QueriesTotal.Inc()

	sess := s.sessions.Get(sessionID)

	verdict, err := s.classifier.Classify(ctx, question)
	if err != nil {
		if !errors.Is(err, filter.ErrFilterUnavailable) {
			s.metrics.QueriesFailed.Inc()
			span.SetStatus(codes.Error, err.Error())
			return Answer{State: StateFailed}, fmt.Errorf("classifying question: %w", err)
		}
		// The fallback verdict applies.
		s.metrics.FilterFallbacksUsed.Inc()
		s.logger.Warn("content filter unavailable, fallback applied",
			zap.String("session_id", sessionID),
			zap.Bool("admitted", verdict.Admissible),
			zap.Error(err))
	}
	if !verdict.Admissible {
		s.metrics.QueriesRejected.Inc()
		s.logger.Info("question rejected",
			zap.String("session_id", sessionID),
			zap.String("reason", verdict.Reason))
		s.notifyAsync(fmt.Sprintf("Rejected question in session %s: %s", sessionID, verdict.Reason))
		span.SetAttributes(attribute.String("query.state", string(StateRejected)))
		return Answer{State: StateRejected, Reason: verdict.Reason}, nil
	}

	hits := s.retrieve(ctx, sess, question)
	sources := make([]string, len(hits))
	for i, h := range hits {
		sources[i] = h.Chunk.ID()
	}

	turns := sess.Memory.Window(s.cfg.Memory.MaxTurns, s.cfg.Memory.MaxTokens, s.counter)
	prompt := composePrompt(question, hits, turns)

	pairs := make([][2]string, len(turns))
	for i, t := range turns {
		pairs[i] = [2]string{t.Question, t.Answer}
	}
	key := cache.NewKey(question, sources, cache.MemoryDigest(pairs))

	if answer, ok := s.cache.Get(key); ok {
		s.metrics.CacheHits.Inc()
		sess.Memory.Append(question, answer)
		s.notifyAsync(fmt.Sprintf("Q: %s\nA: %s", question, answer))
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return Answer{Text: answer, State: StateDone, FromCache: true, Sources: sources}, nil
	}
	s.metrics.CacheMisses.Inc()

	inferCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeouts.Infer.Duration())
	defer cancel()
	s.metrics.InferenceCalls.Inc()
	answer, err := s.generator.Generate(inferCtx, prompt)
	if err != nil {
		s.metrics.QueriesFailed.Inc()
		if s.cfg.Notify.OnFailure {
			s.notifyAsync(fmt.Sprintf("Failed question in session %s: %v", sessionID, err))
		}
		span.SetStatus(codes.Error, err.Error())
		return Answer{State: StateFailed}, fmt.Errorf("generating answer: %w", err)
	}

	s.cache.Put(key, answer)
	sess.Memory.Append(question, answer)
	s.notifyAsync(fmt.Sprintf("Q: %s\nA: %s", question, answer))

	span.SetAttributes(
		attribute.Bool("cache.hit", false),
		attribute.Int("retrieval.hits", len(hits)),
	)
	return Answer{Text: answer, State: StateDone, Sources: sources}, nil
}

// retrieve embeds the question and queries the session's collection. Index
// errors degrade to an empty context rather than failing the question.
func (s *Service) retrieve(ctx context.Context, sess *session.Session, question string) []vectorstore.Hit {
	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeouts.Embed.Duration())
	defer cancel()
	vector, err := s.embedder.EmbedQuery(embedCtx, question)
	if err != nil {
		s.metrics.RetrievalDegraded.Inc()
		s.logger.Warn("query embedding failed, answering without context",
			zap.String("session_id", sess.ID), zap.Error(err))
		return nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeouts.Retrieve.Duration())
	defer cancel()
	hits, err := s.store.Query(queryCtx, sess.Collection, vector, s.cfg.Retrieval.K)
	if err != nil {
		s.metrics.RetrievalDegraded.Inc()
		s.logger.Warn("retrieval failed, answering without context",
			zap.String("session_id", sess.ID), zap.Error(err))
		return nil
	}
	return hits
}

// notifyAsync delivers a notification without blocking the request. Delivery
// failures are counted and logged, never surfaced to the caller.
func (s *Service) notifyAsync(message string) {
	channel := s.cfg.Notify.Channel
	if channel == "" {
		return
	}
	timeout := s.cfg.Notify.SendTimeout.Duration()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.notifier.Send(ctx, channel, notify.Truncate(message)); err != nil {
			s.metrics.NotifyFailures.Inc()
			s.logger.Warn("notification delivery failed", zap.Error(err))
		}
	}()
}

// ClearCache drops all cached answers. Idempotent.
func (s *Service) ClearCache() {
	s.cache.Clear()
	s.logger.Info("response cache cleared")
}

// ClearMemory drops the session's conversation memory. Idempotent.
func (s *Service) ClearMemory(sessionID string) {
	s.sessions.Get(sessionID).Memory.Clear()
	s.logger.Info("conversation memory cleared", zap.String("session_id", sessionID))
}

// ClearIndex drops the session's document collection. Idempotent.
func (s *Service) ClearIndex(ctx context.Context, sessionID string) error {
	sess := s.sessions.Get(sessionID)
	if err := s.store.Clear(ctx, sess.Collection); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	s.logger.Info("vector index cleared", zap.String("session_id", sessionID))
	return nil
}

// documentID derives a stable identifier from the session and filename so
// that re-uploads overwrite rather than duplicate.
func documentID(sessionID, filename string) string {
	sum := sha256.Sum256([]byte(sessionID + "\x00" + filename))
	return "doc_" + hex.EncodeToString(sum[:8])
}
