package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ppiankov/docparity/internal/cache"
	"github.com/ppiankov/docparity/internal/model"
	"github.com/ppiankov/docparity/internal/worker"
	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"golang.org/x/sync/errgroup"
)

// ErrLoad matches every document loading failure
var ErrLoad = errors.New("load document")

// ErrNotFound is returned when a document location does not exist
var ErrNotFound = errors.New("not found")

// LoadError reports a document that could not be read. It aborts the run
// before any claim is evaluated.
type LoadError struct {
	Side     model.Side
	Location string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s document %s: %v", e.Side, e.Location, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrLoad) hold for any LoadError
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// Loader reads documents from local paths or any afs URL
type Loader struct {
	fs         afs.Service
	download   func(ctx context.Context, location string) ([]byte, error)
	limiter    *worker.Limiter
	memo       *cache.MemoryCache
	memoTTL    time.Duration
	timeout    time.Duration
	maxBytes   int64
	attempts   uint
	retryDelay time.Duration
	logger     zerolog.Logger
}

// NewLoader creates a loader from the load config block.
// A non-positive cache TTL disables the memo.
func NewLoader(cfg model.LoadConfig, logger zerolog.Logger) *Loader {
	fs := afs.New()
	l := &Loader{
		fs: fs,
		download: func(ctx context.Context, location string) ([]byte, error) {
			return fs.DownloadWithURL(ctx, location)
		},
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		memoTTL:    cfg.CacheTTL,
		timeout:    cfg.Timeout,
		maxBytes:   cfg.MaxBytes,
		attempts:   cfg.Retries + 1,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}
	if cfg.CacheTTL > 0 {
		l.memo = cache.NewMemoryCache(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return l
}

// Load reads one document, retrying transient failures
func (l *Loader) Load(ctx context.Context, side model.Side, location string) (model.Document, error) {
	if location == "" {
		return model.Document{}, &LoadError{Side: side, Location: location, Err: errors.New("no location given")}
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	data, err := retry.DoWithData(
		func() ([]byte, error) {
			return l.attempt(ctx, location)
		},
		retry.Context(ctx),
		retry.Attempts(l.attempts),
		retry.Delay(l.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			l.logger.Debug().Err(err).Uint("attempt", n+1).Str("location", location).Msg("retrying document load")
		}),
	)
	if err != nil {
		return model.Document{}, &LoadError{Side: side, Location: location, Err: err}
	}

	doc := model.NewDocument(side, location, string(data))
	doc.Digest = cache.Fingerprint(data)

	l.logger.Debug().
		Str("side", string(side)).
		Str("location", location).
		Int("bytes", len(data)).
		Dur("took", time.Since(start)).
		Msg("document loaded")

	return doc, nil
}

// LoadPair reads both documents concurrently
func (l *Loader) LoadPair(ctx context.Context, reference, candidate string) (model.Document, model.Document, error) {
	var ref, cand model.Document

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ref, err = l.Load(gctx, model.SideReference, reference)
		return err
	})
	g.Go(func() error {
		var err error
		cand, err = l.Load(gctx, model.SideCandidate, candidate)
		return err
	})

	if err := g.Wait(); err != nil {
		return model.Document{}, model.Document{}, err
	}
	return ref, cand, nil
}

// attempt performs one read. Missing documents, directories and oversized
// documents are not retried.
func (l *Loader) attempt(ctx context.Context, location string) ([]byte, error) {
	if worker.IsRemote(location) {
		if err := l.limiter.Wait(ctx, location); err != nil {
			return nil, retry.Unrecoverable(err)
		}
	}

	obj, err := l.fs.Object(ctx, location)
	if err != nil {
		if ok, existsErr := l.fs.Exists(ctx, location); existsErr == nil && !ok {
			return nil, retry.Unrecoverable(ErrNotFound)
		}
		return nil, fmt.Errorf("stat: %w", err)
	}
	if obj.IsDir() {
		return nil, retry.Unrecoverable(errors.New("is a directory"))
	}
	if err := l.checkSize(obj.Size()); err != nil {
		return nil, retry.Unrecoverable(err)
	}

	// Size and modification time keep the memo fresh for watched files
	key := cache.Key("document", fmt.Sprintf("%s|%d|%d", location, obj.Size(), obj.ModTime().UnixNano()))
	if l.memo != nil {
		if data, ok := l.memo.Get(key); ok {
			return data, nil
		}
	}

	data, err := l.download(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if err := l.checkSize(int64(len(data))); err != nil {
		return nil, retry.Unrecoverable(err)
	}

	if l.memo != nil {
		_ = l.memo.Set(key, data, l.memoTTL)
	}
	return data, nil
}

func (l *Loader) checkSize(n int64) error {
	if l.maxBytes > 0 && n > l.maxBytes {
		return fmt.Errorf("document is %d bytes, limit is %d", n, l.maxBytes)
	}
	return nil
}
