package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ppiankov/docparity/internal/cache"
	"github.com/ppiankov/docparity/internal/logging"
	"github.com/ppiankov/docparity/internal/model"
	"github.com/ppiankov/docparity/internal/pipeline"
	"github.com/ppiankov/docparity/internal/worker"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the reconciliation whenever either document changes",
	Long: `Watch runs check once, then again every time the webpage or the manuscript
is saved. Bursts of saves are debounced and reruns are throttled. A report is
printed only when it differs from the last one printed.

Both documents must be local files. Stop with Ctrl-C.

Example:
  docparity watch -r site/index.html -c paper/main.tex`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addDocumentFlags(watchCmd)
	addEngineFlags(watchCmd)

	defaults := model.DefaultConfig()
	watchCmd.Flags().Duration("debounce", defaults.Watch.Debounce, "quiet period after a change before rerunning")
	watchCmd.Flags().Duration("min-interval", defaults.Watch.MinInterval, "minimum time between reruns")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireDocuments(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	w, err := newWatcher(p, cfg, cmd.OutOrStdout(), *logging.Default())
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// watcher reruns a pipeline when its documents change
type watcher struct {
	pipeline  *pipeline.Pipeline
	reference string
	candidate string
	debounce  time.Duration
	throttle  *rate.Limiter
	printed   *cache.MemoryCache
	out       io.Writer
	logger    zerolog.Logger
	runs      atomic.Int64
}

func newWatcher(p *pipeline.Pipeline, cfg *model.Config, out io.Writer, logger zerolog.Logger) (*watcher, error) {
	reference, err := watchPath(cfg.Documents.Reference)
	if err != nil {
		return nil, err
	}
	candidate, err := watchPath(cfg.Documents.Candidate)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.Watch.MinInterval > 0 {
		limit = rate.Every(cfg.Watch.MinInterval)
	}

	return &watcher{
		pipeline:  p,
		reference: reference,
		candidate: candidate,
		debounce:  cfg.Watch.Debounce,
		throttle:  rate.NewLimiter(limit, 1),
		// No janitor: one entry, overwritten on every printed report
		printed: cache.NewMemoryCache(-1, 0),
		out:     out,
		logger:  logger,
	}, nil
}

func watchPath(location string) (string, error) {
	if worker.IsRemote(location) {
		return "", fmt.Errorf("watch needs local documents, got %s", location)
	}
	path, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", location, err)
	}
	return path, nil
}

// Run reconciles once, then on every settled change until ctx is done
func (w *watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	// Editors replace files on save; watch the directories
	targets := map[string]bool{w.reference: true, w.candidate: true}
	dirs := map[string]bool{}
	for path := range targets {
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.logger.Info().
		Str("reference", w.reference).
		Str("candidate", w.candidate).
		Msg("watching documents")

	w.rerun(ctx)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(event.Name)] || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			w.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("document changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")

		case <-fire:
			fire = nil
			if err := w.throttle.Wait(ctx); err != nil {
				return nil
			}
			w.rerun(ctx)
		}
	}
}

// rerun reconciles and prints the report when it changed since the last print.
// Failures are logged and the watch goes on.
func (w *watcher) rerun(ctx context.Context) {
	defer w.runs.Add(1)

	rep, err := w.pipeline.ReconcilePaths(ctx, w.reference, w.candidate)
	if err != nil {
		w.logger.Error().Err(err).Msg("reconcile failed")
		return
	}

	var buf bytes.Buffer
	if err := w.pipeline.RenderReport(ctx, &buf, rep); err != nil {
		w.logger.Error().Err(err).Msg("render failed")
		return
	}

	key := cache.Key("report", w.reference+"|"+w.candidate)
	digest := []byte(strconv.FormatUint(cache.Fingerprint(buf.Bytes()), 16))
	if last, ok := w.printed.Get(key); ok && bytes.Equal(last, digest) {
		w.logger.Debug().Msg("report unchanged")
		return
	}

	if _, err := w.out.Write(buf.Bytes()); err != nil {
		w.logger.Error().Err(err).Msg("write report")
		return
	}
	_ = w.printed.Set(key, digest, 0)
}
