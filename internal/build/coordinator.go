package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/jorgenskogmo/webpub/internal/config"
	"github.com/jorgenskogmo/webpub/internal/content"
	"github.com/jorgenskogmo/webpub/internal/foundation/errors"
	"github.com/jorgenskogmo/webpub/internal/fsutil"
	"github.com/jorgenskogmo/webpub/internal/gitinfo"
	"github.com/jorgenskogmo/webpub/internal/history"
	"github.com/jorgenskogmo/webpub/internal/livereload"
	"github.com/jorgenskogmo/webpub/internal/logfields"
	"github.com/jorgenskogmo/webpub/internal/markdown"
	"github.com/jorgenskogmo/webpub/internal/metrics"
	"github.com/jorgenskogmo/webpub/internal/notify"
	"github.com/jorgenskogmo/webpub/internal/observability"
	"github.com/jorgenskogmo/webpub/internal/plugin"
	"github.com/jorgenskogmo/webpub/internal/render"
	"github.com/jorgenskogmo/webpub/internal/theme"
	"github.com/jorgenskogmo/webpub/internal/tree"
)

// Stage names used for logs and metrics.
const (
	StageTheme    = "theme"
	StageLoad     = "load"
	StageTree     = "tree"
	StageRender   = "render"
	StageAssets   = "assets"
	StageManifest = "manifest"
)

// reportTimeout bounds history and notify calls after a build.
const reportTimeout = 5 * time.Second

// Loader produces the content structure for a build.
type Loader interface {
	Load(ctx context.Context) (*content.Structure, error)
}

// ThemeSource re-acquires the theme before every build.
type ThemeSource interface {
	Resolve() (render.Theme, error)
	Assets() fs.FS
}

// Notifier receives the reload signal after a successful build.
type Notifier interface {
	Broadcast(msg string) (sent, dropped int)
}

// Coordinator owns the mutable build state: the in-progress flag, the time
// the last build completed and the last result.
type Coordinator struct {
	cfg       *config.Config
	loader    Loader
	themes    ThemeSource
	markdown  render.Markdown
	plugins   *plugin.Chain
	notifier  Notifier
	recorder  metrics.Recorder
	history   history.Store
	publisher notify.Publisher
	clock     clockwork.Clock

	inProgress atomic.Bool
	builds     atomic.Int64

	mu          sync.RWMutex
	completedAt time.Time
	last        *Result
}

// NewCoordinator wires the default collaborators for cfg. Plugins may be nil.
func NewCoordinator(cfg *config.Config, plugins *plugin.Chain) *Coordinator {
	var enricher content.Enricher
	if cfg.Build.GitMetadata {
		enricher = gitinfo.NewResolver()
	}
	return &Coordinator{
		cfg:       cfg,
		loader:    content.NewLoader(cfg, enricher),
		themes:    themeSource{src: theme.NewSource(cfg.ThemeDirectory)},
		markdown:  markdown.New(markdown.OptionsFrom(cfg.MarkedOptions)),
		plugins:   plugins,
		recorder:  metrics.NoopRecorder{},
		history:   history.NopStore{},
		publisher: notify.NopPublisher{},
		clock:     clockwork.NewRealClock(),
	}
}

// WithLoader replaces the content loader (for testing).
func (c *Coordinator) WithLoader(l Loader) *Coordinator {
	c.loader = l
	return c
}

// WithThemeSource replaces the theme source.
func (c *Coordinator) WithThemeSource(t ThemeSource) *Coordinator {
	c.themes = t
	return c
}

// WithNotifier sets where the reload signal goes after a successful build.
func (c *Coordinator) WithNotifier(n Notifier) *Coordinator {
	c.notifier = n
	return c
}

// WithRecorder sets the metrics recorder.
func (c *Coordinator) WithRecorder(r metrics.Recorder) *Coordinator {
	if r != nil {
		c.recorder = r
	}
	return c
}

// WithHistory sets the build history store.
func (c *Coordinator) WithHistory(s history.Store) *Coordinator {
	if s != nil {
		c.history = s
	}
	return c
}

// WithPublisher sets the build event publisher.
func (c *Coordinator) WithPublisher(p notify.Publisher) *Coordinator {
	if p != nil {
		c.publisher = p
	}
	return c
}

// WithClock replaces the clock (for testing).
func (c *Coordinator) WithClock(clock clockwork.Clock) *Coordinator {
	c.clock = clock
	return c
}

// Building reports whether a build is running.
func (c *Coordinator) Building() bool { return c.inProgress.Load() }

// CompletedAt returns when the last build finished, successful or not. It is
// zero before the first build.
func (c *Coordinator) CompletedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.completedAt
}

// Last returns the last finished result, if any.
func (c *Coordinator) Last() (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return Result{}, false
	}
	return *c.last, true
}

// Status returns a snapshot for the dev server.
func (c *Coordinator) Status() Status {
	st := Status{Site: c.cfg.Name, Building: c.Building(), Builds: c.builds.Load()}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.completedAt.IsZero() {
		at := c.completedAt
		st.CompletedAt = &at
	}
	if c.last != nil {
		rec := c.last.Record()
		st.Last = &rec
	}
	return st
}

// Clean removes everything under the output directory.
func (c *Coordinator) Clean() error {
	if err := fsutil.Clean(c.cfg.OutputDirectory); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "clean output directory").
			WithContext("path", c.cfg.OutputDirectory).Build()
	}
	slog.Info("Cleaned output directory", logfields.Path(c.cfg.OutputDirectory))
	return nil
}

// RunBuild runs one build cycle. If a build is already running it returns a
// skipped result immediately without touching content. The in-progress flag
// is always cleared and CompletedAt updated, even when a stage fails or
// panics.
func (c *Coordinator) RunBuild(ctx context.Context, trigger string) (res Result) {
	if !c.inProgress.CompareAndSwap(false, true) {
		slog.Info("Build already in progress, skipping", slog.String("trigger", trigger))
		c.recorder.IncBuildOutcome(string(OutcomeSkipped))
		return Result{Outcome: OutcomeSkipped, Trigger: trigger}
	}

	res = Result{ID: uuid.NewString(), Trigger: trigger, StartedAt: c.clock.Now()}
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomeFailed
			res.Err = errors.InternalError(fmt.Sprintf("build panicked: %v", r)).Build()
			slog.Error("Build panicked", logfields.BuildID(res.ID), slog.Any("panic", r))
		}
		res.Duration = c.clock.Since(res.StartedAt)
		c.finish(res)
		c.report(ctx, res)
	}()

	ctx = observability.WithTrigger(observability.WithBuildID(ctx, res.ID), trigger)
	observability.InfoContext(ctx, "Build started")

	if err := c.execute(ctx, &res); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		observability.ErrorContext(ctx, "Build failed", logfields.Error(err), slog.String("category", string(errors.GetCategory(err))))
		return res
	}

	res.Outcome = OutcomeSucceeded
	observability.InfoContext(ctx, "Build succeeded", logfields.Pages(res.Pages), logfields.Duration(c.clock.Since(res.StartedAt)))
	if c.notifier != nil {
		sent, dropped := c.notifier.Broadcast(livereload.ReloadMessage)
		c.recorder.IncReloadBroadcast(sent, dropped)
		observability.DebugContext(ctx, "Broadcast reload", logfields.Clients(sent), slog.Int("dropped", dropped))
	}
	return res
}

func (c *Coordinator) finish(res Result) {
	c.mu.Lock()
	c.completedAt = c.clock.Now()
	c.last = &res
	c.mu.Unlock()
	c.builds.Add(1)
	c.inProgress.Store(false)
}

// report hands the result to metrics, history and notify. Their failures are
// logged and never change the outcome.
func (c *Coordinator) report(ctx context.Context, res Result) {
	c.recorder.IncBuildOutcome(string(res.Outcome))
	c.recorder.ObserveBuildDuration(res.Duration)
	if res.Outcome == OutcomeSucceeded {
		c.recorder.SetPagesRendered(res.Pages)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()

	if err := c.history.Record(ctx, res.Record()); err != nil {
		slog.Warn("Failed to record build history", logfields.BuildID(res.ID), logfields.Error(err))
	}
	ev := notify.Event{
		BuildID:    res.ID,
		Site:       c.cfg.Name,
		Outcome:    string(res.Outcome),
		Trigger:    res.Trigger,
		StartedAt:  res.StartedAt,
		DurationMS: res.Duration.Milliseconds(),
		Pages:      res.Pages,
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	if err := c.publisher.Publish(ctx, ev); err != nil {
		slog.Warn("Failed to publish build event", logfields.BuildID(res.ID), logfields.Error(err))
	}
}

// execute runs the stages in order and stops at the first error.
func (c *Coordinator) execute(ctx context.Context, res *Result) error {
	if c.cfg.Build.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Build.Timeout)
		defer cancel()
	}

	var (
		tpl       render.Theme
		structure *content.Structure
		root      *tree.Node
	)

	err := c.stage(ctx, StageTheme, func() error {
		var err error
		tpl, err = c.themes.Resolve()
		return err
	})
	if err != nil {
		return err
	}

	err = c.stage(ctx, StageLoad, func() error {
		var err error
		structure, err = c.loader.Load(ctx)
		return err
	})
	if err != nil {
		return c.timeout(ctx, err)
	}
	res.ContentSum = contentSum(structure)

	err = c.stage(ctx, StageTree, func() error {
		res.Orphans = tree.Orphans(structure)
		for _, u := range res.Orphans {
			observability.WarnContext(ctx, "Page has no parent and will not be rendered", logfields.URL(u))
		}
		var err error
		root, err = tree.Build(structure)
		if err != nil {
			return errors.WrapError(err, errors.CategoryTree, "build content tree").Fatal().Build()
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = c.stage(ctx, StageRender, func() error {
		w := &render.Walker{
			Config:    c.cfg,
			Markdown:  c.markdown,
			Plugins:   c.plugins,
			Theme:     tpl,
			OutputDir: c.cfg.OutputDirectory,
		}
		pages, err := w.Render(ctx, root)
		res.Pages = len(pages)
		return err
	})
	if err != nil {
		return c.timeout(ctx, err)
	}

	err = c.stage(ctx, StageAssets, func() error {
		assets := c.themes.Assets()
		if assets == nil {
			return nil
		}
		dst := filepath.Join(c.cfg.OutputDirectory, theme.AssetsDir)
		if err := fsutil.CopyFS(assets, dst); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "copy theme assets").WithContext("path", dst).Build()
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !c.cfg.Build.ContentManifest {
		return nil
	}
	return c.stage(ctx, StageManifest, func() error {
		return writeManifest(c.cfg.OutputDirectory, structure)
	})
}

// stage times fn and reports it to the log and the recorder.
func (c *Coordinator) stage(ctx context.Context, name string, fn func() error) error {
	start := c.clock.Now()
	sctx := observability.WithStage(ctx, name)
	observability.DebugContext(sctx, "Stage started")

	err := fn()
	d := c.clock.Since(start)
	c.recorder.ObserveStageDuration(name, d)

	switch {
	case err == nil:
		c.recorder.IncStageResult(name, metrics.ResultSuccess)
		observability.DebugContext(sctx, "Stage completed", logfields.Duration(d))
	case ctx.Err() != nil:
		c.recorder.IncStageResult(name, metrics.ResultCanceled)
	default:
		c.recorder.IncStageResult(name, metrics.ResultFailed)
	}
	return err
}

// timeout replaces a bare context error with a classified one.
func (c *Coordinator) timeout(ctx context.Context, err error) error {
	if ctx.Err() == nil || errors.IsClassified(err) {
		return err
	}
	if ctx.Err() == context.DeadlineExceeded {
		return errors.WrapError(err, errors.CategoryBuild, "build exceeded timeout").
			WithContext("timeout", c.cfg.Build.Timeout.String()).Fatal().Build()
	}
	return errors.WrapError(err, errors.CategoryBuild, "build canceled").Build()
}

func writeManifest(outputDir string, s *content.Structure) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").WithContext("path", outputDir).Build()
	}
	path := filepath.Join(outputDir, content.ManifestFile)
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create content manifest").WithContext("path", path).Build()
	}
	if err := content.WriteManifest(f, s); err != nil {
		_ = f.Close()
		return errors.WrapError(err, errors.CategoryFileSystem, "write content manifest").WithContext("path", path).Build()
	}
	return f.Close()
}

// contentSum digests the url and fingerprint of every page in order.
func contentSum(s *content.Structure) string {
	h := sha256.New()
	for _, u := range s.URLs() {
		p, _ := s.Get(u)
		_, _ = fmt.Fprintf(h, "%s\x00%s\n", u, p.Fingerprint)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// themeSource adapts *theme.Source to ThemeSource.
type themeSource struct{ src *theme.Source }

func (t themeSource) Resolve() (render.Theme, error) {
	tpl, err := t.src.Resolve()
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func (t themeSource) Assets() fs.FS { return t.src.Assets() }
