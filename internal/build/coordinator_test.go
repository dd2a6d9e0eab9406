package build

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jorgenskogmo/webpub/internal/config"
	"github.com/jorgenskogmo/webpub/internal/content"
	"github.com/jorgenskogmo/webpub/internal/foundation/errors"
	"github.com/jorgenskogmo/webpub/internal/history"
	"github.com/jorgenskogmo/webpub/internal/notify"
	tsite "github.com/jorgenskogmo/webpub/internal/testing"
	"github.com/jorgenskogmo/webpub/internal/tree"
)

func newTestSite(t *testing.T) *tsite.Site {
	t.Helper()
	return tsite.NewSite(t).
		Page("", "---\ntitle: Home\n---\nroot").
		Page("a", "---\ntitle: A\n---\nchild")
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return newTestSite(t).Config()
}

type countingNotifier struct{ calls atomic.Int32 }

func (n *countingNotifier) Broadcast(string) (int, int) {
	n.calls.Add(1)
	return 1, 0
}

type memoryHistory struct {
	mu      sync.Mutex
	records []history.Record
	err     error
}

func (m *memoryHistory) Record(_ context.Context, r history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return m.err
}
func (m *memoryHistory) Recent(context.Context, int) ([]history.Record, error) { return nil, nil }
func (m *memoryHistory) Close() error                                          { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}
func (p *recordingPublisher) Close() error { return nil }

type loaderFunc func(ctx context.Context) (*content.Structure, error)

func (f loaderFunc) Load(ctx context.Context) (*content.Structure, error) { return f(ctx) }

func TestRunBuild_Succeeds(t *testing.T) {
	site := newTestSite(t)
	cfg := site.Config()
	n := &countingNotifier{}
	h := &memoryHistory{}
	p := &recordingPublisher{}
	c := NewCoordinator(cfg, nil).WithNotifier(n).WithHistory(h).WithPublisher(p)

	res := c.RunBuild(t.Context(), TriggerManual)

	require.NoError(t, res.Err)
	require.Equal(t, OutcomeSucceeded, res.Outcome)
	require.Equal(t, 2, res.Pages)
	require.NotEmpty(t, res.ID)
	require.Len(t, res.ContentSum, 64)
	site.Output().
		AssertPage("/").
		AssertPage("/").
		AssertFileContains("a/index.html", "child").
		AssertFileExists(filepath.Join("assets", "styles.css")).
		AssertFileNotExists(content.ManifestFile)

	require.EqualValues(t, 1, n.calls.Load())
	require.False(t, c.Building())
	require.False(t, c.CompletedAt().IsZero())
	require.Len(t, h.records, 1)
	require.Equal(t, "succeeded", h.records[0].Outcome)
	require.Len(t, p.events, 1)
	require.Equal(t, res.ID, p.events[0].BuildID)
	require.Equal(t, TriggerManual, p.events[0].Trigger)
}

func TestRunBuild_SkipsWhileInProgress(t *testing.T) {
	cfg := newTestConfig(t)
	started := make(chan struct{})
	release := make(chan struct{})
	var loads atomic.Int32
	loader := content.NewLoader(cfg, nil)

	c := NewCoordinator(cfg, nil).WithLoader(loaderFunc(func(ctx context.Context) (*content.Structure, error) {
		loads.Add(1)
		close(started)
		<-release
		return loader.Load(ctx)
	}))

	done := make(chan Result, 1)
	go func() { done <- c.RunBuild(context.Background(), TriggerWatch) }()
	<-started

	second := c.RunBuild(t.Context(), TriggerWatch)
	require.Equal(t, OutcomeSkipped, second.Outcome)
	require.Empty(t, second.ID)
	require.True(t, c.Building())

	close(release)
	first := <-done
	require.Equal(t, OutcomeSucceeded, first.Outcome)
	require.EqualValues(t, 1, loads.Load())
	require.False(t, c.Building())
}

func TestRunBuild_MissingRootFailsAndClearsFlag(t *testing.T) {
	site := tsite.NewSite(t).Page("a", "child")
	cfg := site.Config()
	n := &countingNotifier{}
	c := NewCoordinator(cfg, nil).WithNotifier(n)

	res := c.RunBuild(t.Context(), TriggerManual)

	require.Equal(t, OutcomeFailed, res.Outcome)
	var missing *tree.MissingRootError
	require.ErrorAs(t, res.Err, &missing)
	require.True(t, errors.HasCategory(res.Err, errors.CategoryTree))
	require.EqualValues(t, 0, n.calls.Load())
	require.False(t, c.Building())
	site.Output().AssertNoPage("/a/")

	site.Page("", "root")
	res = c.RunBuild(t.Context(), TriggerManual)
	require.Equal(t, OutcomeSucceeded, res.Outcome)
	require.EqualValues(t, 1, n.calls.Load())
}

func TestRunBuild_ReportsOrphans(t *testing.T) {
	site := newTestSite(t).Page("x/y", "orphan")
	c := NewCoordinator(site.Config(), nil)

	res := c.RunBuild(t.Context(), TriggerManual)

	require.Equal(t, OutcomeSucceeded, res.Outcome)
	require.Equal(t, []string{"/x/y/"}, res.Orphans)
	site.Output().AssertNoPage("/x/y/")
}

func TestRunBuild_PanicIsRecovered(t *testing.T) {
	cfg := newTestConfig(t)
	c := NewCoordinator(cfg, nil).WithLoader(loaderFunc(func(context.Context) (*content.Structure, error) {
		panic("boom")
	}))

	res := c.RunBuild(t.Context(), TriggerManual)

	require.Equal(t, OutcomeFailed, res.Outcome)
	require.True(t, errors.HasCategory(res.Err, errors.CategoryInternal))
	require.False(t, c.Building())
}

func TestRunBuild_Timeout(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Build.Timeout = 10 * time.Millisecond
	c := NewCoordinator(cfg, nil).WithLoader(loaderFunc(func(ctx context.Context) (*content.Structure, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	res := c.RunBuild(t.Context(), TriggerManual)

	require.Equal(t, OutcomeFailed, res.Outcome)
	require.ErrorIs(t, res.Err, context.DeadlineExceeded)
	require.True(t, errors.HasCategory(res.Err, errors.CategoryBuild))
}

func TestRunBuild_WritesManifest(t *testing.T) {
	site := newTestSite(t).WithManifest()
	c := NewCoordinator(site.Config(), nil)

	res := c.RunBuild(t.Context(), TriggerManual)
	require.Equal(t, OutcomeSucceeded, res.Outcome)

	site.Output().
		AssertFileContains(content.ManifestFile, `"/a/"`).
		AssertFileContains(content.ManifestFile, `"title": "A"`)
}

func TestRunBuild_CollaboratorErrorsDoNotFailBuild(t *testing.T) {
	cfg := newTestConfig(t)
	h := &memoryHistory{err: os.ErrPermission}
	p := &recordingPublisher{err: os.ErrDeadlineExceeded}
	c := NewCoordinator(cfg, nil).WithHistory(h).WithPublisher(p)

	res := c.RunBuild(t.Context(), TriggerManual)

	require.Equal(t, OutcomeSucceeded, res.Outcome)
	require.Len(t, h.records, 1)
	require.Len(t, p.events, 1)
}

func TestStatus(t *testing.T) {
	cfg := newTestConfig(t)
	c := NewCoordinator(cfg, nil)

	st := c.Status()
	require.False(t, st.Building)
	require.Nil(t, st.CompletedAt)
	require.Nil(t, st.Last)

	res := c.RunBuild(t.Context(), TriggerInitial)
	st = c.Status()
	require.EqualValues(t, 1, st.Builds)
	require.NotNil(t, st.CompletedAt)
	require.NotNil(t, st.Last)
	require.Equal(t, res.ID, st.Last.ID)
	require.Equal(t, TriggerInitial, st.Last.Trigger)

	last, ok := c.Last()
	require.True(t, ok)
	require.Equal(t, res.ID, last.ID)
}

func TestClean(t *testing.T) {
	cfg := newTestConfig(t)
	c := NewCoordinator(cfg, nil)
	require.Equal(t, OutcomeSucceeded, c.RunBuild(t.Context(), TriggerManual).Outcome)

	require.NoError(t, c.Clean())

	entries, err := os.ReadDir(cfg.OutputDirectory)
	require.NoError(t, err)
	require.Empty(t, entries)
}
