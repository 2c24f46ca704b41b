package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTick = 5 * time.Millisecond
	testHold = 150 * time.Millisecond
	waitFor  = 2 * time.Second
	pollStep = 2 * time.Millisecond
)

// recorder collects everything the controller publishes
type recorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
	notices   []string
}

func (r *recorder) attach(c *Controller) {
	c.OnChange(func(s Snapshot) {
		r.mu.Lock()
		r.snapshots = append(r.snapshots, s)
		r.mu.Unlock()
	})
	c.OnNotice(func(msg string) {
		r.mu.Lock()
		r.notices = append(r.notices, msg)
		r.mu.Unlock()
	})
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snapshots...)
}

func (r *recorder) Notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notices...)
}

// phases returns the published phases with consecutive repeats collapsed
func (r *recorder) phases() []Phase {
	var out []Phase
	for _, s := range r.all() {
		if len(out) == 0 || out[len(out)-1] != s.Phase {
			out = append(out, s.Phase)
		}
	}
	return out
}

type fakeProcessor struct {
	mu      sync.Mutex
	calls   []string
	release chan struct{}
	content string
	err     error
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{release: make(chan struct{}), content: "Hello world"}
}

func (p *fakeProcessor) ProcessDocument(ctx context.Context, path string) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, path)
	p.mu.Unlock()

	select {
	case <-p.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if p.err != nil {
		return "", p.err
	}
	return p.content, nil
}

func (p *fakeProcessor) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fakePicker struct {
	mu      sync.Mutex
	filters []FileFilter
	path    string
	err     error
	block   chan struct{}
}

func (p *fakePicker) PickFile(ctx context.Context, filter FileFilter) (string, error) {
	p.mu.Lock()
	p.filters = append(p.filters, filter)
	block := p.block
	p.mu.Unlock()
	if block != nil {
		<-block
	}
	return p.path, p.err
}

type journalEntry struct {
	id, path, status, detail string
}

type fakeJournal struct {
	mu      sync.Mutex
	started []journalEntry
	done    []journalEntry
}

func (j *fakeJournal) UploadStarted(ctx context.Context, id, sourcePath string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.started = append(j.started, journalEntry{id: id, path: sourcePath})
	return nil
}

func (j *fakeJournal) UploadFinished(ctx context.Context, id, status, detail string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.done = append(j.done, journalEntry{id: id, status: status, detail: detail})
	return nil
}

func (j *fakeJournal) finished() []journalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journalEntry(nil), j.done...)
}

func newTestController(t *testing.T, picker FilePicker, proc Processor, opts Options) (*Controller, *recorder) {
	t.Helper()
	if opts.TickInterval == 0 {
		opts.TickInterval = testTick
	}
	if opts.DoneHold == 0 {
		opts.DoneHold = testHold
	}
	c := NewController(picker, proc, opts)
	r := &recorder{}
	r.attach(c)
	t.Cleanup(c.Close)
	return c, r
}

func pdfItem(name string) DropItem {
	return DropItem{Name: name, MediaType: MediaTypePDF}
}

func waitPhase(t *testing.T, c *Controller, phase Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Snapshot().Phase == phase }, waitFor, pollStep,
		"controller never reached %s", phase)
}

func TestController_StartsIdle(t *testing.T) {
	c, _ := newTestController(t, &fakePicker{}, newFakeProcessor(), Options{})
	assert.Equal(t, Snapshot{Phase: PhaseIdle}, c.Snapshot())
}

func TestDrop_NonPDFKeepsIdle(t *testing.T) {
	c, r := newTestController(t, &fakePicker{}, newFakeProcessor(), Options{})

	for _, mt := range []string{"text/plain", "image/png", "application/pdf; charset=binary", "application/PDF", ""} {
		assert.False(t, c.Drop([]DropItem{{Name: "notes.txt", MediaType: mt}}), mt)
		assert.Equal(t, PhaseIdle, c.Snapshot().Phase, mt)
		assert.Empty(t, c.Snapshot().SourcePath, mt)
	}
	assert.Len(t, r.Notices(), 5)
	assert.Equal(t, "Please drop a PDF file", r.Notices()[0])
}

func TestDrop_PDFBecomesReady(t *testing.T) {
	c, r := newTestController(t, &fakePicker{}, newFakeProcessor(), Options{})

	require.True(t, c.Drop([]DropItem{pdfItem("report.pdf")}))
	s := c.Snapshot()
	assert.Equal(t, PhaseReady, s.Phase)
	assert.Equal(t, "report.pdf", s.SourcePath)
	assert.Empty(t, r.Notices())
}

func TestDrop_PrefersPathOverName(t *testing.T) {
	c, _ := newTestController(t, &fakePicker{}, newFakeProcessor(), Options{})

	require.True(t, c.Drop([]DropItem{{Name: "report.pdf", Path: "/docs/report.pdf", MediaType: MediaTypePDF}}))
	assert.Equal(t, "/docs/report.pdf", c.Snapshot().SourcePath)
}

func TestDrop_OnlyFirstItemCounts(t *testing.T) {
	c, _ := newTestController(t, &fakePicker{}, newFakeProcessor(), Options{})

	assert.False(t, c.Drop([]DropItem{{Name: "a.txt", MediaType: "text/plain"}, pdfItem("b.pdf")}))
	assert.Equal(t, PhaseIdle, c.Snapshot().Phase)

	assert.True(t, c.Drop([]DropItem{pdfItem("a.pdf"), {Name: "b.txt", MediaType: "text/plain"}}))
	assert.Equal(t, "a.pdf", c.Snapshot().SourcePath)
}

func TestDrop_EmptyPayload(t *testing.T) {
	c, r := newTestController(t, &fakePicker{}, newFakeProcessor(), Options{})

	assert.False(t, c.Drop(nil))
	assert.Equal(t, PhaseIdle, c.Snapshot().Phase)
	assert.Empty(t, r.Notices())
}

func TestDrop_ReplacesReadyFile(t *testing.T) {
	c, _ := newTestController(t, &fakePicker{}, newFakeProcessor(), Options{})

	require.True(t, c.Drop([]DropItem{pdfItem("first.pdf")}))
	require.True(t, c.Drop([]DropItem{pdfItem("second.pdf")}))
	assert.Equal(t, "second.pdf", c.Snapshot().SourcePath)
	assert.Equal(t, PhaseReady, c.Snapshot().Phase)
}

func TestDragActive(t *testing.T) {
	c, r := newTestController(t, &fakePicker{}, newFakeProcessor(), Options{})

	c.DragEnter()
	assert.True(t, c.Snapshot().DragActive)
	c.DragOver()
	assert.True(t, c.Snapshot().DragActive)
	c.DragLeave()
	assert.False(t, c.Snapshot().DragActive)

	c.DragEnter()
	c.Drop([]DropItem{{Name: "x.txt", MediaType: "text/plain"}})
	assert.False(t, c.Snapshot().DragActive)
	assert.Equal(t, PhaseIdle, c.Snapshot().Phase)

	// enter, over and leave only publish on an actual change
	assert.Len(t, r.all(), 4)
}

func TestProcess_NoopUnlessReady(t *testing.T) {
	proc := newFakeProcessor()
	c, r := newTestController(t, &fakePicker{}, proc, Options{})

	assert.False(t, c.Process())
	assert.Equal(t, PhaseIdle, c.Snapshot().Phase)
	assert.Empty(t, r.all())
	assert.Equal(t, 0, proc.Calls())
}

func TestProcess_NoDuplicateRuns(t *testing.T) {
	proc := newFakeProcessor()
	c, _ := newTestController(t, &fakePicker{}, proc, Options{})

	require.True(t, c.Drop([]DropItem{pdfItem("report.pdf")}))
	require.True(t, c.Process())
	assert.False(t, c.Process())
	assert.False(t, c.Process())

	require.Eventually(t, func() bool { return proc.Calls() == 1 }, waitFor, pollStep)
	close(proc.release)
	waitPhase(t, c, PhaseIdle)
	assert.Equal(t, 1, proc.Calls())
}

func TestProcess_Success(t *testing.T) {
	proc := newFakeProcessor()
	journal := &fakeJournal{}
	c, r := newTestController(t, &fakePicker{}, proc, Options{Journal: journal})

	require.True(t, c.Drop([]DropItem{pdfItem("report.pdf")}))
	require.True(t, c.Process())

	// let a few ticks land before the backend resolves
	require.Eventually(t, func() bool { return c.Snapshot().Progress >= 20 }, waitFor, pollStep)
	close(proc.release)

	waitPhase(t, c, PhaseDone)
	done := c.Snapshot()
	assert.Equal(t, 100, done.Progress)
	assert.Equal(t, "Hello world", done.Content)
	assert.Equal(t, "report.pdf", done.SourcePath)

	waitPhase(t, c, PhaseIdle)
	final := c.Snapshot()
	assert.Empty(t, final.SourcePath)
	assert.Equal(t, 0, final.Progress)
	assert.NoError(t, final.Err)

	assert.Equal(t, []Phase{PhaseReady, PhaseProcessing, PhaseDone, PhaseIdle}, r.phases())
	assert.Empty(t, r.Notices())

	finished := journal.finished()
	require.Len(t, finished, 1)
	assert.Equal(t, "done", finished[0].status)
	assert.Equal(t, "Hello world", finished[0].detail)
	assert.Equal(t, c.SessionID(), finished[0].id)
}

func TestProcess_ProgressIsMonotonicAndCapped(t *testing.T) {
	proc := newFakeProcessor()
	c, r := newTestController(t, &fakePicker{}, proc, Options{})

	require.True(t, c.Drop([]DropItem{pdfItem("report.pdf")}))
	require.True(t, c.Process())

	require.Eventually(t, func() bool { return c.Snapshot().Progress == DefaultProgressCap }, waitFor, pollStep)
	// more ticks must not push past the cap
	time.Sleep(10 * testTick)
	assert.Equal(t, DefaultProgressCap, c.Snapshot().Progress)

	close(proc.release)
	waitPhase(t, c, PhaseIdle)

	last := -1
	for _, s := range r.all() {
		switch s.Phase {
		case PhaseProcessing:
			if last == -1 {
				assert.Equal(t, 0, s.Progress, "processing starts at zero")
			}
			assert.GreaterOrEqual(t, s.Progress, last)
			assert.LessOrEqual(t, s.Progress, DefaultProgressCap)
			assert.Zero(t, s.Progress%DefaultTickStep)
			last = s.Progress
		case PhaseDone:
			assert.Equal(t, 100, s.Progress)
		}
	}
}

func TestProcess_FailureGoesStraightToIdle(t *testing.T) {
	proc := newFakeProcessor()
	proc.err = errors.New("index unreachable")
	journal := &fakeJournal{}
	c, r := newTestController(t, &fakePicker{}, proc, Options{Journal: journal})

	require.True(t, c.Drop([]DropItem{pdfItem("report.pdf")}))
	require.True(t, c.Process())
	close(proc.release)

	waitPhase(t, c, PhaseIdle)
	s := c.Snapshot()
	assert.Equal(t, 0, s.Progress)
	assert.Empty(t, s.SourcePath)
	assert.EqualError(t, s.Err, "index unreachable")

	assert.Equal(t, []Phase{PhaseReady, PhaseProcessing, PhaseIdle}, r.phases())
	for _, snap := range r.all() {
		assert.NotEqual(t, 100, snap.Progress)
	}
	require.Len(t, r.Notices(), 1)
	assert.Contains(t, r.Notices()[0], "index unreachable")

	finished := journal.finished()
	require.Len(t, finished, 1)
	assert.Equal(t, "failed", finished[0].status)
	assert.Equal(t, "index unreachable", finished[0].detail)
}

func TestProcess_PanicIsAFailure(t *testing.T) {
	c, r := newTestController(t, &fakePicker{}, panicProcessor{}, Options{})

	require.True(t, c.Drop([]DropItem{pdfItem("report.pdf")}))
	require.True(t, c.Process())
	waitPhase(t, c, PhaseIdle)

	assert.Equal(t, []Phase{PhaseReady, PhaseProcessing, PhaseIdle}, r.phases())
	assert.ErrorContains(t, c.Snapshot().Err, "boom")
}

type panicProcessor struct{}

func (panicProcessor) ProcessDocument(ctx context.Context, path string) (string, error) {
	panic("boom")
}

func TestProcess_NoTicksAfterCompletion(t *testing.T) {
	proc := newFakeProcessor()
	c, r := newTestController(t, &fakePicker{}, proc, Options{})

	require.True(t, c.Drop([]DropItem{pdfItem("report.pdf")}))
	require.True(t, c.Process())
	close(proc.release)
	waitPhase(t, c, PhaseIdle)

	count := len(r.all())
	time.Sleep(20 * testTick)
	assert.Len(t, r.all(), count)
	assert.Equal(t, 0, c.Snapshot().Progress)
}

func TestAcquisitionRejectedWhileBusy(t *testing.T) {
	proc := newFakeProcessor()
	picker := &fakePicker{path: "other.pdf"}
	c, _ := newTestController(t, picker, proc, Options{DoneHold: time.Hour})

	require.True(t, c.Drop([]DropItem{pdfItem("report.pdf")}))
	require.True(t, c.Process())

	assert.False(t, c.Drop([]DropItem{pdfItem("other.pdf")}))
	assert.False(t, c.PickFile(context.Background()))
	assert.Equal(t, "report.pdf", c.Snapshot().SourcePath)
	assert.Equal(t, PhaseProcessing, c.Snapshot().Phase)

	close(proc.release)
	waitPhase(t, c, PhaseDone)
	assert.False(t, c.Drop([]DropItem{pdfItem("other.pdf")}))
	assert.Equal(t, PhaseDone, c.Snapshot().Phase)
	assert.Empty(t, picker.filters)
}

func TestCancel(t *testing.T) {
	proc := newFakeProcessor()
	journal := &fakeJournal{}
	c, r := newTestController(t, &fakePicker{}, proc, Options{Journal: journal})

	assert.False(t, c.Cancel())

	require.True(t, c.Drop([]DropItem{pdfItem("report.pdf")}))
	require.True(t, c.Process())
	require.True(t, c.Cancel())

	waitPhase(t, c, PhaseIdle)
	assert.ErrorIs(t, c.Snapshot().Err, context.Canceled)
	assert.NotContains(t, r.phases(), PhaseDone)
	require.Len(t, journal.finished(), 1)
	assert.Equal(t, "failed", journal.finished()[0].status)
}

func TestTimeout(t *testing.T) {
	proc := newFakeProcessor()
	c, _ := newTestController(t, &fakePicker{}, proc, Options{Timeout: 20 * time.Millisecond})

	require.True(t, c.Drop([]DropItem{pdfItem("report.pdf")}))
	require.True(t, c.Process())

	waitPhase(t, c, PhaseIdle)
	assert.ErrorIs(t, c.Snapshot().Err, context.DeadlineExceeded)
}

func TestPickFile_Selected(t *testing.T) {
	picker := &fakePicker{path: "/docs/report.pdf"}
	c, r := newTestController(t, picker, newFakeProcessor(), Options{})

	require.True(t, c.PickFile(context.Background()))
	assert.Equal(t, PhaseReady, c.Snapshot().Phase)
	assert.Equal(t, "/docs/report.pdf", c.Snapshot().SourcePath)
	assert.Equal(t, []Phase{PhaseSelecting, PhaseReady}, r.phases())

	require.Len(t, picker.filters, 1)
	assert.Equal(t, FileFilter{Name: "PDF", Extensions: []string{"pdf"}, Multiple: false}, picker.filters[0])
}

func TestPickFile_NothingChosen(t *testing.T) {
	c, r := newTestController(t, &fakePicker{}, newFakeProcessor(), Options{})

	assert.False(t, c.PickFile(context.Background()))
	assert.Equal(t, Snapshot{Phase: PhaseIdle}, c.Snapshot())
	assert.Empty(t, r.Notices())
}

func TestPickFile_KeepsPreviousSelection(t *testing.T) {
	c, _ := newTestController(t, &fakePicker{}, newFakeProcessor(), Options{})

	require.True(t, c.Drop([]DropItem{pdfItem("report.pdf")}))
	assert.False(t, c.PickFile(context.Background()))
	assert.Equal(t, PhaseReady, c.Snapshot().Phase)
	assert.Equal(t, "report.pdf", c.Snapshot().SourcePath)
}

func TestPickFile_Failure(t *testing.T) {
	picker := &fakePicker{err: errors.New("no display")}
	c, r := newTestController(t, picker, newFakeProcessor(), Options{})

	assert.False(t, c.PickFile(context.Background()))
	assert.Equal(t, PhaseIdle, c.Snapshot().Phase)
	require.Len(t, r.Notices(), 1)
	assert.Contains(t, r.Notices()[0], "no display")
}

func TestPickFile_OneAtATime(t *testing.T) {
	picker := &fakePicker{path: "report.pdf", block: make(chan struct{})}
	c, _ := newTestController(t, picker, newFakeProcessor(), Options{})

	result := make(chan bool, 1)
	go func() { result <- c.PickFile(context.Background()) }()
	waitPhase(t, c, PhaseSelecting)

	assert.False(t, c.PickFile(context.Background()))
	assert.False(t, c.Drop([]DropItem{pdfItem("other.pdf")}))
	assert.False(t, c.Process())

	close(picker.block)
	assert.True(t, <-result)
	assert.Equal(t, "report.pdf", c.Snapshot().SourcePath)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "selecting", PhaseSelecting.String())
	assert.Equal(t, "ready", PhaseReady.String())
	assert.Equal(t, "processing", PhaseProcessing.String())
	assert.Equal(t, "done", PhaseDone.String())
	assert.Equal(t, "failed", PhaseFailed.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
