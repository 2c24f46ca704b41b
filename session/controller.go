package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pdf-vector-uploader/utils"
)

// Controller owns the select, process and report lifecycle of one
// upload panel. All methods are safe for concurrent use.
//
// OnChange and OnNotice callbacks are invoked one at a time, in order, and
// never while the state lock is held. They must not call back into the
// controller synchronously.
type Controller struct {
	picker    FilePicker
	processor Processor
	opts      Options
	logger    *utils.Logger

	baseCtx   context.Context
	closeBase context.CancelFunc
	runs      sync.WaitGroup

	// notifyMu keeps callbacks in the same order as state changes
	notifyMu sync.Mutex
	onChange func(Snapshot)
	onNotice func(string)

	mu         sync.Mutex
	state      Snapshot
	prevPhase  Phase
	generation uint64
	sessionID  string
	cancelRun  context.CancelFunc
}

// NewController creates a controller in the idle phase
func NewController(picker FilePicker, processor Processor, opts Options) *Controller {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		picker:    picker,
		processor: processor,
		opts:      opts,
		logger:    opts.Logger,
		baseCtx:   ctx,
		closeBase: cancel,
		state:     Snapshot{Phase: PhaseIdle},
	}
}

// OnChange registers the state observer
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.notifyMu.Lock()
	c.onChange = fn
	c.notifyMu.Unlock()
}

// OnNotice registers the observer for user facing messages
func (c *Controller) OnNotice(fn func(string)) {
	c.notifyMu.Lock()
	c.onNotice = fn
	c.notifyMu.Unlock()
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the ID of the current or last run
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// update applies fn under the state lock and publishes the result. fn
// reports whether the state changed and an optional notice.
func (c *Controller) update(fn func() (bool, string)) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	changed, notice := fn()
	snap := c.state
	c.mu.Unlock()

	if changed && c.onChange != nil {
		c.onChange(snap)
	}
	if notice != "" && c.onNotice != nil {
		c.onNotice(notice)
	}
}

// DragEnter marks the drop zone active
func (c *Controller) DragEnter() { c.setDragActive(true) }

// DragOver keeps the drop zone active
func (c *Controller) DragOver() { c.setDragActive(true) }

// DragLeave clears the drop zone highlight
func (c *Controller) DragLeave() { c.setDragActive(false) }

func (c *Controller) setDragActive(active bool) {
	c.update(func() (bool, string) {
		if c.state.DragActive == active {
			return false, ""
		}
		c.state.DragActive = active
		return true, ""
	})
}

// Drop handles a drop payload. Only the first item is considered and it
// must declare exactly application/pdf. Returns true when the file was
// accepted.
func (c *Controller) Drop(items []DropItem) bool {
	accepted := false
	c.update(func() (bool, string) {
		changed := c.state.DragActive
		c.state.DragActive = false

		if len(items) == 0 {
			return changed, ""
		}
		first := items[0]
		if first.MediaType != MediaTypePDF {
			c.logger.Info("Rejected drop of %q with media type %q", first.Source(), first.MediaType)
			return changed, "Please drop a PDF file"
		}
		if !c.acquireLocked(first.Source()) {
			return changed, ""
		}
		accepted = true
		return true, ""
	})
	return accepted
}

// acquireLocked makes path the selected file unless a run is in flight
func (c *Controller) acquireLocked(path string) bool {
	switch c.state.Phase {
	case PhaseIdle, PhaseReady:
	default:
		c.logger.Warn("Ignoring %s while %s", path, c.state.Phase)
		return false
	}
	c.state.Phase = PhaseReady
	c.state.SourcePath = path
	c.state.Progress = 0
	c.state.Content = ""
	c.state.Err = nil
	c.logger.Info("Selected %s", path)
	return true
}

// PickFile opens the picker restricted to single PDF files and blocks
// until it is closed. Returns true when a file was selected.
func (c *Controller) PickFile(ctx context.Context) bool {
	opened := false
	c.update(func() (bool, string) {
		switch c.state.Phase {
		case PhaseIdle, PhaseReady:
		default:
			c.logger.Warn("Ignoring file picker request while %s", c.state.Phase)
			return false, ""
		}
		c.prevPhase = c.state.Phase
		c.state.Phase = PhaseSelecting
		opened = true
		return true, ""
	})
	if !opened {
		return false
	}

	path, err := c.pick(ctx)

	selected := false
	c.update(func() (bool, string) {
		if c.state.Phase != PhaseSelecting {
			return false, ""
		}
		c.state.Phase = c.prevPhase
		if err != nil {
			c.logger.Error("File picker failed: %v", err)
			return true, fmt.Sprintf("Could not open the file picker: %v", err)
		}
		if path == "" {
			c.logger.Debug("File picker closed without a selection")
			return true, ""
		}
		selected = c.acquireLocked(path)
		return true, ""
	})
	return selected
}

func (c *Controller) pick(ctx context.Context) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("file picker panic: %v", r)
		}
	}()
	return c.picker.PickFile(ctx, PDFFilter())
}

// Process starts processing the selected file. It is a no-op returning
// false unless the controller is ready.
func (c *Controller) Process() bool {
	var (
		gen  uint64
		id   string
		path string
		ctx  context.Context
	)
	c.update(func() (bool, string) {
		if c.state.Phase != PhaseReady || c.state.SourcePath == "" {
			return false, ""
		}
		c.generation++
		gen = c.generation
		id = uuid.New().String()
		c.sessionID = id
		path = c.state.SourcePath

		var cancel context.CancelFunc
		if c.opts.Timeout > 0 {
			ctx, cancel = context.WithTimeout(c.baseCtx, c.opts.Timeout)
		} else {
			ctx, cancel = context.WithCancel(c.baseCtx)
		}
		c.cancelRun = cancel

		c.state.Phase = PhaseProcessing
		c.state.Progress = 0
		c.state.Content = ""
		c.state.Err = nil
		return true, ""
	})
	if ctx == nil {
		c.logger.Debug("Process ignored, nothing ready")
		return false
	}

	c.runs.Add(1)
	utils.SafeGo(c.logger, "upload session "+id, func() {
		defer c.runs.Done()
		c.run(ctx, gen, id, path)
	})
	return true
}

// Cancel aborts the run in flight. The run ends as a failure.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase != PhaseProcessing || c.cancelRun == nil {
		return false
	}
	c.logger.Info("Cancelling upload session %s", c.sessionID)
	c.cancelRun()
	return true
}

// Close aborts any run and waits for background work to finish
func (c *Controller) Close() {
	c.closeBase()
	c.runs.Wait()
}

func (c *Controller) run(ctx context.Context, gen uint64, id, path string) {
	c.logger.Info("Upload session %s started for %s", id, path)
	c.journalStarted(id, path)

	ticker := c.startTicker(gen)
	content, err := c.callProcessor(ctx, path)
	ticker.Stop()

	c.mu.Lock()
	if c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
	c.mu.Unlock()

	if err != nil {
		c.fail(gen, id, err)
		return
	}
	c.succeed(gen, id, content)
}

func (c *Controller) callProcessor(ctx context.Context, path string) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	content, err = c.processor.ProcessDocument(ctx, path)
	if err == nil && ctx.Err() != nil {
		// a late result after cancel or timeout is discarded
		err = ctx.Err()
	}
	return content, err
}

func (c *Controller) fail(gen uint64, id string, err error) {
	c.logger.Error("Upload session %s failed: %v", id, err)
	c.journalFinished(id, PhaseFailed, err.Error())

	c.update(func() (bool, string) {
		if c.generation != gen || c.state.Phase != PhaseProcessing {
			return false, ""
		}
		c.state.Phase = PhaseIdle
		c.state.SourcePath = ""
		c.state.Progress = 0
		c.state.Err = err
		return true, fmt.Sprintf("Processing failed: %v", err)
	})
}

func (c *Controller) succeed(gen uint64, id, content string) {
	c.logger.Info("Upload session %s done: %s", id, content)
	c.journalFinished(id, PhaseDone, content)

	done := false
	c.update(func() (bool, string) {
		if c.generation != gen || c.state.Phase != PhaseProcessing {
			return false, ""
		}
		c.state.Phase = PhaseDone
		c.state.Progress = 100
		c.state.Content = content
		done = true
		return true, ""
	})
	if !done {
		return
	}

	hold := time.NewTimer(c.opts.DoneHold)
	defer hold.Stop()
	select {
	case <-hold.C:
	case <-c.baseCtx.Done():
	}

	c.update(func() (bool, string) {
		if c.generation != gen || c.state.Phase != PhaseDone {
			return false, ""
		}
		c.state.Phase = PhaseIdle
		c.state.SourcePath = ""
		c.state.Progress = 0
		return true, ""
	})
}

// advance is one synthetic progress step. Ticks from an older run or
// outside processing are dropped.
func (c *Controller) advance(gen uint64) {
	c.update(func() (bool, string) {
		if c.generation != gen || c.state.Phase != PhaseProcessing {
			return false, ""
		}
		next := c.state.Progress + c.opts.TickStep
		if next > c.opts.ProgressCap {
			next = c.opts.ProgressCap
		}
		if next == c.state.Progress {
			return false, ""
		}
		c.state.Progress = next
		return true, ""
	})
}

func (c *Controller) journalStarted(id, path string) {
	if c.opts.Journal == nil {
		return
	}
	if err := c.opts.Journal.UploadStarted(context.Background(), id, path); err != nil {
		c.logger.Warn("Failed to journal upload start %s: %v", id, err)
	}
}

func (c *Controller) journalFinished(id string, status Phase, detail string) {
	if c.opts.Journal == nil {
		return
	}
	if err := c.opts.Journal.UploadFinished(context.Background(), id, status.String(), detail); err != nil {
		c.logger.Warn("Failed to journal upload result %s: %v", id, err)
	}
}
