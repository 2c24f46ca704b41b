// Package session drives one upload at a time: it accepts a PDF from a
// drop or the file picker, hands it to the processor and publishes
// synthetic progress while the processor runs.
package session

import "context"

// Phase is the lifecycle position of the current upload
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSelecting
	PhaseReady
	PhaseProcessing
	PhaseDone
	// PhaseFailed is only ever written to the journal; the controller
	// itself goes straight back to idle after a failure.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSelecting:
		return "selecting"
	case PhaseReady:
		return "ready"
	case PhaseProcessing:
		return "processing"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// MediaTypePDF is the only media type a drop is accepted with
const MediaTypePDF = "application/pdf"

// Snapshot is an immutable view of the controller state
type Snapshot struct {
	Phase      Phase
	SourcePath string
	Progress   int
	DragActive bool
	// Content is the processor result of the last successful run
	Content string
	// Err is the error of the last failed run
	Err error
}

// DropItem is one entry of a drop payload
type DropItem struct {
	Name      string
	Path      string
	MediaType string
}

// Source returns the identifier recorded as the source path
func (i DropItem) Source() string {
	if i.Path != "" {
		return i.Path
	}
	return i.Name
}

// FileFilter restricts what the picker offers
type FileFilter struct {
	Name       string
	Extensions []string
	Multiple   bool
}

// PDFFilter allows selecting a single .pdf file
func PDFFilter() FileFilter {
	return FileFilter{Name: "PDF", Extensions: []string{"pdf"}, Multiple: false}
}

// FilePicker opens a native file chooser. An empty path with a nil error
// means the user closed it without choosing anything.
type FilePicker interface {
	PickFile(ctx context.Context, filter FileFilter) (string, error)
}

// Processor does the actual work for a selected file
type Processor interface {
	ProcessDocument(ctx context.Context, path string) (string, error)
}

// Journal records upload sessions, see db.DB
type Journal interface {
	UploadStarted(ctx context.Context, id, sourcePath string) error
	UploadFinished(ctx context.Context, id, status, detail string) error
}
