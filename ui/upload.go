package ui

import (
	"context"
	"fmt"
	"path/filepath"

	"pdf-vector-uploader/session"
	"pdf-vector-uploader/utils"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// dropZone is the framed area a PDF is dropped on or clicked to browse.
// Fyne reports only the drop itself, so pointer presence over the zone
// drives the enter/over/leave signals.
type dropZone struct {
	widget.BaseWidget
	controller *session.Controller
	onTap      func()

	frame *canvas.Rectangle
	hint  *widget.Label
}

var (
	_ desktop.Hoverable = (*dropZone)(nil)
	_ fyne.Tappable     = (*dropZone)(nil)
)

func newDropZone(controller *session.Controller, onTap func()) *dropZone {
	z := &dropZone{
		controller: controller,
		onTap:      onTap,
		frame:      canvas.NewRectangle(theme.Color(theme.ColorNameInputBackground)),
		hint:       widget.NewLabelWithStyle("Drop a PDF here or click to browse", fyne.TextAlignCenter, fyne.TextStyle{}),
	}
	z.frame.StrokeWidth = 2
	z.frame.StrokeColor = theme.Color(colorNameDropZone)
	z.frame.CornerRadius = theme.Size(theme.SizeNameInputRadius)
	z.ExtendBaseWidget(z)
	return z
}

func (z *dropZone) CreateRenderer() fyne.WidgetRenderer {
	icon := widget.NewIcon(theme.UploadIcon())
	content := container.NewCenter(container.NewVBox(icon, z.hint))
	return widget.NewSimpleRenderer(container.NewStack(z.frame, content))
}

func (z *dropZone) MinSize() fyne.Size {
	return fyne.NewSize(320, 180)
}

func (z *dropZone) MouseIn(*desktop.MouseEvent)    { z.controller.DragEnter() }
func (z *dropZone) MouseMoved(*desktop.MouseEvent) { z.controller.DragOver() }
func (z *dropZone) MouseOut()                      { z.controller.DragLeave() }

func (z *dropZone) Tapped(*fyne.PointEvent) {
	if z.onTap != nil {
		z.onTap()
	}
}

func (z *dropZone) setActive(active bool) {
	if active {
		z.frame.StrokeColor = theme.Color(colorNameDropZoneActive)
	} else {
		z.frame.StrokeColor = theme.Color(colorNameDropZone)
	}
	z.frame.Refresh()
}

// sourceLabel caches the text shown for the selected file so progress
// ticks do not stat it again
type sourceLabel struct {
	fileSize func(string) (int64, error)

	path string
	text string
}

func (l *sourceLabel) textFor(path string) string {
	if path == "" {
		return "No file selected"
	}
	if path == l.path {
		return l.text
	}

	text := filepath.Base(path)
	if size, err := l.fileSize(path); err == nil {
		text = fmt.Sprintf("%s (%s)", text, utils.FormatFileSize(size))
	}
	l.path, l.text = path, text
	return text
}

// UploadPanel shows the selected file, the process action and progress
type UploadPanel struct {
	app        *App
	controller *session.Controller

	zone          *dropZone
	fileLabel     *widget.Label
	statusLabel   *widget.Label
	progress      *widget.ProgressBar
	chooseButton  *widget.Button
	processButton *widget.Button
	cancelButton  *widget.Button

	source    sourceLabel
	lastPhase session.Phase
}

// NewUploadPanel creates the panel and subscribes it to the controller
func NewUploadPanel(app *App, controller *session.Controller) *UploadPanel {
	p := &UploadPanel{
		app:        app,
		controller: controller,
		source:     sourceLabel{fileSize: utils.GetFileSize},
	}

	controller.OnChange(func(s session.Snapshot) {
		fyne.Do(func() { p.render(s) })
	})
	controller.OnNotice(func(msg string) {
		fyne.Do(func() { p.app.showError(msg) })
	})
	return p
}

// Build builds the panel UI
func (p *UploadPanel) Build() fyne.CanvasObject {
	p.zone = newDropZone(p.controller, p.choose)

	p.fileLabel = widget.NewLabel("")
	p.fileLabel.Truncation = fyne.TextTruncateEllipsis
	p.statusLabel = widget.NewLabel("")
	p.statusLabel.Wrapping = fyne.TextWrapWord

	p.progress = widget.NewProgressBar()
	p.progress.Min = 0
	p.progress.Max = 100

	p.chooseButton = widget.NewButtonWithIcon("Choose PDF", theme.FolderOpenIcon(), p.choose)

	p.processButton = widget.NewButtonWithIcon("Process", theme.UploadIcon(), func() {
		p.controller.Process()
	})
	p.processButton.Importance = widget.HighImportance

	p.cancelButton = widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), func() {
		p.controller.Cancel()
	})

	p.render(p.controller.Snapshot())

	return container.NewBorder(
		nil,
		container.NewVBox(
			p.fileLabel,
			p.progress,
			p.statusLabel,
			container.NewHBox(p.chooseButton, p.processButton, p.cancelButton),
		),
		nil, nil,
		p.zone,
	)
}

// choose opens the file picker without blocking the UI thread
func (p *UploadPanel) choose() {
	utils.SafeGo(p.app.logger, "pickFile", func() {
		p.controller.PickFile(context.Background())
	})
}

// render applies a controller snapshot; it must run on the UI thread
func (p *UploadPanel) render(s session.Snapshot) {
	if p.zone == nil {
		return
	}
	p.zone.setActive(s.DragActive)

	p.fileLabel.SetText(p.source.textFor(s.SourcePath))

	switch s.Phase {
	case session.PhaseProcessing, session.PhaseDone:
		p.progress.Show()
		p.progress.SetValue(float64(s.Progress))
	default:
		p.progress.SetValue(0)
		p.progress.Hide()
	}

	switch s.Phase {
	case session.PhaseSelecting:
		p.statusLabel.SetText("Waiting for a file...")
	case session.PhaseReady:
		p.statusLabel.SetText("Ready to process")
	case session.PhaseProcessing:
		p.statusLabel.SetText(fmt.Sprintf("Processing... %d%%", s.Progress))
	case session.PhaseDone:
		p.statusLabel.SetText(s.Content)
	default:
		if s.Err != nil {
			p.statusLabel.SetText("Last run failed: " + s.Err.Error())
		} else {
			p.statusLabel.SetText("")
		}
	}

	if s.Phase == session.PhaseReady {
		p.processButton.Enable()
	} else {
		p.processButton.Disable()
	}
	if s.Phase == session.PhaseIdle || s.Phase == session.PhaseReady {
		p.chooseButton.Enable()
	} else {
		p.chooseButton.Disable()
	}
	if s.Phase == session.PhaseProcessing {
		p.cancelButton.Show()
	} else {
		p.cancelButton.Hide()
	}

	// a run just ended, the journal has a new entry
	if p.lastPhase == session.PhaseProcessing && s.Phase != session.PhaseProcessing {
		p.app.historyView.Refresh()
	}
	p.lastPhase = s.Phase
}
