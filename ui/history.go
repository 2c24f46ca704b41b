package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"pdf-vector-uploader/db"
	"pdf-vector-uploader/utils"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const historyPageSize = 100

// HistoryView lists past upload sessions from the journal
type HistoryView struct {
	app    *App
	window fyne.Window

	mu      sync.Mutex
	uploads []*db.Upload

	list       *widget.List
	statsLabel *widget.Label
}

// NewHistoryView creates a new history view
func NewHistoryView(app *App) *HistoryView {
	return &HistoryView{app: app}
}

// Show opens the history window
func (hv *HistoryView) Show() {
	if hv.window != nil {
		hv.window.RequestFocus()
		return
	}

	hv.window = hv.app.fyneApp.NewWindow("Upload History")
	hv.window.SetContent(hv.Build())
	hv.window.Resize(fyne.NewSize(640, 480))
	hv.window.SetOnClosed(func() {
		hv.window = nil
		hv.list = nil
		hv.statsLabel = nil
	})
	hv.window.Show()
	hv.Refresh()
}

// Build builds the history UI
func (hv *HistoryView) Build() fyne.CanvasObject {
	hv.list = widget.NewList(
		func() int {
			hv.mu.Lock()
			defer hv.mu.Unlock()
			return len(hv.uploads)
		},
		func() fyne.CanvasObject {
			title := widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
			detail := widget.NewLabel("")
			detail.Truncation = fyne.TextTruncateEllipsis
			return container.NewVBox(title, detail)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			hv.mu.Lock()
			if id >= len(hv.uploads) {
				hv.mu.Unlock()
				return
			}
			u := hv.uploads[id]
			hv.mu.Unlock()

			box := obj.(*fyne.Container)
			box.Objects[0].(*widget.Label).SetText(fmt.Sprintf("%s  %s  [%s]",
				u.StartedAt.Local().Format("2006-01-02 15:04"), filepath.Base(u.SourcePath), u.Status))
			box.Objects[1].(*widget.Label).SetText(u.Detail)
		},
	)

	hv.statsLabel = widget.NewLabel("")

	refreshButton := widget.NewButton("Refresh", func() {
		hv.Refresh()
	})

	vacuumButton := widget.NewButton("Optimize Database", func() {
		hv.vacuumDatabase()
	})

	clearButton := widget.NewButton("Clear History", func() {
		dialog.ShowConfirm("Clear History", "Delete all upload history entries?", func(ok bool) {
			if ok {
				hv.clearHistory()
			}
		}, hv.window)
	})
	clearButton.Importance = widget.DangerImportance

	return container.NewBorder(
		nil,
		container.NewVBox(
			widget.NewSeparator(),
			hv.statsLabel,
			container.NewHBox(refreshButton, vacuumButton, clearButton),
		),
		nil, nil,
		hv.list,
	)
}

// Refresh reloads the journal in the background
func (hv *HistoryView) Refresh() {
	utils.SafeGo(hv.app.logger, "refreshHistory", func() {
		uploads, err := hv.app.db.ListUploads(context.Background(), historyPageSize, 0)
		if err != nil {
			hv.app.logger.Error("Failed to load upload history: %v", err)
			return
		}
		stats, err := hv.app.db.GetStats()
		if err != nil {
			hv.app.logger.Error("Failed to get DB stats: %v", err)
		}

		hv.mu.Lock()
		hv.uploads = uploads
		hv.mu.Unlock()

		fyne.Do(func() {
			if hv.list != nil {
				hv.list.Refresh()
			}
			if hv.statsLabel != nil {
				hv.statsLabel.SetText(formatStats(stats))
			}
		})
	})
}

func formatStats(stats *db.DBStats) string {
	if stats == nil {
		return "Statistics unavailable"
	}
	return fmt.Sprintf("Uploads: %d  Failed: %d  Database size: %s",
		stats.UploadCount, stats.FailedCount, utils.FormatFileSize(stats.DBSizeBytes))
}

func (hv *HistoryView) clearHistory() {
	if err := hv.app.db.ClearUploads(context.Background()); err != nil {
		hv.app.logger.Error("Failed to clear upload history: %v", err)
		hv.showError("Failed to clear history: " + err.Error())
		return
	}
	hv.app.logger.Info("Upload history cleared")
	hv.Refresh()
}

func (hv *HistoryView) vacuumDatabase() {
	hv.app.logger.Info("Starting database vacuum...")

	if err := hv.app.db.Vacuum(); err != nil {
		hv.app.logger.Error("Failed to vacuum database: %v", err)
		hv.showError("Optimization failed: " + err.Error())
		return
	}

	hv.app.logger.Info("Database vacuum completed")
	hv.Refresh()
}

func (hv *HistoryView) showError(message string) {
	if hv.window == nil {
		hv.app.showError(message)
		return
	}
	showMessage(hv.window.Canvas(), "Error", message)
}
