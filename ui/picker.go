package ui

import (
	"context"
	"strings"

	"pdf-vector-uploader/session"
	"pdf-vector-uploader/utils"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// filePicker shows the Fyne open dialog on the UI thread and hands the
// result back to the waiting goroutine
type filePicker struct {
	window fyne.Window
	logger *utils.Logger
}

func newFilePicker(window fyne.Window, logger *utils.Logger) *filePicker {
	return &filePicker{window: window, logger: logger}
}

type pickResult struct {
	path string
	err  error
}

// PickFile must not be called from the UI thread
func (p *filePicker) PickFile(ctx context.Context, filter session.FileFilter) (string, error) {
	if filter.Multiple {
		p.logger.Warn("Multiple selection is not supported by the open dialog, picking one file")
	}

	results := make(chan pickResult, 1)
	fyne.Do(func() {
		fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil {
				results <- pickResult{err: err}
				return
			}
			if reader == nil {
				results <- pickResult{} // cancelled
				return
			}
			path := reader.URI().Path()
			reader.Close()
			p.logger.Info("Selected file: %s", path)
			results <- pickResult{path: path}
		}, p.window)

		if exts := dottedExtensions(filter.Extensions); len(exts) > 0 {
			fileDialog.SetFilter(storage.NewExtensionFileFilter(exts))
		}
		fileDialog.Resize(fyne.NewSize(720, 480))
		fileDialog.Show()
	})

	select {
	case r := <-results:
		return r.path, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func dottedExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, strings.ToLower(e))
	}
	return out
}
