package ui

import (
	"context"
	"errors"
	"time"

	"pdf-vector-uploader/llm"
	"pdf-vector-uploader/settings"
	"pdf-vector-uploader/utils"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

var fieldLabels = map[settings.Field]string{
	settings.FieldOpenAIAPIKey:      "OpenAI API Key",
	settings.FieldPineconeAPIKey:    "Pinecone API Key",
	settings.FieldPineconeIndexHost: "Pinecone Index Host",
	settings.FieldPineconeNamespace: "Pinecone Namespace",
}

var fieldHints = map[settings.Field]string{
	settings.FieldOpenAIAPIKey:      "sk-...",
	settings.FieldPineconeAPIKey:    "pcsk_...",
	settings.FieldPineconeIndexHost: "my-index-abc123.svc.aped-1234.pinecone.io",
	settings.FieldPineconeNamespace: settings.DefaultNamespace,
}

func isSecretField(f settings.Field) bool {
	return f == settings.FieldOpenAIAPIKey || f == settings.FieldPineconeAPIKey
}

// SettingsView is the settings window bound to one edit session
type SettingsView struct {
	app         *App
	window      fyne.Window
	editSession *settings.EditSession
	open        bool

	entries    map[settings.Field]*widget.Entry
	saveButton *widget.Button
	testButton *widget.Button
	statusText *widget.Label
}

// NewSettingsView creates a view over a freshly opened edit session
func NewSettingsView(app *App, editSession *settings.EditSession) *SettingsView {
	return &SettingsView{
		app:         app,
		editSession: editSession,
		entries:     make(map[settings.Field]*widget.Entry),
	}
}

// Show builds and shows the settings window
func (sv *SettingsView) Show() {
	sv.window = sv.app.fyneApp.NewWindow("Settings")
	sv.window.SetContent(sv.Build())
	sv.window.Resize(fyne.NewSize(560, 320))
	sv.window.SetCloseIntercept(func() {
		sv.cancel()
	})
	sv.open = true
	sv.window.Show()
}

// IsOpen reports whether the window is still showing
func (sv *SettingsView) IsOpen() bool {
	return sv.open
}

// Focus brings the window to the front
func (sv *SettingsView) Focus() {
	if sv.window != nil {
		sv.window.RequestFocus()
	}
}

// Build builds the settings form
func (sv *SettingsView) Build() fyne.CanvasObject {
	draft := sv.editSession.Draft()
	form := widget.NewForm()

	for _, field := range settings.Fields {
		field := field
		var entry *widget.Entry
		if isSecretField(field) {
			entry = widget.NewPasswordEntry()
		} else {
			entry = widget.NewEntry()
		}
		entry.SetPlaceHolder(fieldHints[field])
		entry.SetText(draft.Get(field))
		entry.OnChanged = func(value string) {
			if err := sv.editSession.Set(field, value); err != nil {
				sv.app.logger.Warn("Failed to update %s: %v", field, err)
			}
		}
		sv.entries[field] = entry
		form.Append(fieldLabels[field], entry)
	}

	sv.saveButton = widget.NewButton("Save", func() {
		sv.save()
	})
	sv.saveButton.Importance = widget.HighImportance

	cancelButton := widget.NewButton("Cancel", func() {
		sv.cancel()
	})

	sv.testButton = widget.NewButton("Test OpenAI Connection", func() {
		sv.testConnection()
	})

	sv.statusText = widget.NewLabel("")
	sv.statusText.Wrapping = fyne.TextWrapWord

	return container.NewBorder(
		nil,
		container.NewVBox(
			sv.statusText,
			container.NewHBox(sv.testButton, layout.NewSpacer(), cancelButton, sv.saveButton),
		),
		nil, nil,
		container.NewPadded(form),
	)
}

// save commits the draft; on failure the window stays open with the
// edited values so the user can retry
func (sv *SettingsView) save() {
	sv.saveButton.Disable()
	sv.statusText.SetText("Saving...")

	utils.SafeGo(sv.app.logger, "saveSettings", func() {
		err := sv.editSession.Commit(context.Background())
		fyne.Do(func() {
			sv.saveButton.Enable()
			if err != nil {
				sv.statusText.SetText("")
				sv.showError("Failed to save settings: " + err.Error())
				return
			}
			sv.close()
			sv.app.showSuccess("Settings saved")
		})
	})
}

func (sv *SettingsView) cancel() {
	sv.editSession.Discard()
	sv.close()
}

func (sv *SettingsView) close() {
	sv.open = false
	if sv.window != nil {
		sv.window.Close()
	}
}

// testConnection pings OpenAI with the key currently in the draft. It
// never blocks saving.
func (sv *SettingsView) testConnection() {
	draft := sv.editSession.Draft()
	cfg := sv.app.config.Processing

	embedder := llm.NewOpenAIEmbedder(llm.Config{
		APIKey:     draft.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.EmbeddingModel,
		Attempts:   1,
		HTTPClient: sv.app.httpClient,
	}, sv.app.logger)

	sv.testButton.Disable()
	sv.statusText.SetText("Testing connection...")
	sv.app.logger.Info("Testing OpenAI connection with key %s", utils.MaskSecret(draft.OpenAIAPIKey))

	utils.SafeGo(sv.app.logger, "testConnection", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := embedder.Ping(ctx)

		fyne.Do(func() {
			sv.testButton.Enable()
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					sv.statusText.SetText("Connection test timed out")
				} else {
					sv.statusText.SetText("Connection test failed: " + err.Error())
				}
				sv.app.logger.Warn("OpenAI connection test failed: %v", err)
				return
			}
			sv.statusText.SetText("Connection test successful")
			sv.app.logger.Info("OpenAI connection test successful")
		})
	})
}

func (sv *SettingsView) showError(message string) {
	if sv.window == nil {
		sv.app.showError(message)
		return
	}
	showMessage(sv.window.Canvas(), "Error", message)
}
