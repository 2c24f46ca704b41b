package ui

import (
	"context"
	"net/http"
	"path/filepath"

	"pdf-vector-uploader/db"
	"pdf-vector-uploader/session"
	"pdf-vector-uploader/settings"
	"pdf-vector-uploader/utils"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// App represents the main application
type App struct {
	fyneApp    fyne.App
	window     fyne.Window
	config     *utils.Config
	configPath string
	db         *db.DB
	logger     *utils.Logger
	httpClient *http.Client

	store      *settings.Store
	editor     *settings.Editor
	controller *session.Controller

	// UI components
	uploadPanel  *UploadPanel
	settingsView *SettingsView
	historyView  *HistoryView

	settingsOpening pendingOpen
}

// pendingOpen marks a window whose content is still loading in the
// background, so a second request does not open another one. Only the UI
// thread touches it.
type pendingOpen struct {
	pending bool
}

func (p *pendingOpen) begin() bool {
	if p.pending {
		return false
	}
	p.pending = true
	return true
}

func (p *pendingOpen) done() {
	p.pending = false
}

// Deps are the collaborators the window binds to
type Deps struct {
	Config     *utils.Config
	ConfigPath string
	DB         *db.DB
	Store      *settings.Store
	Processor  session.Processor
	HTTPClient *http.Client
	Logger     *utils.Logger
}

// NewApp creates a new application instance
func NewApp(deps Deps) *App {
	fyneApp := app.NewWithID("com.github." + utils.AppName)
	window := fyneApp.NewWindow("PDF Vector Uploader")

	// Set window size from config
	window.Resize(fyne.NewSize(
		float32(deps.Config.UI.WindowWidth),
		float32(deps.Config.UI.WindowHeight),
	))

	application := &App{
		fyneApp:    fyneApp,
		window:     window,
		config:     deps.Config,
		configPath: deps.ConfigPath,
		db:         deps.DB,
		logger:     deps.Logger,
		httpClient: deps.HTTPClient,
		store:      deps.Store,
		editor:     settings.NewEditor(deps.Store),
	}

	application.controller = session.NewController(
		newFilePicker(window, deps.Logger),
		deps.Processor,
		session.Options{
			Timeout: deps.Config.Processing.Timeout(),
			Journal: deps.DB,
			Logger:  deps.Logger.With("session"),
		},
	)

	// Save window size when closing
	window.SetOnClosed(func() {
		size := window.Canvas().Size()
		application.config.UI.WindowWidth = int(size.Width)
		application.config.UI.WindowHeight = int(size.Height)
		if err := utils.SaveConfig(application.configPath, application.config); err != nil {
			application.logger.Error("Failed to save window size: %v", err)
		} else {
			application.logger.Info("Window size saved: %dx%d", application.config.UI.WindowWidth, application.config.UI.WindowHeight)
		}
	})

	application.applyThemeFromConfig()
	application.buildUI()
	application.SetupSystemTray()

	if application.config.UI.MinimizeToTray {
		application.EnableMinimizeToTray()
		application.logger.Info("Minimize to tray enabled")
	}

	return application
}

// buildUI builds the main UI
func (a *App) buildUI() {
	a.uploadPanel = NewUploadPanel(a, a.controller)
	a.historyView = NewHistoryView(a)

	settingsButton := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		a.showSettings()
	})
	settingsButton.Importance = widget.LowImportance

	historyButton := widget.NewButtonWithIcon("", theme.HistoryIcon(), func() {
		a.showHistory()
	})
	historyButton.Importance = widget.LowImportance

	title := widget.NewLabelWithStyle("Upload a PDF to the vector index", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	header := container.NewBorder(nil, nil, nil, container.NewHBox(historyButton, settingsButton), title)

	a.window.SetContent(container.NewBorder(
		container.NewVBox(header, widget.NewSeparator()),
		nil, nil, nil,
		container.NewPadded(a.uploadPanel.Build()),
	))

	// Dropped files arrive with their URI; the declared media type is
	// what the URI reports for its extension.
	a.window.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		items := make([]session.DropItem, 0, len(uris))
		for _, u := range uris {
			items = append(items, session.DropItem{
				Name:      u.Name(),
				Path:      u.Path(),
				MediaType: u.MimeType(),
			})
		}
		a.logger.Info("Dropped %d item(s)", len(items))
		a.controller.Drop(items)
	})

	a.setupKeyboardShortcuts()
}

// setupKeyboardShortcuts sets up global keyboard shortcuts
func (a *App) setupKeyboardShortcuts() {
	// Ctrl+O: Choose a PDF
	a.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyO,
		Modifier: desktop.ControlModifier,
	}, func(shortcut fyne.Shortcut) {
		a.logger.Info("Keyboard shortcut: Ctrl+O - Choose file")
		a.uploadPanel.choose()
	})

	// Ctrl+V: Paste a PDF copied in the file manager
	a.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyV,
		Modifier: desktop.ControlModifier,
	}, func(shortcut fyne.Shortcut) {
		a.pasteFromClipboard()
	})

	// Ctrl+Enter: Process
	a.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyReturn,
		Modifier: desktop.ControlModifier,
	}, func(shortcut fyne.Shortcut) {
		a.controller.Process()
	})

	// Ctrl+Comma: Settings
	a.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyComma,
		Modifier: desktop.ControlModifier,
	}, func(shortcut fyne.Shortcut) {
		a.logger.Info("Keyboard shortcut: Ctrl+, - Settings")
		a.showSettings()
	})
}

// pasteFromClipboard treats files copied in the file manager like a drop
func (a *App) pasteFromClipboard() {
	files, err := getClipboardFiles()
	if err != nil {
		a.logger.Warn("Error reading clipboard files: %v", err)
		return
	}
	if len(files) == 0 {
		return
	}

	items := make([]session.DropItem, 0, len(files))
	for _, f := range files {
		items = append(items, session.DropItem{
			Name:      filepath.Base(f),
			Path:      f,
			MediaType: utils.GetMimeType(f),
		})
	}
	a.logger.Info("Pasted %d file(s) from clipboard", len(items))
	a.controller.Drop(items)
}

// showSettings opens the settings window, or focuses it when already open
func (a *App) showSettings() {
	if a.settingsView != nil && a.settingsView.IsOpen() {
		a.settingsView.Focus()
		return
	}

	if !a.settingsOpening.begin() {
		return
	}

	utils.SafeGo(a.logger, "showSettings", func() {
		var editSession *settings.EditSession
		defer fyne.Do(func() {
			a.settingsOpening.done()
			if editSession != nil {
				a.settingsView = NewSettingsView(a, editSession)
				a.settingsView.Show()
			}
		})
		editSession = a.editor.Open(context.Background())
	})
}

// showHistory opens the upload history window
func (a *App) showHistory() {
	a.historyView.Show()
}

// Run starts the application
func (a *App) Run() {
	a.window.ShowAndRun()
}

// showError shows an error dialog
func (a *App) showError(message string) {
	showMessage(a.window.Canvas(), "Error", message)
}

// showSuccess shows a success dialog
func (a *App) showSuccess(message string) {
	showMessage(a.window.Canvas(), "Success", message)
}

func showMessage(canvas fyne.Canvas, title, message string) {
	var popup *widget.PopUp
	text := widget.NewLabel(message)
	text.Wrapping = fyne.TextWrapWord
	popup = widget.NewModalPopUp(
		container.NewVBox(
			widget.NewLabelWithStyle(title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			text,
			widget.NewButton("OK", func() {
				popup.Hide()
			}),
		),
		canvas,
	)
	popup.Resize(fyne.NewSize(360, popup.MinSize().Height))
	popup.Show()
}

// applyThemeFromConfig applies the theme from config
func (a *App) applyThemeFromConfig() {
	isDark := a.config.UI.Theme == "dark"
	fontSize := a.config.UI.FontSize
	if fontSize < 10 {
		fontSize = 14
	}

	a.fyneApp.Settings().SetTheme(newCustomTheme(fontSize, isDark))

	if isDark {
		a.logger.Info("Applied dark theme with font size %d", fontSize)
	} else {
		a.logger.Info("Applied light theme with font size %d", fontSize)
	}
}

// Cleanup stops background work before exit
func (a *App) Cleanup() {
	if a.controller != nil {
		a.controller.Close()
	}
}
