package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/systray"
)

// SetupSystemTray starts the tray icon and its menu
func (a *App) SetupSystemTray() {
	go systray.Run(a.onTrayReady, a.onTrayExit)
	a.logger.Info("System tray initialized")
}

func (a *App) onTrayReady() {
	systray.SetIcon(trayIcon())
	systray.SetTitle("PDF Vector Uploader")
	systray.SetTooltip("Upload PDF documents to Pinecone")

	mShow := systray.AddMenuItem("Show Window", "Show main window")
	mChoose := systray.AddMenuItem("Choose PDF...", "Pick a PDF to upload")
	mProcess := systray.AddMenuItem("Process", "Process the selected PDF")
	mSettings := systray.AddMenuItem("Settings", "Open settings")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	// Menu clicks arrive on the tray goroutine; widget work goes through fyne.Do
	go func() {
		for {
			select {
			case <-mShow.ClickedCh:
				fyne.Do(func() {
					a.window.Show()
				})
				a.logger.Info("Window shown from system tray")
			case <-mChoose.ClickedCh:
				fyne.Do(func() {
					a.window.Show()
					a.uploadPanel.choose()
				})
				a.logger.Info("File picker opened from system tray")
			case <-mProcess.ClickedCh:
				if !a.controller.Process() {
					a.logger.Info("Process from system tray ignored, no file ready")
				}
			case <-mSettings.ClickedCh:
				fyne.Do(func() {
					a.window.Show()
					a.showSettings()
				})
				a.logger.Info("Settings opened from system tray")
			case <-mQuit.ClickedCh:
				a.logger.Info("Quit from system tray")
				fyne.Do(func() {
					a.fyneApp.Quit()
				})
				systray.Quit()
				return
			}
		}
	}()
}

func (a *App) onTrayExit() {
	a.logger.Info("System tray exited")
}

// EnableMinimizeToTray hides the window on close instead of quitting
func (a *App) EnableMinimizeToTray() {
	a.window.SetCloseIntercept(func() {
		a.logger.Info("Window close intercepted - minimizing to tray")
		a.window.Hide()
	})
}

// trayIcon is a 16x16 PNG
func trayIcon() []byte {
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D,
		0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0xF3, 0xFF, 0x61, 0x00, 0x00, 0x00,
		0x3B, 0x49, 0x44, 0x41, 0x54, 0x38, 0x8D, 0x63, 0x64, 0xC0, 0x0F, 0xF0,
		0x0F, 0x62, 0x62, 0x60, 0x60, 0xF8, 0xCF, 0xC0, 0xC0, 0xC0, 0xF0, 0x9F,
		0x81, 0x81, 0x81, 0xE1, 0x3F, 0x03, 0x03, 0x03, 0xC3, 0x7F, 0x06, 0x06,
		0x06, 0x86, 0xFF, 0x0C, 0x0C, 0x0C, 0x0C, 0xFF, 0x19, 0x18, 0x18, 0x18,
		0xFE, 0x33, 0x30, 0x30, 0x30, 0xFC, 0x67, 0x60, 0x60, 0x60, 0x00, 0x00,
		0x1F, 0x84, 0x01, 0x0C, 0x7A, 0x7A, 0x7A, 0x7A, 0x00, 0x00, 0x00, 0x00,
		0x49, 0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82,
	}
}
