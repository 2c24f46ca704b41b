//go:build !windows

package ui

// getClipboardFiles returns file paths copied in the file manager. Only
// the Windows shell clipboard format is read.
func getClipboardFiles() ([]string, error) {
	return nil, nil
}
