//go:build windows

package ui

import (
	"syscall"
	"unsafe"
)

var (
	user32                     = syscall.NewLazyDLL("user32.dll")
	openClipboard              = user32.NewProc("OpenClipboard")
	closeClipboard             = user32.NewProc("CloseClipboard")
	getClipboardData           = user32.NewProc("GetClipboardData")
	isClipboardFormatAvailable = user32.NewProc("IsClipboardFormatAvailable")

	kernel32     = syscall.NewLazyDLL("kernel32.dll")
	globalLock   = kernel32.NewProc("GlobalLock")
	globalUnlock = kernel32.NewProc("GlobalUnlock")

	shell32       = syscall.NewLazyDLL("shell32.dll")
	dragQueryFile = shell32.NewProc("DragQueryFileW")
)

// cfHDROP is the clipboard format Explorer uses for copied files
const cfHDROP = 15

// getClipboardFiles returns the paths of files copied in Explorer. A
// clipboard that is busy or holds no files yields nil.
func getClipboardFiles() ([]string, error) {
	if ok, _, _ := openClipboard.Call(0); ok == 0 {
		return nil, nil
	}
	defer closeClipboard.Call()

	if ok, _, _ := isClipboardFormatAvailable.Call(cfHDROP); ok == 0 {
		return nil, nil
	}
	hDrop, _, _ := getClipboardData.Call(cfHDROP)
	if hDrop == 0 {
		return nil, nil
	}
	pDrop, _, _ := globalLock.Call(hDrop)
	if pDrop == 0 {
		return nil, nil
	}
	defer globalUnlock.Call(hDrop)

	// index 0xFFFFFFFF asks for the number of files
	count, _, _ := dragQueryFile.Call(pDrop, 0xFFFFFFFF, 0, 0)
	files := make([]string, 0, count)
	for i := uintptr(0); i < count; i++ {
		size, _, _ := dragQueryFile.Call(pDrop, i, 0, 0)
		if size == 0 {
			continue
		}
		buf := make([]uint16, size+1)
		n, _, _ := dragQueryFile.Call(pDrop, i, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
		if n > 0 {
			files = append(files, syscall.UTF16ToString(buf))
		}
	}
	return files, nil
}
