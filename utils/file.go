package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MimePDF is the only media type the uploader accepts
const MimePDF = "application/pdf"

// GetMimeType returns the MIME type based on file extension
func GetMimeType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	mimeTypes := map[string]string{
		".pdf":  MimePDF,
		".txt":  "text/plain",
		".md":   "text/markdown",
		".json": "application/json",
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".doc":  "application/msword",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}

	if mime, ok := mimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// DetectMimeType sniffs the file content rather than trusting the extension
func DetectMimeType(filePath string) (string, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}
	return mtype.String(), nil
}

// IsPDFContent reports whether the file content is a PDF document
func IsPDFContent(filePath string) (bool, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to detect file type: %w", err)
	}
	return mtype.Is(MimePDF), nil
}

// GetFileSize returns the file size in bytes
func GetFileSize(filePath string) (int64, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to get file info: %w", err)
	}
	return info.Size(), nil
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// MaskSecret keeps only the last four characters of an API key for logs
func MaskSecret(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
