package pdf

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ExtractText returns the plain text of every page of the PDF at path
func ExtractText(path string) (text string, err error) {
	// The parser panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("error opening PDF: %w", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("could not read content of pdf: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("could not read content of pdf: %w", err)
	}
	return buf.String(), nil
}
