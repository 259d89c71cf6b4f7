// Package inspiration prepares uploaded files for the vision prompter.
// Images pass through as-is; PDFs have their first page rendered to a PNG.
package inspiration

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

const renderDPI = 150

// DataURL converts an uploaded file into a data URL suitable for a vision
// chat message. Supported: PNG, JPEG, and PDF (first page). HEIC and other
// formats are rejected.
func DataURL(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return encode("image/png", data), nil
	case ".jpg", ".jpeg":
		return encode("image/jpeg", data), nil
	case ".pdf":
		rendered, err := renderFirstPage(data)
		if err != nil {
			return "", err
		}
		return encode("image/png", rendered), nil
	default:
		return "", fmt.Errorf("inspiration: unsupported file type %q (use png, jpeg or pdf)", filepath.Ext(filename))
	}
}

func encode(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func renderFirstPage(data []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("inspiration: open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("inspiration: pdf has no pages")
	}

	img, err := doc.ImageDPI(0, renderDPI)
	if err != nil {
		return nil, fmt.Errorf("inspiration: render pdf page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("inspiration: encode pdf page: %w", err)
	}
	return buf.Bytes(), nil
}
