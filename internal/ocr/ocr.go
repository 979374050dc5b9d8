// Package ocr extracts text from photographed notes.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Extractor maps image bytes to plain text.
type Extractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Tesseract shells out to the tesseract binary, reading the image on stdin
// and writing text to stdout. Vietnamese plus English matches the notes this
// service captures.
type Tesseract struct {
	cmd string
}

// NewTesseract creates an extractor using the given binary path.
func NewTesseract(cmd string) *Tesseract {
	if cmd == "" {
		cmd = "tesseract"
	}
	return &Tesseract{cmd: cmd}
}

// ExtractText runs OCR over the image. The result is trimmed; an empty
// result is the caller's validation problem, not an extraction error.
func (t *Tesseract) ExtractText(ctx context.Context, image []byte) (string, error) {
	cmd := exec.CommandContext(ctx, t.cmd, "stdin", "stdout", "-l", "vie+eng")
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ocr: tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
