package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// Engine turns an image file into text, and optionally into positioned words.
type Engine interface {
	// Available reports whether the engine can run in this environment.
	Available() bool
	// Text returns the recognized plain text of the image.
	Text(ctx context.Context, imagePath string) (string, error)
	// Words returns recognized words with bounding boxes, or an empty slice
	// when the engine cannot provide positions.
	Words(ctx context.Context, imagePath string) ([]Word, error)
}

// EngineError wraps a recognition failure with the image it occurred on.
type EngineError struct {
	Message string
	Image   string
	Cause   error
}

func (e *EngineError) Error() string {
	msg := e.Message
	if e.Image != "" {
		msg += " (" + e.Image + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *EngineError) Unwrap() error { return e.Cause }

// Tesseract shells out to the tesseract CLI. It is the only engine shipped;
// the interface exists so a hosted OCR API can slot in without touching the
// recovery strategies.
type Tesseract struct {
	// Binary is the executable name or path, "tesseract" by default.
	Binary string
	// Langs is the -l argument, "jpn+eng" by default.
	Langs string
}

// NewTesseract returns a Tesseract engine with default binary and languages.
func NewTesseract() *Tesseract {
	return &Tesseract{Binary: "tesseract", Langs: "jpn+eng"}
}

// Available probes PATH for the binary.
func (t *Tesseract) Available() bool {
	_, err := exec.LookPath(t.Binary)
	return err == nil
}

// Text runs tesseract in plain-text mode.
func (t *Tesseract) Text(ctx context.Context, imagePath string) (string, error) {
	out, err := t.run(ctx, imagePath)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Words runs tesseract in TSV mode and keeps word-level rows.
func (t *Tesseract) Words(ctx context.Context, imagePath string) ([]Word, error) {
	out, err := t.run(ctx, imagePath, "tsv")
	if err != nil {
		return nil, err
	}
	return ParseTSV(string(out)), nil
}

func (t *Tesseract) run(ctx context.Context, imagePath string, extra ...string) ([]byte, error) {
	args := append([]string{imagePath, "stdout", "-l", t.Langs}, extra...)
	cmd := exec.CommandContext(ctx, t.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &EngineError{
			Message: "tesseract failed: " + strings.TrimSpace(stderr.String()),
			Image:   imagePath,
			Cause:   err,
		}
	}
	return stdout.Bytes(), nil
}

// tsvWordLevel marks word rows in tesseract's TSV output.
const tsvWordLevel = "5"

// ParseTSV extracts word-level entries from tesseract TSV output. Rows are
// level, page, block, paragraph, line, word, left, top, width, height,
// confidence, text.
func ParseTSV(tsv string) []Word {
	var out []Word
	for _, line := range strings.Split(tsv, "\n") {
		cols := strings.Split(line, "\t")
		if len(cols) < 12 || cols[0] != tsvWordLevel {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		left, err1 := strconv.Atoi(cols[6])
		top, err2 := strconv.Atoi(cols[7])
		width, err3 := strconv.Atoi(cols[8])
		height, err4 := strconv.Atoi(cols[9])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		out = append(out, Word{Text: text, Left: left, Top: top, Width: width, Height: height})
	}
	return out
}
