package extraction

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/ayurankh/claims-processor/internal/store/model"
)

// DefaultOCRCommand is the tesseract binary invoked for image OCR.
const DefaultOCRCommand = "tesseract"

// OCRAdapter extracts text from identity and consent images by shelling out
// to the tesseract CLI. A missing binary or a decode failure is captured as
// an error descriptor; it never aborts the pipeline.
type OCRAdapter struct {
	role    model.DocumentRole
	command string
}

func NewOCRAdapter(role model.DocumentRole) *OCRAdapter {
	return &OCRAdapter{role: role, command: DefaultOCRCommand}
}

// WithCommand overrides the OCR binary, used by tests.
func (a *OCRAdapter) WithCommand(command string) *OCRAdapter {
	a.command = command
	return a
}

func (a *OCRAdapter) Extract(ctx context.Context, path string) Result {
	return capture(a.role, func() Result {
		if _, err := os.Stat(path); err != nil {
			return errorResult(a.role, errors.Wrap(err, "stat image file"))
		}

		bin, err := exec.LookPath(a.command)
		if err != nil {
			return errorResult(a.role, errors.Wrapf(err, "ocr tool %q not available", a.command))
		}

		var stdout, stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, bin, path, "stdout")
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return errorResult(a.role, errors.Wrapf(err, "ocr failed: %s", stderr.String()))
		}
		return textResult(a.role, stdout.String())
	})
}
