package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// PDFRenderer compiles a rendered HTML document and its image assets into
// PDF bytes. Asset keys are file names referenced by the HTML.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string, assets map[string][]byte) ([]byte, error)
}

// ChromiumRenderer shells out to headless chromium to print HTML to PDF.
type ChromiumRenderer struct {
	binary  string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewChromiumRenderer returns a renderer invoking the given chromium binary.
func NewChromiumRenderer(binary string, timeout time.Duration, logger zerolog.Logger) *ChromiumRenderer {
	if binary == "" {
		binary = "chromium"
	}
	return &ChromiumRenderer{binary: binary, timeout: timeout, logger: logger}
}

// RenderPDF writes the document and assets to a temp directory and runs
// chromium's print-to-pdf against it.
func (r *ChromiumRenderer) RenderPDF(ctx context.Context, html string, assets map[string][]byte) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "brochure-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "brochure.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o600); err != nil {
		return nil, fmt.Errorf("write html: %w", err)
	}
	for name, data := range assets {
		if err := os.WriteFile(filepath.Join(tmpDir, filepath.Base(name)), data, 0o600); err != nil {
			return nil, fmt.Errorf("write asset %s: %w", name, err)
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	pdfPath := filepath.Join(tmpDir, "brochure.pdf")
	// Arguments are safe (tmpDir from os.MkdirTemp, paths derived from it)
	cmd := exec.CommandContext(ctx, r.binary, //nolint:gosec
		"--headless",
		"--disable-gpu",
		"--no-sandbox",
		"--no-pdf-header-footer",
		"--print-to-pdf="+pdfPath,
		htmlPath,
	)
	cmd.Dir = tmpDir
	start := time.Now()
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("chromium print failed: %w\n%s", err, string(output))
	}
	r.logger.Debug().Dur("elapsed", time.Since(start)).Msg("chromium print finished")

	pdfData, err := os.ReadFile(pdfPath) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("read PDF: %w", err)
	}
	return pdfData, nil
}
