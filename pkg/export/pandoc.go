package export

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// RenderPDFs converts every markdown file in dirs to a PDF next to it.
func RenderPDFs(ctx context.Context, dirs []JobDir) (written []string, err error) {
	err = checkPandocExists(ctx)
	if err != nil {
		return written, err
	}

	for _, d := range dirs {
		for _, md := range d.Files {
			out := strings.TrimSuffix(md, filepath.Ext(md)) + ".pdf"
			err = RenderPDF(ctx, md, out)
			if err != nil {
				return written, err
			}
			written = append(written, out)
		}
	}

	return written, err
}

// RenderPDF converts markdown to PDF using pandoc's default template.
func RenderPDF(ctx context.Context, markdownPath, outputPath string) (err error) {
	err = validateFiles(markdownPath)
	if err != nil {
		return err
	}

	outputDir := filepath.Dir(outputPath)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return err
	}

	cmd := exec.CommandContext(ctx,
		"pandoc",
		"-f", "markdown",
		"-t", "pdf",
		"-o", outputPath,
		markdownPath,
	)

	var output []byte
	output, err = cmd.CombinedOutput()
	if err != nil {
		err = errors.Wrapf(err, "pandoc failed: %s", string(output))
		return err
	}

	return err
}

// checkPandocExists verifies pandoc is installed.
func checkPandocExists(ctx context.Context) (err error) {
	cmd := exec.CommandContext(ctx, "pandoc", "--version")
	err = cmd.Run()
	if err != nil {
		err = errors.New("pandoc not found in PATH (install pandoc to generate PDFs)")
		return err
	}
	return err
}

// validateFiles checks that required files exist.
func validateFiles(paths ...string) (err error) {
	for _, path := range paths {
		_, err = os.Stat(path)
		if os.IsNotExist(err) {
			err = errors.Errorf("file not found: %s", path)
			return err
		}
	}
	return err
}
