package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/autoapply/autoapply/pkg/config"
	"github.com/autoapply/autoapply/pkg/export"
	"github.com/autoapply/autoapply/pkg/pack"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var exportOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var exportPDF bool

//nolint:gochecknoglobals // Cobra boilerplate
var exportCmd = &cobra.Command{
	Use:   "export <pack-id>",
	Short: "Write a stored application pack to markdown files",
	Long: `Write every generated document of a pack to <output-dir>/<pack-id>/<posting>/.

Successful postings get resume.md, cover-letter.md and answers.md. Failed
postings get FAILED.md with the reason. Use --pdf to also render PDFs with pandoc.

Example:
  autoapply export 3f1c2a9e-7b1d-4a53-9d0e-2b6f8c1a4e77
  autoapply export 3f1c2a9e-7b1d-4a53-9d0e-2b6f8c1a4e77 --output-dir ~/Documents --pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runExportCmd,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportOutputDir, "output-dir", "", "Output directory (default from config)")
	exportCmd.Flags().BoolVar(&exportPDF, "pdf", false, "Also render PDFs with pandoc")
}

func runExportCmd(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var cfg config.Config
	cfg, err = loadConfig()
	if err != nil {
		return err
	}

	var p pack.ApplicationPack
	p, err = loadPack(ctx, cfg, args[0])
	if err != nil {
		return err
	}

	outDir := getOutputDir(exportOutputDir, cfg.Defaults.OutputDir)

	var dirs []export.JobDir
	dirs, err = export.Pack(p, outDir)
	if err != nil {
		err = errors.Wrap(err, "failed to export pack")
		return err
	}

	for _, d := range dirs {
		if getVerbose() {
			fmt.Printf("  %s -> %s\n", d.Identifier, d.Dir)
		}
	}

	if exportPDF {
		stop := startSpinner("Rendering PDFs with pandoc...")
		var pdfs []string
		pdfs, err = export.RenderPDFs(ctx, dirs)
		stop()
		if err != nil {
			err = errors.Wrap(err, "failed to render PDFs")
			return err
		}
		fmt.Printf("Rendered %d PDFs\n", len(pdfs))
	}

	fmt.Printf("Exported %d postings to %s\n", len(dirs), outDir)
	return err
}
