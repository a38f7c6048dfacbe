package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/autoapply/autoapply/pkg/batch"
	"github.com/autoapply/autoapply/pkg/config"
	"github.com/autoapply/autoapply/pkg/export"
	"github.com/autoapply/autoapply/pkg/pack"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runOwner string

//nolint:gochecknoglobals // Cobra boilerplate
var runResume string

//nolint:gochecknoglobals // Cobra boilerplate
var runListFile string

//nolint:gochecknoglobals // Cobra boilerplate
var runConcurrency int

//nolint:gochecknoglobals // Cobra boilerplate
var runExport bool

//nolint:gochecknoglobals // Cobra boilerplate
var runOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run [identifier...]",
	Short: "Generate an application pack for a batch of job postings",
	Long: `Generate a tailored resume, cover letter and three application answers for
every job posting, and save the results as one application pack.

Identifiers can be posting URLs, local .json files ({"title","company","description"})
or local text files holding a job description. Postings that cannot be resolved or
generated are recorded as failures; the rest of the batch still completes.

Example:
  autoapply run https://example.com/jobs/1 https://example.com/jobs/2
  autoapply run --file postings.txt --resume ~/resume.txt
  autoapply run --file postings.yaml
  autoapply run jd-acme.json --concurrency 5 --export`,
	RunE: runRun,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runOwner, "owner", "", "Owner id recorded on the pack (default: name from config)")
	runCmd.Flags().StringVar(&runResume, "resume", "", "Resume text file (default: resume_path from config)")
	runCmd.Flags().StringVarP(&runListFile, "file", "f", "", "Identifier list: one per line, or a YAML sequence")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "Jobs processed at once (default from config)")
	runCmd.Flags().BoolVar(&runExport, "export", false, "Write the pack to markdown files when done")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "Export directory (default from config)")
}

func runRun(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	var identifiers []string
	identifiers, err = collectIdentifiers(args, runListFile)
	if err != nil {
		return err
	}

	var cfg config.Config
	cfg, err = loadConfig()
	if err != nil {
		return err
	}

	if runConcurrency > 0 {
		cfg.Concurrency = runConcurrency
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var b *backend
	b, err = openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	owner := runOwner
	if owner == "" {
		owner = cfg.Name
	}

	o := batch.New(newClient(cfg), newLookup(), b.store, batch.Options{
		Concurrency:      cfg.Concurrency,
		MaxProviderCalls: cfg.MaxProviderCalls,
		Logger:           logger,
	})
	svc := batch.NewService(o, resumeSource(runResume, cfg, b), b.store)

	if getVerbose() {
		fmt.Printf("Processing %d postings for %s (concurrency %d)\n", len(identifiers), owner, cfg.Concurrency)
	}

	stopSpinner := startSpinner(fmt.Sprintf("Generating application pack for %d postings...", len(identifiers)))
	p, err := svc.CreatePack(ctx, owner, identifiers)
	stopSpinner()
	if err != nil {
		err = errors.Wrap(err, "batch failed")
		return err
	}

	printPackSummary(p)

	if runExport {
		outDir := getOutputDir(runOutputDir, cfg.Defaults.OutputDir)
		var dirs []export.JobDir
		dirs, err = export.Pack(p, outDir)
		if err != nil {
			err = errors.Wrap(err, "failed to export pack")
			return err
		}
		fmt.Printf("\nExported %d postings to %s\n", len(dirs), outDir)
	}

	return err
}

// collectIdentifiers merges positional args with the entries of listFile.
// A .yaml/.yml list holds either a plain sequence or an identifiers key; any
// other file has one identifier per line, skipping blanks and # comments.
func collectIdentifiers(args []string, listFile string) (identifiers []string, err error) {
	identifiers = append(identifiers, args...)

	if listFile != "" {
		var listed []string
		switch strings.ToLower(filepath.Ext(listFile)) {
		case ".yaml", ".yml":
			listed, err = readYAMLList(listFile)
		default:
			listed, err = readLineList(listFile)
		}
		if err != nil {
			return identifiers, err
		}
		identifiers = append(identifiers, listed...)
	}

	if len(identifiers) == 0 {
		err = errors.Wrap(batch.ErrNoIdentifiers, "pass identifiers as arguments or with --file")
		return identifiers, err
	}

	return identifiers, err
}

func readLineList(path string) (identifiers []string, err error) {
	var f *os.File
	f, err = os.Open(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to open identifier list: %s", path)
		return identifiers, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		identifiers = append(identifiers, line)
	}

	err = scanner.Err()
	if err != nil {
		err = errors.Wrapf(err, "failed to read identifier list: %s", path)
		return identifiers, err
	}

	return identifiers, err
}

func readYAMLList(path string) (identifiers []string, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read identifier list: %s", path)
		return identifiers, err
	}

	var doc struct {
		Identifiers []string `yaml:"identifiers"`
	}
	err = yaml.Unmarshal(data, &doc)
	if err != nil {
		// a bare sequence does not decode into the struct
		err = yaml.Unmarshal(data, &identifiers)
		if err != nil {
			err = errors.Wrapf(err, "failed to parse identifier list: %s", path)
			return identifiers, err
		}
	} else {
		identifiers = doc.Identifiers
	}

	kept := identifiers[:0]
	for _, id := range identifiers {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		kept = append(kept, id)
	}
	identifiers = kept

	return identifiers, err
}

func printPackSummary(p pack.ApplicationPack) {
	fmt.Printf("Application pack: %s\n", p.ID)
	fmt.Printf("Owner: %s\n", p.OwnerID)
	fmt.Printf("Generated: %d of %d postings\n\n", p.SuccessCount(), len(p.Results))

	seen := make(map[string]bool)
	for _, id := range p.InputIdentifiers {
		if seen[id] {
			continue
		}
		seen[id] = true

		r := p.Results[id]
		if r.OK() {
			fmt.Printf("  ✓ %s (%s at %s)\n", id, r.Success.Title, r.Success.Company)
			continue
		}
		reason := "unknown"
		if r.Failure != nil {
			reason = r.Failure.Reason
		}
		fmt.Printf("  ✗ %s: %s\n", id, reason)
	}
}
