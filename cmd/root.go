package cmd

import (
	"os"

	"github.com/autoapply/autoapply/pkg/config"
	"github.com/autoapply/autoapply/pkg/jobinfo"
	"github.com/autoapply/autoapply/pkg/llm"
	"github.com/autoapply/autoapply/pkg/logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var configFile string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "autoapply",
	Short: "Generate application packs for a batch of job postings",
	Long: `autoapply takes a list of job postings and your resume and generates a
tailored resume, cover letter and answers to common application questions for
each posting. The results are saved together as an application pack.

Uses Claude API for generation.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.autoapply/config.json)")
}

// getVerbose returns the verbose flag value.
func getVerbose() (result bool) {
	result = verbose
	return result
}

// getConfigFile returns the config file path.
func getConfigFile() (result string) {
	result = configFile
	return result
}

func loadConfig() (cfg config.Config, err error) {
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return cfg, err
	}
	return cfg, err
}

// newLogger builds the zap logger. Outside verbose mode the CLI only logs
// warnings so progress output stays readable.
func newLogger(cfg config.Config) (logger *zap.Logger, err error) {
	level := cfg.Log.Level
	if !getVerbose() && level != "error" {
		level = "warn"
	}

	logger, err = logging.New(level, cfg.Log.Format)
	if err != nil {
		err = errors.Wrap(err, "failed to build logger")
		return logger, err
	}
	return logger, err
}

// newServerLogger builds a logger at the configured level.
func newServerLogger(cfg config.Config) (logger *zap.Logger, err error) {
	logger, err = logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		err = errors.Wrap(err, "failed to build logger")
		return logger, err
	}
	return logger, err
}

func newClient(cfg config.Config) (client *llm.Client) {
	client = llm.NewClient(cfg.AnthropicAPIKey, cfg.Model)
	return client
}

// newLookup resolves local posting files and falls back to placeholder data.
func newLookup() (lookup jobinfo.Lookup) {
	lookup = jobinfo.FileLookup{Fallback: jobinfo.StubLookup{}}
	return lookup
}

func getOutputDir(flagValue, configValue string) (outDir string) {
	outDir = flagValue
	if outDir == "" {
		outDir = configValue
	}
	return outDir
}
