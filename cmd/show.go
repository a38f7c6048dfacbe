package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/autoapply/autoapply/pkg/config"
	"github.com/autoapply/autoapply/pkg/pack"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var showJSON bool

//nolint:gochecknoglobals // Cobra boilerplate
var showCmd = &cobra.Command{
	Use:   "show <pack-id>",
	Short: "Show a stored application pack",
	Long: `Show the per-posting results of a stored application pack.

Example:
  autoapply show 3f1c2a9e-7b1d-4a53-9d0e-2b6f8c1a4e77
  autoapply show 3f1c2a9e-7b1d-4a53-9d0e-2b6f8c1a4e77 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the full pack as JSON")
}

func runShow(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
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

	if showJSON {
		var data []byte
		data, err = json.MarshalIndent(p, "", "  ")
		if err != nil {
			err = errors.Wrap(err, "failed to marshal pack")
			return err
		}
		fmt.Println(string(data))
		return err
	}

	printPackSummary(p)
	fmt.Printf("\nCreated: %s\n", p.CreatedAt.Local().Format(time.RFC1123))
	return err
}

// loadPack reads one pack from the configured store.
func loadPack(ctx context.Context, cfg config.Config, id string) (p pack.ApplicationPack, err error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return p, err
	}
	defer func() { _ = logger.Sync() }()

	var b *backend
	b, err = openBackend(ctx, cfg, logger)
	if err != nil {
		return p, err
	}
	defer b.Close()

	p, err = b.store.Load(ctx, id)
	if err != nil {
		err = errors.Wrapf(err, "failed to load pack %s", id)
		return p, err
	}

	return p, err
}
