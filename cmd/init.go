package cmd

import (
	"fmt"

	"github.com/autoapply/autoapply/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long: `Create a default config file at $HOME/.autoapply/config.json (or --config).

Edit it to set your name, API key and resume path. Any field can also be set
with an AUTOAPPLY_ environment variable, e.g. AUTOAPPLY_STORE_BACKEND=redis.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		err = config.InitConfig(getConfigFile())
		if err != nil {
			return err
		}

		path := getConfigFile()
		if path == "" {
			path, err = config.DefaultPath()
			if err != nil {
				return err
			}
		}
		fmt.Printf("Created config file: %s\n", path)
		return err
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(initCmd)
}
