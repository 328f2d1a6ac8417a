package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cvutie/cvutie/internal/config"
	cverrors "github.com/cvutie/cvutie/internal/errors"
)

func newConfigCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Locate(e.opts.configPath)
			if err != nil {
				return cverrors.Wrap(err, "cannot determine config location")
			}
			e.out.Println("%s", path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := e.loadConfig()
			if err != nil {
				return err
			}
			data, err := config.Marshal(res.Config)
			if err != nil {
				return cverrors.Wrap(err, "failed to serialize config")
			}
			e.out.Print("%s", data)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the config file against the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Locate(e.opts.configPath)
			if err != nil {
				return cverrors.Wrap(err, "cannot determine config location")
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return cverrors.Configf("cannot read config: %v", err)
			}
			_, warnings, err := config.Parse(data)
			for _, w := range warnings {
				e.out.Warning("%s: %s", path, w)
			}
			if err != nil {
				return &cverrors.CvutieError{Kind: cverrors.KindConfig, Message: "invalid config", Path: path, Cause: err}
			}
			e.out.Success("%s is valid", path)
			return nil
		},
	})
	return cmd
}
