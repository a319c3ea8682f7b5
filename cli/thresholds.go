package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) thresholdsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "thresholds",
		Short: "Print the effective detector thresholds as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(map[string]any{"thresholds": a.cfg.Thresholds})
		},
	}
}
