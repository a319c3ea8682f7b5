// Package cli wires configuration, logging and the pipeline into the
// ecg-pipeline command.
package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/maastricht-university/ecg-pipeline/config"
	"github.com/maastricht-university/ecg-pipeline/logging"
)

type app struct {
	cfgPath string
	v       *viper.Viper
	cfg     *config.Root
	log     *logrus.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "ecg-pipeline",
		Short:         "Rule-based 12-lead ECG interpretation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "config file (default config/$CONFIG_ENV/config.yaml)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text, json)")
	pf.String("classifier-url", "", "learned classifier base URL")
	pf.String("outputs", "", "directory for diagnosis bundles")
	for key, flag := range map[string]string{
		"pipeline.log_level":      "log-level",
		"pipeline.log_format":     "log-format",
		"services.classifier.url": "classifier-url",
		"paths.outputs":           "outputs",
	} {
		if err := a.v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(a.diagnoseCmd(), a.serveCmd(), a.thresholdsCmd())
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if err := config.Overlay(cfg, a.v); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(cfg.Pipeline.LogLvl, cfg.Pipeline.LogFormat)
	a.log.WithFields(logrus.Fields{
		"name":    cfg.Pipeline.Name,
		"version": cfg.Pipeline.Version,
	}).Debug("configuration loaded")
	return nil
}

// Execute runs the root command.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		return fmt.Errorf("ecg-pipeline: %w", err)
	}
	return nil
}
