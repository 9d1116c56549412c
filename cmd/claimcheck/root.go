package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/agenthands/claimcheck/internal/config"
	"github.com/agenthands/claimcheck/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "claimcheck",
	Short: "Verify factual claims against a knowledge graph and the web",
	Long: `claimcheck extracts a subject-predicate-object triple from a claim, links its
entities to knowledge graph resources, gathers KG and web evidence and labels the
claim Supported, Refuted or Not Enough Info.

Configuration comes from a TOML file (--config, CONFIG_PATH or config/config.toml)
with environment overrides. Flags and CLAIMCHECK_* variables win over both.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $CONFIG_PATH or config/config.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: json or console")
	rootCmd.PersistentFlags().String("kg-backend", "", "knowledge graph backend: sparql or graph")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("kg_backend", rootCmd.PersistentFlags().Lookup("kg-backend"))

	viper.SetEnvPrefix("CLAIMCHECK")
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, verifyCmd, triplesCmd, loadCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Resolve(cfgFile)
	if err != nil {
		return err
	}
	applyOverrides(c)
	if err := c.Validate(); err != nil {
		return err
	}

	l, err := logging.New(c.Logging.Level, c.Logging.Format)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

// applyOverrides copies flag and CLAIMCHECK_* values that viper saw onto c.
func applyOverrides(c *config.Config) {
	if v := viper.GetString("log_level"); v != "" {
		c.Logging.Level = v
	}
	if v := viper.GetString("log_format"); v != "" {
		c.Logging.Format = v
	}
	if v := viper.GetString("kg_backend"); v != "" {
		c.KG.Backend = v
	}
	if v := viper.GetString("port"); v != "" {
		c.Server.Port = v
	}
	if viper.IsSet("time_steps") {
		c.Server.TimeSteps = viper.GetBool("time_steps")
	}
	if viper.IsSet("cache") {
		c.Cache.Enabled = viper.GetBool("cache")
	}
}
