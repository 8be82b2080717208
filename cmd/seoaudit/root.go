package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/upworkmkd/msd-seo-audit/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "seoaudit",
	Short: "SEO page analysis and domain audit tool",
	Long:  "seoaudit crawls a domain, extracts on-page SEO signals, scores every page and aggregates the results into a domain report.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./seoaudit.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(auditCmd)
}

// loadEnv pulls in a local .env before viper reads the environment.
func loadEnv() {
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}
}

func setup() (*config.Config, *logrus.Logger, error) {
	loadEnv()

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return cfg, logger, nil
}
