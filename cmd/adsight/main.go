package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adsight/adsight/ai/cache"
	"github.com/adsight/adsight/ai/llm"
	"github.com/adsight/adsight/ai/metrics"
	"github.com/adsight/adsight/chat"
	"github.com/adsight/adsight/chat/executor"
	"github.com/adsight/adsight/chat/registry"
	"github.com/adsight/adsight/internal/profile"
	"github.com/adsight/adsight/internal/version"
	"github.com/adsight/adsight/server"
	"github.com/adsight/adsight/store"
	"github.com/adsight/adsight/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "adsight",
	Short: "A conversational analytics gateway: ask questions about your ads and analytics data in plain language.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Load .env from the working directory when present.
		_ = godotenv.Load()
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:   viper.GetString("mode"),
			Addr:   viper.GetString("addr"),
			Port:   viper.GetInt("port"),
			Data:   viper.GetString("data"),
			Driver: viper.GetString("driver"),
			DSN:    viper.GetString("dsn"),
		}
		instanceProfile.FromEnv()
		instanceProfile.Version = version.GetCurrentVersion(instanceProfile.Mode)
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}
		if !strings.Contains(instanceProfile.Addr, ":") {
			instanceProfile.Addr = fmt.Sprintf("%s:%d", instanceProfile.Addr, instanceProfile.Port)
		}

		ctx, stop := signal.NotifyContext(context.Background(), terminationSignals...)
		defer stop()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", "error", err)
			os.Exit(1)
		}
		storeInstance := store.New(dbDriver, instanceProfile)
		defer func() { _ = storeInstance.Close() }()
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate", "error", err)
			os.Exit(1)
		}

		mainLLM, err := llm.NewService(&llm.Config{
			Provider: instanceProfile.LLMProvider,
			Model:    instanceProfile.LLMModel,
			APIKey:   instanceProfile.LLMAPIKey,
			BaseURL:  instanceProfile.LLMBaseURL,
			Timeout:  instanceProfile.LLMTimeout,
		})
		if err != nil {
			slog.Error("failed to create LLM service", "error", err)
			os.Exit(1)
		}
		classifierLLM := llm.NewClassifierService(instanceProfile, mainLLM)
		go mainLLM.Warmup(ctx)

		exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
		reg := registry.New()

		client := executor.NewClient(
			instanceProfile.UpstreamBaseURL,
			time.Duration(instanceProfile.UpstreamTimeout)*time.Second,
			executor.DefaultRetryPolicy(),
		)
		execOpts := []executor.Option{executor.WithMetrics(exporter)}
		if ttl := instanceProfile.ResponseCacheTTL; ttl > 0 {
			responseCache := cache.NewLRUCache[string, json.RawMessage](1000, time.Duration(ttl)*time.Second)
			execOpts = append(execOpts, executor.WithResponseCache(responseCache, time.Duration(ttl)*time.Second))
		}
		exec := executor.New(client, reg, execOpts...)

		orchestrator := chat.NewOrchestrator(chat.Config{
			MainLLM:       mainLLM,
			ClassifierLLM: classifierLLM,
			Registry:      reg,
			Executor:      exec,
			Store:         storeInstance,
			Exporter:      exporter,
		})

		s := server.NewServer(instanceProfile, storeInstance, orchestrator, exporter)

		printGreetings(instanceProfile)
		if err := s.Start(ctx); err != nil {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 28090)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("adsight")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(p *profile.Profile) {
	fmt.Printf(`---
Server profile
version: %s
addr: %s
mode: %s
driver: %s
upstream: %s
llm: %s/%s
---
`, p.Version, p.Addr, p.Mode, p.Driver, p.UpstreamBaseURL, p.LLMProvider, p.LLMModel)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to run command", "error", err)
		os.Exit(1)
	}
}
