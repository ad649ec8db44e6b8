package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cachewise/cachewise/internal/profile"
	"github.com/cachewise/cachewise/internal/version"
	"github.com/cachewise/cachewise/server"
	"github.com/cachewise/cachewise/store"
	"github.com/cachewise/cachewise/store/db"
)

const greetingBanner = `
               _                   _
  ___ __ _  __| |_  _____      __ (_)___  ___
 / __/ _` + "`" + ` |/ _| ' \/ -_) \ /\ / / | / __|/ _ \
 \__\__,_|\__|_||_\___|\ V  V /| | \__ \  __/
                        \_/\_/ |_|_|___/\___|
`

var rootCmd = &cobra.Command{
	Use:   "cachewise",
	Short: "A persistent TTL response cache service",
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:            viper.GetString("mode"),
			Addr:            viper.GetString("addr"),
			Port:            viper.GetInt("port"),
			Data:            viper.GetString("data"),
			Driver:          viper.GetString("driver"),
			DSN:             viper.GetString("dsn"),
			DefaultTTL:      time.Duration(viper.GetInt("default-ttl")) * time.Second,
			CleanupInterval: time.Duration(viper.GetInt("cleanup-interval")) * time.Millisecond,
			Version:         version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("failed to validate profile", slog.String("error", err.Error()))
			return
		}

		if instanceProfile.IsDev() {
			// slog.SetLogLoggerLevel requires Go 1.22+; emulate it on Go 1.21.
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", slog.String("error", err.Error()))
			return
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Init(ctx); err != nil {
			slog.Error("failed to init cache store", slog.String("error", err.Error()))
			return
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance)
		if err != nil {
			slog.Error("failed to create server", slog.String("error", err.Error()))
			_ = storeInstance.Close()
			return
		}

		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigc
			s.Shutdown(ctx)
			cancel()
		}()

		printGreetings(instanceProfile)

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", slog.String("error", err.Error()))
			cancel()
		}

		// Wait for CTRL-C.
		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8231)
	viper.SetDefault("default-ttl", 300)
	viper.SetDefault("cleanup-interval", 60000)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8231, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")
	rootCmd.PersistentFlags().Int("default-ttl", 300, "default entry TTL in seconds")
	rootCmd.PersistentFlags().Int("cleanup-interval", 60000, "reclamation interval in milliseconds")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("cachewise")
	viper.AutomaticEnv()
}

func printGreetings(profile *profile.Profile) {
	fmt.Print(greetingBanner)
	fmt.Printf("Version %s has been started on port %d\n", profile.Version, profile.Port)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
