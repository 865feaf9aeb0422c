package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AlanChernakoff/Photogame/internal/bootstrap"
)

const releaseVersion = "1.0.0"

func newCmd() *cobra.Command {
	v := bootstrap.NewViper()

	cmd := &cobra.Command{
		Use:     "photogame",
		Short:   "Party game server: players upload photos, the admin reveals them one by one.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(v)
			if err != nil {
				return err
			}

			// 初始化并运行 App
			app, err := bootstrap.NewApp(cfg)
			if err != nil {
				return err
			}
			app.Start()

			// 设置优雅关闭
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			app.Log.Info("Shutdown signal received...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			app.Shutdown(shutdownCtx)
			return nil
		},
	}

	bootstrap.BindFlags(cmd.Flags(), v)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func main() {
	if err := newCmd().Execute(); err != nil {
		logrus.WithError(err).Error("photogame exited with error")
		os.Exit(1)
	}
}
