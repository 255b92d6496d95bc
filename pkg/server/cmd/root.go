package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mikufans/bvc-server/pkg/resource"
	"github.com/mikufans/bvc-server/pkg/server"
	"github.com/mikufans/bvc-server/pkg/server/config"
)

var cfgFile string
var addr string
var idleTimeout time.Duration
var resourcePath string

var rootCmd = &cobra.Command{
	Use:   "bvcd",
	Short: "Mikufans BVC media server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.Addr = addr
		}
		if idleTimeout > 0 {
			cfg.MaxIdle = idleTimeout
		}
		if resourcePath != "" {
			cfg.Resource = resourcePath
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Print("Serving ")
		color.New(color.Bold, color.FgCyan).Print(cfg.Resource)
		fmt.Print(" on ")
		color.New(color.Bold, color.FgGreen).Printf("http://%s", cfg.Addr)
		fmt.Printf(" (idle timeout %s)\n", cfg.MaxIdle)

		return server.New(cfg, resource.NewFileResolver(cfg.Resource)).ListenAndServe(ctx)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "Path to a config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "Bind address (overrides config)")
	rootCmd.Flags().DurationVar(&idleTimeout, "idle-timeout", 0, "Keep-alive idle timeout (overrides config)")
	rootCmd.Flags().StringVarP(&resourcePath, "resource", "r", "", "Media file to serve (overrides config)")
}
