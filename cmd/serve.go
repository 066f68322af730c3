package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/shiroyk/crumb/api"
	"github.com/shiroyk/crumb/cookiejar"
	"github.com/shiroyk/crumb/lib/utils"
	"github.com/spf13/cobra"
)

var (
	serveAddressArg string
	serveTokenArg   string
	serveTimeoutArg time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the cookie jar api service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := currentConfig(cmd)
		opt := cfg.API
		opt.Address = utils.ZeroOr(serveAddressArg, utils.ZeroOr(opt.Address, api.DefaultAddress))
		opt.Token = utils.ZeroOr(serveTokenArg, opt.Token)
		opt.Timeout = utils.ZeroOr(serveTimeoutArg, utils.ZeroOr(opt.Timeout, api.DefaultTimeout))
		opt.Logger = slog.Default()
		if opt.Token == "" {
			bytes := make([]byte, 16)
			if _, err := rand.Read(bytes); err != nil {
				return err
			}
			opt.Token = hex.EncodeToString(bytes)
		}

		return withJar(cfg, func(jar *cookiejar.Jar) error {
			server := &http.Server{
				Addr:         opt.Address,
				Handler:      api.Server(opt, jar),
				ReadTimeout:  opt.Timeout,
				WriteTimeout: opt.Timeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdown)
			}()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Secret: %v\n", opt.Token)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Service start http://%s\n", opt.Address)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddressArg, "address", "a", "", "api service address, overrides the config")
	serveCmd.Flags().StringVarP(&serveTokenArg, "secret", "s", "", "api service secret, random if empty")
	serveCmd.Flags().DurationVarP(&serveTimeoutArg, "timeout", "t", 0, "api service timeout, overrides the config")
	rootCmd.AddCommand(serveCmd)
}
