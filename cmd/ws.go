package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/shiroyk/crumb/cookiejar"
	"github.com/shiroyk/crumb/fetch"
	"github.com/spf13/cobra"
)

var (
	wsMessageArg string
	wsHeaderArg  []string
	wsTimeoutArg time.Duration
)

var wsCmd = &cobra.Command{
	Use:   "ws <url>",
	Short: "open a websocket through the cookie jar and print the first message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		headers, err := parseHeaders(wsHeaderArg)
		if err != nil {
			return err
		}
		cfg := currentConfig(cmd)
		return withJar(cfg, func(jar *cookiejar.Jar) error {
			opt := cfg.Fetch
			opt.Jar = jar
			opt.Logger = slog.Default()

			ctx, cancel := context.WithTimeout(context.Background(), wsTimeoutArg)
			defer cancel()
			conn, _, err := fetch.DialWebSocket(ctx, args[0], headers, opt)
			if err != nil {
				return err
			}
			defer conn.CloseNow()

			if wsMessageArg != "" {
				if err = conn.Write(ctx, websocket.MessageText, []byte(wsMessageArg)); err != nil {
					return err
				}
			}
			_, msg, err := conn.Read(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(msg))
			return conn.Close(websocket.StatusNormalClosure, "")
		})
	},
}

func init() {
	wsCmd.Flags().StringVarP(&wsMessageArg, "message", "m", "", "text message to send after connecting")
	wsCmd.Flags().StringArrayVarP(&wsHeaderArg, "header", "H", nil, "handshake header \"Key: Value\"")
	wsCmd.Flags().DurationVarP(&wsTimeoutArg, "timeout", "t", 30*time.Second, "connection timeout")
	rootCmd.AddCommand(wsCmd)
}
