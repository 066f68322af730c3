package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dop251/goja"
	"github.com/shiroyk/crumb/cookiejar"
	"github.com/shiroyk/crumb/fetch"
	"github.com/shiroyk/crumb/js"
	"github.com/spf13/cobra"
)

var runTimeoutArg time.Duration

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "run a JavaScript file with the cookieJar and http globals, - reads stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			code []byte
			err  error
		)
		if args[0] == "-" {
			code, err = io.ReadAll(cmd.InOrStdin())
		} else {
			code, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}

		cfg := currentConfig(cmd)
		return withJar(cfg, func(jar *cookiejar.Jar) error {
			opt := cfg.Fetch
			opt.Jar = jar
			opt.Logger = slog.Default()
			fetcher := fetch.NewFetcher(opt)

			var initErr error
			vm := js.NewVM(js.WithInitial(func(rt *goja.Runtime) {
				cookies, err := (&js.CookieJarModule{Jar: jar}).Instantiate(rt)
				if err != nil {
					initErr = err
					return
				}
				client, err := (&js.HTTPModule{Fetch: fetcher}).Instantiate(rt)
				if err != nil {
					initErr = err
					return
				}
				_ = rt.Set("cookieJar", cookies)
				_ = rt.Set("http", client)
			}))
			if initErr != nil {
				return initErr
			}

			ctx, cancel := context.WithTimeout(context.Background(), runTimeoutArg)
			defer cancel()
			value, err := vm.RunString(ctx, string(code))
			if err != nil {
				return err
			}
			if result, _ := js.Unwrap(value); result != nil {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), result)
			}
			return err
		})
	},
}

func init() {
	runCmd.Flags().DurationVarP(&runTimeoutArg, "timeout", "t", time.Minute, "script run timeout")
	rootCmd.AddCommand(runCmd)
}
