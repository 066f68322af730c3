package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shiroyk/crumb/cookiejar"
	"github.com/shiroyk/crumb/fetch"
	"github.com/spf13/cobra"
)

var (
	fetchMethodArg  string
	fetchHeaderArg  []string
	fetchDataArg    string
	fetchIncludeArg bool
	fetchBodyArg    bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "fetch the url through the cookie jar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		headers, err := parseHeaders(fetchHeaderArg)
		if err != nil {
			return err
		}
		var body any
		if fetchDataArg != "" {
			body = fetchDataArg
		}

		cfg := currentConfig(cmd)
		return withJar(cfg, func(jar *cookiejar.Jar) error {
			opt := cfg.Fetch
			opt.Jar = jar
			opt.Logger = slog.Default()

			res, err := fetch.NewFetcher(opt).Request(fetchMethodArg, args[0], body, headers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s %s\n", res.Proto, res.Status)
			if fetchIncludeArg {
				_ = res.Header.Write(out)
			}
			cookies, err := jar.GetCookieString(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Cookie: %s\n", cookies)
			if fetchBodyArg {
				_, _ = fmt.Fprintln(out, res.String())
			}
			return nil
		})
	},
}

// parseHeaders parses the "Key: Value" header flags.
func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, h := range values {
		k, v, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q, expected \"Key: Value\"", h)
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers, nil
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchMethodArg, "method", "X", http.MethodGet, "request method")
	fetchCmd.Flags().StringArrayVarP(&fetchHeaderArg, "header", "H", nil, "request header \"Key: Value\"")
	fetchCmd.Flags().StringVarP(&fetchDataArg, "data", "d", "", "request body")
	fetchCmd.Flags().BoolVarP(&fetchIncludeArg, "include", "i", false, "output the response headers")
	fetchCmd.Flags().BoolVarP(&fetchBodyArg, "body", "b", false, "output the response body")
	rootCmd.AddCommand(fetchCmd)
}
