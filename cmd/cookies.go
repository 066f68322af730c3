package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/shiroyk/crumb/cookiejar"
	"github.com/spf13/cobra"
)

var (
	cookiesQueryArg  string
	cookiesHeaderArg bool
)

var cookiesCmd = &cobra.Command{
	Use:   "cookies [url]",
	Short: "list the cookies sent to the url, every cookie without it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cookiesHeaderArg && len(args) == 0 {
			return fmt.Errorf("--header requires the url")
		}
		return withJar(currentConfig(cmd), func(jar *cookiejar.Jar) error {
			if cookiesHeaderArg {
				str, err := jar.GetCookieString(args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), str)
				return err
			}

			var (
				cookies []*cookiejar.Cookie
				err     error
			)
			if len(args) > 0 {
				cookies, err = jar.GetCookies(args[0])
			} else {
				cookies, err = jar.All()
			}
			if err != nil {
				return err
			}
			out, err := formatCookies(cookies, cookiesQueryArg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		})
	},
}

// formatCookies returns the cookies as indented JSON, selected by the
// optional JSONPath query.
func formatCookies(cookies []*cookiejar.Cookie, query string) (string, error) {
	if cookies == nil {
		cookies = []*cookiejar.Cookie{}
	}
	bytes, err := json.Marshal(cookies)
	if err != nil {
		return "", err
	}
	var doc any
	if doc, err = oj.Parse(bytes); err != nil {
		return "", err
	}
	if query != "" {
		x, err := jp.ParseString(query)
		if err != nil {
			return "", err
		}
		doc = x.Get(doc)
	}
	return oj.JSON(doc, &ojg.Options{Indent: 2, Sort: true}), nil
}

func init() {
	cookiesCmd.Flags().StringVarP(&cookiesQueryArg, "query", "q", "", "JSONPath to select from the cookies, e.g. $[*].name")
	cookiesCmd.Flags().BoolVar(&cookiesHeaderArg, "header", false, "output the Cookie header value of the url")
	rootCmd.AddCommand(cookiesCmd)
}
