package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/shiroyk/crumb/browser"
	"github.com/shiroyk/crumb/cookiejar"
	"github.com/spf13/cobra"
)

var importDomainArg string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "import the cookies of a Firefox, Chrome or Netscape cookie file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJar(currentConfig(cmd), func(jar *cookiejar.Jar) error {
			result, err := browser.Import(jar, args[0], importDomainArg, nil)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: imported %d, rejected %d\n",
				result.Format, result.Imported, result.Rejected)
			return err
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "export the cookies as a Netscape cookie file, stdout without file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJar(currentConfig(cmd), func(jar *cookiejar.Jar) error {
			cookies, err := jar.All()
			if err != nil {
				return err
			}
			var w io.Writer = cmd.OutOrStdout()
			if len(args) > 0 {
				f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return browser.WriteNetscape(w, cookies)
		})
	},
}

func init() {
	importCmd.Flags().StringVarP(&importDomainArg, "domain", "d", "", "import only the cookies of the domain and its subdomains")
	rootCmd.AddCommand(importCmd, exportCmd)
}
