package cmd

import (
	"github.com/shiroyk/crumb/cookiejar"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <url> <set-cookie>",
	Short: "store a Set-Cookie value received from the url",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJar(currentConfig(cmd), func(jar *cookiejar.Jar) error {
			return jar.SetCookie(args[1], args[0])
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear [url]",
	Short: "remove the cookies sent to the url, every cookie without it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJar(currentConfig(cmd), func(jar *cookiejar.Jar) error {
			if len(args) > 0 {
				return jar.RemoveCookies(args[0])
			}
			return jar.RemoveAllCookies()
		})
	},
}

func init() {
	rootCmd.AddCommand(setCmd, clearCmd)
}
