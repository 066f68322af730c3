package main

import "github.com/shiroyk/crumb/cmd"

func main() {
	cmd.Execute()
}
