// Package main is the entry point for the starhook CLI.
package main

import "starhook.dev/pkg/starhook/cmd"

func main() {
	cmd.Execute()
}
