// Package main provides the engage CLI.
package main

import "github.com/mesh-intelligence/engage/internal/cli"

func main() {
	cli.Execute()
}
