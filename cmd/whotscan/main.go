package main

import "github.com/mcoot/whotscan/internal/cli"

func main() {
	cli.Execute()
}
