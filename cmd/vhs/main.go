package main

import "github.com/taminomara/go-vhs/internal/cli"

func main() {
	cli.Execute()
}
