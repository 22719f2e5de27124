package main

import "github.com/cometmc/comet/internal/cli"

func main() {
	cli.Execute()
}
