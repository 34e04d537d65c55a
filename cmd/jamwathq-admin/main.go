package main

import (
	"jamwathq/internal/cli"
	"jamwathq/internal/config"
)

func main() {
	cli.Execute(config.Load())
}
