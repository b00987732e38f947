package main

import (
	"github.com/mxchai/bullbear/internal/cli"
)

func main() {
	cli.Run()
}
