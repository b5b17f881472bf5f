package main

import (
	"github.com/mchmarny/celleval/pkg/cli"
)

func main() {
	cli.Execute()
}
