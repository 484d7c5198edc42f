package main

import (
	"os"

	"github.com/junaidrashid-git/yar-marketplace/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
