package main

import (
	"os"

	"github.com/codalotl/drafter/internal/cli"
)

func main() {
	code, _ := cli.Run(os.Args, nil)
	os.Exit(code)
}
