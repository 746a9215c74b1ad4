package main

import (
	"os"

	"github.com/scan-io-git/lintgate/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
