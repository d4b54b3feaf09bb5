package main

import (
	"os"

	"github.com/ppiankov/docparity/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
