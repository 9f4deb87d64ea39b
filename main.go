package main

import (
	"os"

	"github.com/bryan-buckman/recallfinder/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
