package main

import (
	"fmt"
	"os"

	"github.com/ZJUSCT/CSArena/internal/cli"
)

var Version = "dev-build"

func main() {
	fmt.Fprintf(os.Stderr, "ZJUSCT CSArena %s - Group Contests and Scoring\n\n", Version)

	if err := cli.Execute(Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
