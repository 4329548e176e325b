package main

import (
	"fmt"
	"os"

	"github.com/km-arc/go-tivi/app/console"
)

func main() {
	if err := console.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
