// Package main implements the verbdrill server: the HTTP API that schedules
// conjugation reviews and grades learner answers, plus its operational
// commands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
