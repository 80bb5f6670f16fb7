package main

import "os"

func main() {
	cmd := newRootCmd()
	os.Exit(exitCode(cmd.Execute(), os.Stderr, cmd))
}
