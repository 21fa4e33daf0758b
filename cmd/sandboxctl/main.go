// sandboxctl drives a remote sandbox workspace from the command line:
// exec, apply-patch, upload/download, preview links, and cleanup.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
