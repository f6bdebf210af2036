// flipbook-ctl sends control events to a running flipbookd over its unix socket.
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd := NewRootCommand(ipcTransport{})
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
