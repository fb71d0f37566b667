// Command cryptotriage inspects disks, disk images and mounted directories
// for encrypted volumes and reports what it finds.
//
//	cryptotriage analyze evidence.e01
//	cryptotriage analyze --physical 0 --skip-metadata
//	cryptotriage volumes evidence.img
//	cryptotriage sources
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/aarsakian/CryptoTriage/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.RootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
