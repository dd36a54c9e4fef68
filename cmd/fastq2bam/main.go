// fastq2bam converts paired fastq files to an unaligned BAM with a PCAWG
// style read-group header.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/me/fastq2bam/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fastq2bam:", err)
		os.Exit(cli.ExitCode(err))
	}
}
