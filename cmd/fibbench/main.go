// Command fibbench computes and benchmarks Fibonacci numbers over 128-bit
// wrapping arithmetic, as a CLI or an HTTP service.
package main

import (
	"context"
	"os"

	"github.com/agbru/fibbench/internal/app"
)

func main() {
	os.Exit(app.Execute(context.Background(), os.Args, os.Stdout, os.Stderr))
}
