package main

import (
	"log/slog"
	"os"

	"github.com/ppiankov/gramify/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		slog.Error("gramify failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
