package main

import (
	"os"

	"github.com/RennanRnz/rfv-project/cmd/rfv/commands"
)

// main is the entry point for the RFV CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/rfv [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
