// cmd/photo-timeline/main.go
package main

import (
	"github.com/bstardust/photo-timeline/internal/logger"
	"github.com/bstardust/photo-timeline/pkg/cli"
)

func main() {
	// Initialize logger
	logger.Init("info")

	// Execute CLI
	cli.Execute()
}
