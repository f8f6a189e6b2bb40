// Command gemctl is the gemstore admin CLI: schema migrations, catalog
// imports, search reindexing and admin token issuance.
package main

import (
	"os"

	"github.com/timmy/gemstore/internal/logger"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "gemctl",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	if err := newRootCmd(appLogger).Execute(); err != nil {
		os.Exit(1)
	}
}
