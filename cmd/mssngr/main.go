// Command mssngr runs one topic-oriented pub/sub broker node (spec.md
// §1). Configuration comes from the MSSNGR_CONFIG path (default
// config.toml); MSSNGR_LOG selects the log level.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arghyadipchak/mssngr/internal/config"
	"github.com/arghyadipchak/mssngr/internal/logging"
	"github.com/arghyadipchak/mssngr/internal/mssngr"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code directly (spec.md §6: "0 on clean
// termination; non-zero on config or bind failure") rather than calling
// os.Exit inline, so deferred cleanup always runs.
func run() int {
	log := logging.New()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mssngr: config error: %v\n", err)
		return 1
	}

	node := mssngr.New(cfg, log)
	if err := node.Run(); err != nil {
		log.Error("node failed to start", zap.Error(err))
		return 1
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	node.Shutdown()
	return 0
}
