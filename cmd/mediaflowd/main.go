// Command mediaflowd runs the mediaflow daemon in the foreground. It is
// equivalent to `mediaflow daemon` and exists for service managers that
// expect a dedicated binary.
package main

import (
	"context"
	"flag"
	"log"

	"mediaflow/internal/config"
	"mediaflow/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	noWorkers := flag.Bool("no-workers", false, "Do not start the built-in detection and markup workers")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{DisableWorkers: *noWorkers}); err != nil {
		log.Fatalf("run daemon: %v", err)
	}
}
