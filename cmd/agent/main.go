package main

import (
	"flag"
	"fmt"
	"log"

	"shuttle/internal/agent"
	"shuttle/internal/config"
	"shuttle/internal/logger"

	"go.uber.org/zap"
)

func main() {
	name := flag.String("name", "Server-A", "Name this agent reports")
	host := flag.String("host", "localhost", "Host the coordinator reaches this agent on")
	port := flag.Int("port", 50051, "Port to listen on")
	level := flag.String("log-level", "info", "Log level")
	flag.Parse()

	zlog, err := logger.New(config.LogConfig{Level: *level, Format: "console"})
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	srv := agent.NewServer(*name, *host, *port, agent.HostSampler, zlog.Named("agent"))
	if err := srv.Start(fmt.Sprintf(":%d", *port)); err != nil {
		zlog.Fatal("agent stopped", zap.Error(err))
	}
}
