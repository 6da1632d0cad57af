package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/switchcast/switchcast/pkg/config"
)

func TestRunMain_ReturnsNonZeroWhenConfigLoadFails(t *testing.T) {
	var stderr bytes.Buffer
	exitCode := runMain(context.Background(), &stderr, daemonDeps{
		loadConfig: func() (config.Config, error) {
			return config.Config{}, errors.New("boom")
		},
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {},
		signalStop:   func(c chan<- os.Signal) {},
	})

	if exitCode != 1 {
		t.Fatalf("exitCode=%d, want 1", exitCode)
	}
	if stderr.String() == "" {
		t.Fatal("expected stderr output for startup error")
	}
}

func TestRunDaemon_RequiresDependencies(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))

	err := runDaemon(context.Background(), logger, daemonDeps{})
	if err == nil {
		t.Fatal("expected error for missing loadConfig dependency")
	}

	err = runDaemon(context.Background(), logger, daemonDeps{
		loadConfig: config.LoadFromEnv,
	})
	if err == nil {
		t.Fatal("expected error for missing signal dependencies")
	}
}
