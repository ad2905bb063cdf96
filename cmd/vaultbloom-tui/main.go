package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vaultbloom/vaultbloom/internal/store"
	"github.com/vaultbloom/vaultbloom/internal/syncrpc"
	"github.com/vaultbloom/vaultbloom/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var socketPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/vaultbloom/config.yml)")
	flag.StringVar(&socketPath, "socket", "", "override socket path to connect to the vaultbloom daemon")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Vaultbloom - Vault Client\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if socketPath != "" {
		cfg.SocketPath = socketPath
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig) error {
	client, err := syncrpc.Dial(cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("cannot connect to vaultbloom daemon at %s: %w\nIs the daemon running? Start it with: vaultbloom", cfg.SocketPath, err)
	}
	defer client.Close()

	// Second connection for the status long-poll; calls on one client
	// are serialized.
	watcher, err := syncrpc.Dial(cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("cannot connect to vaultbloom daemon at %s: %w", cfg.SocketPath, err)
	}
	defer watcher.Close()

	ds := store.New(client, store.WithWatchAPI(watcher))
	ds.Start(context.Background())
	defer ds.Stop()

	app, cleanup := tui.NewUI(ds)
	defer cleanup()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
