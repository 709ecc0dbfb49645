package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hakerfromrussia/miolink/internal/device/goble"
	"github.com/hakerfromrussia/miolink/internal/link"
	"github.com/hakerfromrussia/miolink/internal/locator"
	"github.com/hakerfromrussia/miolink/internal/signal"
	"github.com/hakerfromrussia/miolink/pkg/config"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Locate the band, maintain the link and stream the directional signal",
	Long: `Scans for the sensor band, connects, subscribes to the sensor stream
and prints every change of the classified directional signal until
interrupted. The link reconnects silently after transient drops.

Examples:
  # Locate by the configured name filter and run
  miolink run

  # Skip scanning and connect to a known address
  miolink run --address AA:BB:CC:DD:EE:FF

  # Override the name filter
  miolink run --name MIO-BAND`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runName    string
	runAddress string
)

func init() {
	runCmd.Flags().StringVar(&runName, "name", "", "Advertised name substring to match (overrides config)")
	runCmd.Flags().StringVar(&runAddress, "address", "", "Peripheral address; skips scanning when set")
}

func runRun(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if runName != "" {
		cfg.DeviceName = runName
	}

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	ossignal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer ossignal.Stop(sigChan)
	go func() {
		<-sigChan
		cancel()
	}()

	// Locate the band unless an address was given
	address := runAddress
	if address == "" {
		scanner, err := goble.NewScanner()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Scanning for %q... Press Ctrl+C to stop.\n", cfg.DeviceName)
		address, err = locator.New(scanner, logger).Find(ctx, cfg.DeviceName)
		if err != nil {
			return err
		}
	}

	// Wire the bridge: transport -> link manager -> publisher
	transport := goble.NewTransport(logger)
	publisher := signal.NewPublisher()
	manager := link.NewManager(transport, publisher, logger, &link.Options{
		ConnectTimeout: cfg.ConnectTimeout.Std(),
		RetryInterval:  cfg.RetryInterval.Std(),
	})
	manager.Start(ctx)
	defer func() { _ = manager.Disconnect() }()

	if err := manager.Connect(address); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Connecting to %s. Streaming signal, press Ctrl+C to stop...\n", address)

	// Stream signal changes until interrupted
	for {
		select {
		case <-ctx.Done():
			return nil
		case code, ok := <-publisher.Updates():
			if !ok {
				return nil
			}
			printSignal(code)
		}
	}
}

var (
	leftColor  = color.New(color.FgYellow)
	rightColor = color.New(color.FgCyan)
	stopColor  = color.New(color.FgRed)
)

// printSignal writes one line per published signal change.
func printSignal(code signal.Code) {
	ts := time.Now().Format("15:04:05.000")
	switch code {
	case signal.CodeLeft:
		leftColor.Printf("%s  %d  LEFT\n", ts, code)
	case signal.CodeRight:
		rightColor.Printf("%s  %d  RIGHT\n", ts, code)
	case signal.CodeStop:
		stopColor.Printf("%s  %d  STOP\n", ts, code)
	default:
		fmt.Printf("%s  %d  UNSPECIFIED\n", ts, code)
	}
}
