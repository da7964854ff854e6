package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"pwmdual/core"
	"pwmdual/host/config"
	"pwmdual/host/mcu"
	"pwmdual/host/serial"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	simulate   = flag.Bool("sim", false, "Use the in-process simulated MCU")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var debug core.DebugWriter
	if cfg.Verbose {
		debug = func(msg string) { fmt.Fprintln(os.Stderr, msg) }
		core.SetDebugWriter(debug)
		core.SetDebugEnabled(true)
	}

	s := &session{
		mcu: mcu.NewMCU(),
		cfg: cfg,
		out: os.Stdout,
	}
	s.mcu.Debug = debug

	if cfg.Simulate {
		fmt.Println("Starting simulated MCU...")
		s.sim = mcu.NewSimulator()
		defer s.sim.Close()
		s.mcu.ConnectPort(s.sim.Port())
	} else {
		fmt.Printf("Connecting to MCU on %s...\n", cfg.Device)
		err := s.mcu.ConnectWithConfig(&serial.Config{
			Device:      cfg.Device,
			Baud:        cfg.Baud,
			ReadTimeout: cfg.ReadTimeoutMS,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
			os.Exit(1)
		}
	}
	defer s.mcu.Close()

	if err := s.mcu.RetrieveDictionary(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to retrieve dictionary: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Connected to %s\n", s.mcu.Dictionary().Version)

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		quit, err := s.execute(strings.TrimSpace(scanner.Text()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		if quit {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges the config file with command line overrides
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}
	if *device != "" {
		cfg.Device = *device
	}
	if *simulate {
		cfg.Simulate = true
	}
	if *verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}
