// ABOUTME: Entry point for the lanprobe CLI
// ABOUTME: Runs one local network permission probe and exits with its result
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/lanprobe/internal/config"
	"github.com/Resonate-Protocol/lanprobe/internal/discovery"
	"github.com/Resonate-Protocol/lanprobe/internal/foreground"
	"github.com/Resonate-Protocol/lanprobe/internal/ui"
	"github.com/Resonate-Protocol/lanprobe/internal/version"
	"github.com/Resonate-Protocol/lanprobe/pkg/probe"
	tea "github.com/charmbracelet/bubbletea"
)

// Exit codes
const (
	exitGranted    = 0
	exitNotGranted = 1
	exitSetup      = 2
	exitNoResult   = 3
)

var showVersion = flag.Bool("version", false, "Print version and exit")

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lanprobe: %v\n", err)
		return exitSetup
	}

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return exitGranted
	}

	useTUI := !cfg.NoTUI

	// Set up logging
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lanprobe: error opening log file: %v\n", err)
		return exitSetup
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s %s by %s (backend: %s)", version.Product, version.Version, version.Manufacturer, cfg.Backend)

	adv, err := discovery.NewAdvertiser(cfg.Backend)
	if err != nil {
		log.Printf("Failed to create advertiser: %v", err)
		return exitSetup
	}

	descriptor := cfg.Descriptor()

	// Without a TUI there is no focus signal, so the shell counts as foreground
	var fg probe.Foreground = foreground.Always
	var tracker *foreground.Tracker
	if useTUI {
		tracker = foreground.NewTracker(foreground.StageRunning)
		fg = tracker
	}

	p := probe.New(adv, fg, probe.WithDescriptor(descriptor))
	defer p.Close()

	// TUI setup
	var tuiProg *tea.Program
	var control *ui.Control
	tuiDone := make(chan struct{})

	if useTUI {
		control = ui.NewControl()
		tuiProg, err = ui.Run(tracker, descriptor, control)
		if err != nil {
			log.Printf("Failed to start TUI: %v", err)
			return exitSetup
		}
		go func() {
			defer close(tuiDone)
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
		go stateUpdateLoop(p, tuiProg)
	} else {
		close(tuiDone)
	}

	results := make(chan bool, 1)
	if err := p.Start(func(granted bool) { results <- granted }); err != nil {
		log.Printf("Failed to start probe: %v", err)
		return exitSetup
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var quit <-chan ui.QuitMsg
	if control != nil {
		quit = control.Quit
	}

	code := exitNoResult
	select {
	case granted := <-results:
		log.Printf("Local network access granted: %v", granted)
		if granted {
			code = exitGranted
		} else {
			code = exitNotGranted
		}
		if tuiProg != nil {
			tuiProg.Send(ui.ResultMsg{Granted: granted})
		} else {
			printResult(granted)
		}
	case <-quit:
		log.Printf("Received quit signal from TUI")
	case <-sigChan:
		log.Printf("Shutdown signal received")
	case <-time.After(cfg.Timeout):
		log.Printf("No result after %v", cfg.Timeout)
	}

	if err := p.Close(); err != nil {
		log.Printf("Error closing probe: %v", err)
	}
	if tuiProg != nil {
		if code == exitNoResult {
			tuiProg.Quit()
		}
		<-tuiDone
	}

	log.Printf("Probe finished with exit code %d", code)
	return code
}

// stateUpdateLoop mirrors the probe state into the TUI until the probe ends
func stateUpdateLoop(p *probe.Probe, prog *tea.Program) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	last := probe.State(-1)
	for {
		select {
		case <-p.Done():
			return
		case <-ticker.C:
			if st := p.State(); st != last {
				last = st
				prog.Send(ui.StatusMsg{State: st})
			}
		}
	}
}

func printResult(granted bool) {
	if granted {
		fmt.Println("Local network access: granted")
		return
	}
	fmt.Println("Local network access: not granted")
	fmt.Println("Enable local network access for this app in system settings.")
}
