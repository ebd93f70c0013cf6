// Command dhcp-agentd runs the DHCPv4 intercepting agent: one capture
// port per configured bridge interface, relaying or intercepting DHCP
// traffic per the mode set in its config file.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/open-switch/opx-dhcp-agent/internal/logging"
	"github.com/open-switch/opx-dhcp-agent/pkg/agent"
	"github.com/open-switch/opx-dhcp-agent/pkg/config"
	"github.com/open-switch/opx-dhcp-agent/pkg/dispatch"
)

const defaultConfigLoc = `/etc/opx-dhcp-agent/agent.conf`

var (
	file    = flag.String("file", defaultConfigLoc, "Path to the agent's interface configuration file")
	verbose = flag.Int("verbose", 0, "Log verbosity: 0=WARN, 1=INFO, 2=DEBUG")
)

func main() {
	flag.Parse()

	log := logging.New(os.Stderr, verbosityLevel(*verbose))

	fc, err := config.LoadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dhcp-agentd: failed to load %s: %v\n", *file, err)
		os.Exit(1)
	}
	if _, err := fc.Snapshot(); err != nil {
		fmt.Fprintf(os.Stderr, "dhcp-agentd: invalid config %s: %v\n", *file, err)
		os.Exit(1)
	}

	watcher, err := config.NewWatcher(*file, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dhcp-agentd: failed to watch %s: %v\n", *file, err)
		os.Exit(1)
	}
	defer watcher.Close()

	a := agent.New(nil, log)
	d, err := dispatch.New(a, watcher, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dhcp-agentd: failed to start dispatcher: %v\n", err)
		os.Exit(1)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		d.Run(stop)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Infof("dhcp-agentd: shutting down")
	close(stop)
	<-done
}

func verbosityLevel(v int) logging.Level {
	switch {
	case v <= 0:
		return logging.WARN
	case v == 1:
		return logging.INFO
	default:
		return logging.DEBUG
	}
}
