package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/liveserve-dev/liveserve/internal/config"
	"github.com/liveserve-dev/liveserve/internal/server"
)

func serveCmd() *cobra.Command {
	var (
		host        string
		port        int
		wsPort      int
		triggerPort int
		watch       bool
		openBrowser bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "liveserve [dir]",
		Short: "Serve a directory with live reload",
		Long: `Serve a static directory tree over HTTP with websocket live reload.

Browsers subscribing to the reload endpoint are refreshed whenever a
reload is triggered, either by the built-in file watcher (--watch) or
by an external tool posting to the localhost trigger endpoint:

  curl -X POST http://127.0.0.1:<port+1>/reload

Examples:
  liveserve
  liveserve ./public --watch
  liveserve --port=8080 --host=0.0.0.0
  liveserve ./site --ws-port=8090`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runServe(dir, serveFlags{
				host:        host,
				port:        port,
				wsPort:      wsPort,
				triggerPort: triggerPort,
				watch:       watch,
				openBrowser: openBrowser,
				verbose:     verbose,
			})
		},
	}

	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from liveserve.json)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to serve on (default from liveserve.json)")
	cmd.Flags().IntVar(&wsPort, "ws-port", 0, "Dedicated websocket port (default: share the main port)")
	cmd.Flags().IntVar(&triggerPort, "trigger-port", 0, "Localhost trigger port (default: port + 1)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Watch the served directory and reload on change")
	cmd.Flags().BoolVarP(&openBrowser, "open", "o", false, "Open browser on start")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	return cmd
}

type serveFlags struct {
	host        string
	port        int
	wsPort      int
	triggerPort int
	watch       bool
	openBrowser bool
	verbose     bool
}

func runServe(dir string, flags serveFlags) error {
	// Load config from the served directory
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if flags.host != "" {
		cfg.Server.Host = flags.host
	}
	if flags.port > 0 {
		// The trigger port tracks the main port unless set explicitly.
		defaulted := cfg.Server.TriggerPort == cfg.Server.Port+1
		cfg.Server.Port = flags.port
		if defaulted && flags.triggerPort == 0 {
			cfg.Server.TriggerPort = flags.port + 1
		}
	}
	if flags.wsPort > 0 {
		cfg.Server.WSPort = flags.wsPort
	}
	if flags.triggerPort > 0 {
		cfg.Server.TriggerPort = flags.triggerPort
	}
	if flags.watch {
		cfg.Watch.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Print banner
	printBanner()
	fmt.Println()
	info("Serving %s", cfg.RootPath())
	for _, url := range serveURLs(cfg) {
		info("  %s", url)
	}
	info("Trigger:  http://%s/reload", cfg.TriggerAddress())
	if cfg.Watch.Enabled {
		info("Watching for changes")
	} else {
		info("Watch disabled; reload with: curl -X POST http://%s/reload", cfg.TriggerAddress())
	}
	fmt.Println()

	srv := server.New(server.Options{
		Config: cfg,
		Logger: log,
		OnReload: func(clients int) {
			if clients > 0 {
				success("Reloaded %d browsers", clients)
			}
		},
	})

	// Handle signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		cancel()
		srv.Stop()
	}()

	// Open browser if requested
	if flags.openBrowser {
		go openURL(cfg.URL())
	}

	return srv.Start(ctx)
}

// serveURLs lists the URLs the site is reachable at. Binding a wildcard
// host expands to every non-loopback IPv4 address on the machine.
func serveURLs(cfg *config.Config) []string {
	host := cfg.Server.Host
	port := strconv.Itoa(cfg.Server.Port)

	if host != "0.0.0.0" && host != "" && host != "::" {
		return []string{cfg.URL()}
	}

	urls := []string{"http://127.0.0.1:" + port}
	for _, addr := range lanAddresses() {
		urls = append(urls, "http://"+addr+":"+port)
	}
	return urls
}

// lanAddresses returns the machine's non-loopback IPv4 addresses.
func lanAddresses() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var out []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				out = append(out, ip4.String())
			}
		}
	}
	return out
}

// openURL opens a URL in the default browser.
func openURL(url string) {
	var cmd *exec.Cmd

	switch {
	case commandExists("xdg-open"):
		cmd = exec.Command("xdg-open", url)
	case commandExists("open"):
		cmd = exec.Command("open", url)
	case commandExists("start"):
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}

	cmd.Start()
}

// commandExists checks if a command exists in PATH.
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
