// Command blind-control actuates relay-driven window blinds over GPIO and
// serves the control API over HTTP, with optional MQTT event publishing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sweeney/blind-control/internal/config"
	"github.com/sweeney/blind-control/internal/control"
	"github.com/sweeney/blind-control/internal/metrics"
	"github.com/sweeney/blind-control/internal/mqtt"
	"github.com/sweeney/blind-control/internal/relay"
	"github.com/sweeney/blind-control/internal/status"
	"github.com/sweeney/blind-control/internal/store"
	"github.com/sweeney/blind-control/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/blind-control/config.yaml", "Configuration file")
	httpAddr := flag.String("http", "", `HTTP listen address (overrides config, "off" disables)`)
	broker := flag.String("broker", "", `MQTT broker address (overrides config, "off" disables)`)
	sim := flag.Bool("sim", false, "Force the simulated relay driver (no GPIO)")
	logFile := flag.String("log-file", "", "Log to this file with rotation (default stderr)")
	printState := flag.Bool("print-state", false, "Print current channel positions and exit")

	flag.Parse()

	if *logFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	applyOverrides(&cfg, *httpAddr, *broker, *sim)

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// applyOverrides folds command-line overrides into the loaded config.
// "off" disables the corresponding subsystem.
func applyOverrides(cfg *config.Config, httpAddr, broker string, sim bool) {
	switch {
	case httpAddr == "off":
		cfg.HTTPAddr = ""
	case httpAddr != "":
		cfg.HTTPAddr = httpAddr
	}
	switch {
	case broker == "off":
		cfg.Broker = ""
	case broker != "":
		cfg.Broker = broker
	}
	if sim {
		cfg.Hardware = false
	}
}

func run(cfg config.Config, printState bool) error {
	st, err := store.Open(cfg.StateFile)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	positions, err := st.Load()
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	// Print state mode
	if printState {
		fmt.Print(formatState(positions))
		return nil
	}

	// Initialize relay driver
	var driver relay.Driver
	if cfg.Hardware {
		real, err := relay.NewReal(cfg.Chip, cfg.Pins(), cfg.ActiveHigh)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		driver = real
	} else {
		driver = relay.NewSim()
		log.Printf("hardware disabled, using simulated relay driver")
	}
	defer driver.Close()

	dispatcher := control.New(dispatchConfig(cfg), driver, st, positions)

	rec := metrics.NewPrometheus()
	dispatcher.SetRecorder(rec)

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	tracker.SeedChannels(dispatcher.State())

	// Initialize MQTT. A broker that is down must not keep the blinds
	// uncontrollable, so connection failure only disables publishing.
	var publisher *mqtt.RealPublisher
	if cfg.Broker != "" {
		publisher, err = mqtt.NewRealPublisher(cfg.Broker)
		if err != nil {
			log.Printf("mqtt connect failed, event publishing disabled: %v", err)
			publisher = nil
		} else {
			defer publisher.Close()
			tracker.SetMQTTConnected(publisher.IsConnected())
		}
	}

	dispatcher.SetEventSink(func(ev control.Event) {
		tracker.RecordCommand(ev.Nr, ev.Action, ev.Position, ev.Timestamp)
		if publisher != nil {
			if err := publisher.Publish(ev); err != nil {
				log.Printf("mqtt publish error: %v", err)
				// Don't crash on publish failure
			}
			tracker.SetMQTTConnected(publisher.IsConnected())
		}
	})

	if publisher != nil {
		startup := mqtt.SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true}
		if err := publisher.PublishSystem(startup); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	// Start HTTP server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, dispatcher, tracker, rec.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http server listening on %s", cfg.HTTPAddr)
	}

	log.Printf("started: channels=%d max=%d press=%v state=%s",
		len(cfg.Channels), cfg.MaxPosition, cfg.Press(), cfg.StateFile)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	log.Printf("received %v, shutting down", s)

	if publisher != nil {
		signalName := "UNKNOWN"
		if s == syscall.SIGINT {
			signalName = "SIGINT"
		} else if s == syscall.SIGTERM {
			signalName = "SIGTERM"
		}
		shutdown := mqtt.SystemEvent{
			Timestamp: time.Now(),
			Event:     "SHUTDOWN",
			Reason:    signalName,
			Retained:  true,
		}
		if err := publisher.PublishSystem(shutdown); err != nil {
			log.Printf("failed to publish shutdown event: %v", err)
		} else {
			log.Printf("published shutdown event")
		}
	}
	return nil
}

// dispatchConfig converts the file config into the dispatcher's form.
func dispatchConfig(cfg config.Config) control.Config {
	channels := make(map[int]control.Pins, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		channels[ch.Nr] = control.Pins{
			Up:   *ch.UpPin,
			Down: *ch.DownPin,
			Stop: *ch.StopPin,
		}
	}
	return control.Config{
		Channels:  channels,
		Params:    cfg.Params(),
		Press:     cfg.Press(),
		StepPress: cfg.StepPress(),
	}
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		HTTPAddr:     cfg.HTTPAddr,
		Broker:       cfg.Broker,
		StateFile:    cfg.StateFile,
		MaxPosition:  cfg.MaxPosition,
		Hardware:     cfg.Hardware,
		PressMs:      int64(cfg.PressMs),
		FullTravelMs: int64(cfg.FullTravelMs),
	}
}

// formatState renders the persisted positions for -print-state.
func formatState(positions map[int]int) string {
	if len(positions) == 0 {
		return "no persisted state\n"
	}
	nrs := make([]int, 0, len(positions))
	for nr := range positions {
		nrs = append(nrs, nr)
	}
	sort.Ints(nrs)

	var b strings.Builder
	for _, nr := range nrs {
		fmt.Fprintf(&b, "channel %d: %d\n", nr, positions[nr])
	}
	return b.String()
}
