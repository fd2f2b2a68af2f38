// Command shower-regulator holds an electric shower's outlet water at a
// setpoint by phase-controlling the heating element, and optionally reports
// to MQTT and over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/shower-regulator/internal/adc"
	"github.com/sweeney/shower-regulator/internal/config"
	"github.com/sweeney/shower-regulator/internal/firing"
	"github.com/sweeney/shower-regulator/internal/gpio"
	"github.com/sweeney/shower-regulator/internal/i2c"
	"github.com/sweeney/shower-regulator/internal/mqtt"
	"github.com/sweeney/shower-regulator/internal/regulator"
	"github.com/sweeney/shower-regulator/internal/status"
	"github.com/sweeney/shower-regulator/internal/web"
)

type options struct {
	configPath string
	poll       time.Duration
	settle     time.Duration
	broker     string
	heartbeat  time.Duration
	httpAddr   string
	printState bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "/etc/shower-regulator.yaml", "YAML config path (missing file uses defaults)")
	flag.DurationVar(&o.poll, "poll", 200*time.Microsecond, "Main loop interval")
	flag.DurationVar(&o.settle, "settle", 2*time.Second, "Delay before taking the ambient baseline")
	flag.StringVar(&o.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&o.httpAddr, "http", "", "HTTP status address (empty to disable)")
	flag.BoolVar(&o.printState, "print-state", false, "Print analog inputs and exit")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Analog inputs
	bus, err := i2c.Open(cfg.ADC.Bus)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	defer bus.Close()
	conv, err := adc.NewADS1115(bus.Dev(cfg.ADC.Address), cfg.ADC.FSR)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	defer conv.Close()

	mains := adc.NewChannel(conv, cfg.ADC.Mains)
	button := adc.NewChannel(conv, cfg.ADC.Button)
	sensor := adc.NewChannel(conv, cfg.ADC.Sensor)

	if o.printState {
		return printInputs(os.Stdout, mains, button, sensor, cfg.CelsiusPerCount())
	}

	// Outputs
	chip, err := gpio.OpenChip(cfg.GPIO.Chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	trigger, err := chip.RequestPin(cfg.GPIO.Trigger, cfg.GPIO.ActiveLow)
	if err != nil {
		return fmt.Errorf("init trigger: %w", err)
	}
	defer trigger.Close()

	lines := append(append([]int(nil), cfg.GPIO.Segments...), cfg.GPIO.Selects...)
	bank, err := chip.RequestBank(lines, cfg.GPIO.ActiveLow)
	if err != nil {
		return fmt.Errorf("init display: %w", err)
	}
	defer bank.Close()

	// Zero-cross reference: the comparator line if wired, else the ADC.
	var mainsIn regulator.Analog = mains
	sampled := mains.Sampled
	if cfg.GPIO.ZeroCross != nil {
		crossing := gpio.NewCrossing(cfg.HalfCycle() / 2)
		in, err := chip.WatchCrossing(*cfg.GPIO.ZeroCross, cfg.GPIO.ZeroCrossActiveLow, crossing)
		if err != nil {
			return fmt.Errorf("init zero-cross: %w", err)
		}
		defer in.Close()
		mainsIn, sampled = crossing, crossing.Sampled
		log.Printf("zero-cross: comparator on line %d", *cfg.GPIO.ZeroCross)
	} else {
		log.Printf("zero-cross: sampling AIN%d", cfg.ADC.Mains)
	}

	scheduler := firing.New(trigger, firing.NewTimer(), cfg.HalfCycle())
	scheduler.SetReference(sampled)
	defer func() {
		if err := scheduler.Close(); err != nil {
			log.Printf("release trigger: %v", err)
		}
	}()

	boot := time.Now()
	cycle := regulator.NewCycle(regulator.Parts{
		Mains:    mainsIn,
		Button:   button,
		Sensor:   adc.NewProbe(sensor, cfg.CelsiusPerCount()),
		Firer:    scheduler,
		Segments: bank,
	}, cfg.Regulator(), boot)

	tracker := status.NewTracker(boot, status.Config{
		PollUs:      o.poll.Microseconds(),
		SettleMs:    o.settle.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		MainsHz:     cfg.Mains.Frequency,
		Broker:      o.broker,
		HTTPAddr:    o.httpAddr,
	})

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if o.broker != "" {
		p, err := mqtt.NewRealPublisher(o.broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		// The control loop must never wait on the broker.
		async := mqtt.NewAsync(p, mqtt.DefaultBacklog)
		defer async.Close()
		publisher, mqttStatus = async, p
	}

	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server error: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Let the probe and supply settle before the baseline.
	log.Printf("settling for %v", o.settle)
	select {
	case s := <-sigCh:
		log.Printf("received %v during settle, exiting", s)
		return nil
	case <-time.After(o.settle):
	}

	if err := cycle.Start(time.Now()); err != nil {
		return err
	}
	snap := cycle.Snapshot()
	log.Printf("baseline: ambient=%.1f°C desired=%.0f°C duty=%.3f", snap.Ambient, snap.Desired, snap.Duty)

	tracker.Update(snap, scheduler.State(), scheduler.Stats())
	if publisher != nil {
		tsnap := tracker.Snapshot()
		err := publisher.PublishSystem(mqtt.SystemEvent{
			Timestamp:  tsnap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(tsnap, "STARTUP", ""),
		})
		if err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	log.Printf("started: poll=%v mains=%dHz broker=%q heartbeat=%v", o.poll, cfg.Mains.Frequency, o.broker, o.heartbeat)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	return runLoop(cycle, scheduler, publisher, mqttStatus, tracker, o.heartbeat, time.Now, ticker.C, sigCh)
}

// firingStatus is the read side of the firing scheduler.
type firingStatus interface {
	State() firing.State
	Stats() firing.Stats
}

// runLoop steps the cycle on every tick until a signal arrives. publisher,
// mqttStatus and tracker may be nil.
func runLoop(cycle *regulator.Cycle, fs firingStatus, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	stepErrs := &throttle{every: time.Second}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher == nil {
				return nil
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				refresh(tracker, cycle, fs, mqttStatus)
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			res, err := cycle.Step(t)
			if err != nil {
				stepErrs.report(t, err)
			}

			for _, event := range res.Events {
				log.Printf("event: %s desired=%.0f°C temperature=%.1f°C", event.Type, event.Desired, event.Temperature)
				if publisher == nil {
					continue
				}
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			if hb := cycle.CheckHeartbeat(t, heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v half_cycles=%d updates=%d up=%d down=%d sensor_errors=%d",
					hb.Uptime, hb.Counts.HalfCycles, hb.Counts.ControlUpdates,
					hb.Counts.SetpointUp, hb.Counts.SetpointDown, hb.Counts.SensorErrors)

				if publisher != nil {
					hbEvent := mqtt.SystemEvent{Timestamp: hb.Timestamp, Event: "HEARTBEAT"}
					if tracker != nil {
						refresh(tracker, cycle, fs, mqttStatus)
						hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
					}
					if err := publisher.PublishSystem(hbEvent); err != nil {
						log.Printf("heartbeat publish error: %v", err)
					}
				}
			}

			if tracker != nil && (res.Armed || res.Updated) {
				refresh(tracker, cycle, fs, mqttStatus)
			}
		}
	}
}

func refresh(tracker *status.Tracker, cycle *regulator.Cycle, fs firingStatus, mqttStatus mqtt.ConnectionStatus) {
	tracker.Update(cycle.Snapshot(), fs.State(), fs.Stats())
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}

// throttle limits a repeating log line to one per interval, counting the
// occurrences it swallowed.
type throttle struct {
	every      time.Duration
	last       time.Time
	suppressed int
}

func (th *throttle) report(now time.Time, err error) bool {
	if !th.last.IsZero() && now.Sub(th.last) < th.every {
		th.suppressed++
		return false
	}
	if th.suppressed > 0 {
		log.Printf("step error: %v (%d more since last report)", err, th.suppressed)
	} else {
		log.Printf("step error: %v", err)
	}
	th.last = now
	th.suppressed = 0
	return true
}

// printInputs reads every analog input once.
func printInputs(w io.Writer, mains, button, sensor regulator.Analog, celsiusPerCount float64) error {
	m, err := mains.Read()
	if err != nil {
		return fmt.Errorf("read mains: %w", err)
	}
	b, err := button.Read()
	if err != nil {
		return fmt.Errorf("read button: %w", err)
	}
	s, err := sensor.Read()
	if err != nil {
		return fmt.Errorf("read sensor: %w", err)
	}
	fmt.Fprintf(w, "mains: %d, button: %d, sensor: %d (%.1f °C)\n", m, b, s, float64(s)*celsiusPerCount)
	return nil
}
