// Command http-gpio exposes GPIO lines over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/http-gpio/internal/gpio"
	"github.com/sweeney/http-gpio/internal/lines"
	"github.com/sweeney/http-gpio/internal/logic"
	"github.com/sweeney/http-gpio/internal/mqtt"
	"github.com/sweeney/http-gpio/internal/status"
	"github.com/sweeney/http-gpio/internal/web"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

func main() {
	opts, err := loadOptions(os.Args[1:])
	if err != nil {
		if isHelp(err) {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	log, err := newLogger(opts.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	if err := run(opts, log); err != nil {
		log.WithError(err).Fatal("fatal")
	}
}

func newLogger(level string) (*logrus.Entry, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger := logrus.New()
	logger.SetLevel(lvl)
	f := new(prefixed.TextFormatter)
	f.TimestampFormat = "2006-01-02 15:04:05"
	f.FullTimestamp = true
	logger.SetFormatter(f)
	return logrus.NewEntry(logger), nil
}

func run(opts options, log *logrus.Entry) error {
	opener, err := gpio.NewRealOpener()
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}

	cache := lines.NewCache(opener, opts.Consumer)
	defer func() {
		if err := cache.Close(); err != nil {
			log.WithError(err).Warn("release lines")
		}
	}()

	tracker := status.NewTracker(time.Now(), status.Config{
		Listen:   opts.Listen,
		Consumer: opts.Consumer,
		SettleMs: opts.Settle.Milliseconds(),
		Broker:   opts.Broker,
	})
	tracker.SetClaimSource(cache)

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if opts.Broker != "" {
		p, err := mqtt.NewRealPublisher(opts.Broker, opts.ClientID, log.WithField("prefix", "mqtt"))
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
	}

	disp := lines.NewDispatcher(cache,
		lines.WithSettle(opts.Settle),
		lines.WithObserver(observer(tracker, publisher, mqttStatus, log)),
	)
	srv := web.New(opts.Listen, disp, tracker, log.WithField("prefix", "http"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	log.WithFields(logrus.Fields{
		"listen":   opts.Listen,
		"consumer": opts.Consumer,
		"settle":   opts.Settle,
		"broker":   opts.Broker,
	}).Info("started")

	return serve(srv, publisher, mqttStatus, tracker, sigCh, log)
}

// observer returns the dispatcher callback: every completed command
// updates the tracker and, if MQTT is enabled, is published.
func observer(tracker *status.Tracker, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, log logrus.FieldLogger) func(logic.Event) {
	return func(ev logic.Event) {
		tracker.Record(ev)
		if publisher == nil {
			return
		}
		if err := publisher.Publish(ev); err != nil {
			log.WithError(err).WithField("line", ev.Key).Warn("publish error")
		}
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}
}

// httpServer is the part of web.Server that serve drives.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// serve runs the HTTP server until a signal arrives or the server fails,
// publishing STARTUP and SHUTDOWN lifecycle events around it.
func serve(srv httpServer, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, sig <-chan os.Signal, log logrus.FieldLogger) error {
	publishSystem(publisher, mqttStatus, tracker, "STARTUP", "", log)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		reason := "SERVER_ERROR"
		select {
		case s := <-sig:
			reason = signalName(s)
			log.WithField("signal", reason).Info("shutting down")
		case <-ctx.Done():
		}
		publishSystem(publisher, mqttStatus, tracker, "SHUTDOWN", reason, log)

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func publishSystem(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, event, reason string, log logrus.FieldLogger) {
	if publisher == nil {
		return
	}
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
	snap := tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := publisher.PublishSystem(ev); err != nil {
		log.WithError(err).Warnf("failed to publish %s event", event)
	} else {
		log.Debugf("published %s event", event)
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
