package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/http-gpio/internal/gpio"
)

// options holds the daemon configuration. Values come from defaults, then
// an optional YAML file, then command-line flags.
type options struct {
	Listen   string        `long:"listen" description:"HTTP listen address" yaml:"listen"`
	Consumer string        `long:"consumer" description:"Consumer label for claimed lines" yaml:"consumer"`
	Settle   time.Duration `long:"settle" description:"Delay after each write before responding" yaml:"settle"`
	Broker   string        `long:"broker" description:"MQTT broker URL; empty disables publishing" yaml:"broker"`
	ClientID string        `long:"client-id" description:"MQTT client id" yaml:"client_id"`
	LogLevel string        `long:"log-level" description:"Log level (debug, info, warn, error)" yaml:"log_level"`
	Config   string        `long:"config" description:"YAML configuration file" yaml:"-"`
}

func defaultOptions() options {
	return options{
		Listen:   "127.0.0.1:3030",
		Consumer: gpio.DefaultConsumer,
		ClientID: "http-gpio",
		LogLevel: "info",
	}
}

// loadOptions parses args, layering flags over the config file over the
// defaults. Only flags given explicitly override the file.
func loadOptions(args []string) (options, error) {
	var cli options
	parser := flags.NewParser(&cli, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return options{}, err
	}

	opts := defaultOptions()
	if cli.Config != "" {
		data, err := os.ReadFile(cli.Config)
		if err != nil {
			return options{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return options{}, fmt.Errorf("parse config %s: %w", cli.Config, err)
		}
	}

	isSet := func(name string) bool {
		o := parser.FindOptionByLongName(name)
		return o != nil && o.IsSet()
	}
	if isSet("listen") {
		opts.Listen = cli.Listen
	}
	if isSet("consumer") {
		opts.Consumer = cli.Consumer
	}
	if isSet("settle") {
		opts.Settle = cli.Settle
	}
	if isSet("broker") {
		opts.Broker = cli.Broker
	}
	if isSet("client-id") {
		opts.ClientID = cli.ClientID
	}
	if isSet("log-level") {
		opts.LogLevel = cli.LogLevel
	}
	opts.Config = cli.Config

	if opts.Settle < 0 {
		return options{}, fmt.Errorf("settle must not be negative: %s", opts.Settle)
	}
	return opts, nil
}

func isHelp(err error) bool {
	var ferr *flags.Error
	return errors.As(err, &ferr) && ferr.Type == flags.ErrHelp
}
