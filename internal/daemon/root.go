// Package daemon binds configuration, logging, the event-delivery core,
// and the control listener together into a runnable daemon, exposing a
// cobra root command the cmd/controlchand binary executes.
//
// Uses a cobra root command with persistent flags bound once at startup,
// split from the binary's own main package.
package daemon

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tlyu/ctrlevent/clientconn"
	"github.com/tlyu/ctrlevent/control"
	"github.com/tlyu/ctrlevent/dispatch"
	"github.com/tlyu/ctrlevent/interest"
	"github.com/tlyu/ctrlevent/internal/config"
	"github.com/tlyu/ctrlevent/internal/ctrllog"
	"github.com/tlyu/ctrlevent/producer"
	"github.com/tlyu/ctrlevent/severity"
)

var flags config.Config

// RootCmd is the controlchand root command.
var RootCmd = &cobra.Command{
	Use:   "controlchand",
	Short: "runs the anonymity-router control-channel event core",
	RunE:  run,
}

func init() {
	defaults := config.Default()
	RootCmd.PersistentFlags().StringVar(&flags.Addr, "addr", defaults.Addr, "control listener bind address")
	RootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", defaults.LogLevel, "logrus level (debug, info, warn, error)")
	RootCmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", defaults.LogFormat, "log output format: console or logstash")
	RootCmd.PersistentFlags().IntVar(&flags.QueueCapacityHint, "queue-capacity-hint", defaults.QueueCapacityHint, "dispatcher queue preallocation hint")
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(conf config.Config) (*logrus.Logger, *ctrllog.SeverityHook) {
	log := logrus.New()
	level, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	var inner logrus.Formatter = &logrus.TextFormatter{}
	switch conf.LogFormat {
	case "logstash":
		log.SetFormatter(&ctrllog.LogstashFormatter{})
	default:
		if isatty.IsTerminal(os.Stdout.Fd()) {
			log.SetOutput(colorable.NewColorableStdout())
		}
		log.SetFormatter(&ctrllog.ConsoleFormatter{Inner: inner})
	}

	hook := ctrllog.NewSeverityHook()
	log.AddHook(hook)
	return log, hook
}

func run(cmd *cobra.Command, args []string) error {
	conf, err := config.FromEnv()
	if err != nil {
		return err
	}
	var override config.Config
	if cmd.Flags().Changed("addr") {
		override.Addr = flags.Addr
	}
	if cmd.Flags().Changed("log-level") {
		override.LogLevel = flags.LogLevel
	}
	if cmd.Flags().Changed("log-format") {
		override.LogFormat = flags.LogFormat
	}
	if cmd.Flags().Changed("queue-capacity-hint") {
		override.QueueCapacityHint = flags.QueueCapacityHint
	}
	conf = conf.Apply(override)

	log, severityHook := newLogger(conf)

	reg := clientconn.NewRegistry()
	ml := dispatch.NewGoroutineMainloop()
	ir := interest.New(reg, severityHook, nil, nil, nil, nil, log)
	d := dispatch.New(ir, reg, ml, log)
	surface := &control.Surface{Dispatcher: d, Interest: ir, Log: log}
	d.SetLogDrain(func() {
		for _, entry := range severityHook.Drain() {
			producer.PublishLogEvent(surface, severity.FromEntry(entry), entry.Message)
		}
	})
	listener := control.NewListener(surface, reg, ml, log)

	ln, err := net.Listen("tcp", conf.Addr)
	if err != nil {
		return fmt.Errorf("binding control listener: %w", err)
	}
	log.WithField("addr", ln.Addr().String()).Info("control listener started")

	boldAddr := color.New(color.Bold)
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		boldAddr.DisableColor()
	}
	fmt.Fprintf(os.Stdout, "controlchand listening on %s\n", boldAddr.Sprint(ln.Addr().String()))

	go ml.Run()
	defer ml.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	serveErr := make(chan error, 1)
	go func() { serveErr <- listener.Serve(ln) }()

	select {
	case <-sig:
		log.Info("shutting down")
		return ln.Close()
	case err := <-serveErr:
		return err
	}
}
