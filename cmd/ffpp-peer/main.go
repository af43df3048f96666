// Command ffpp-peer runs a datagram messaging endpoint from the command line.
//
// It is a thin bootstrap around the communicator package: "listen" binds a
// port and prints every message that arrives, "send" transmits one message
// and can wait for a reply.
//
//	ffpp-peer listen --port 33445
//	ffpp-peer send --to 127.0.0.1:33445 --type CHAT "hello"
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// Version is the ffpp-peer release.
const Version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("ffpp-peer failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "ffpp-peer",
		Usage:   "Exchange JOIN/ACK/HB/CHAT messages over UDP",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level",
			},
		},
		Commands: []*cli.Command{
			listenCommand(),
			sendCommand(),
		},
	}
}
