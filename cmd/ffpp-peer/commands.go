package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/ffpp/communicator"
	"github.com/opd-ai/ffpp/config"
	"github.com/opd-ai/ffpp/logging"
	"github.com/opd-ai/ffpp/message"
)

var output io.Writer = os.Stdout

// setup loads configuration, applies flag overrides and configures logging.
func setup(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if cmd.IsSet("port") {
		cfg.Communicator.LocalPort = int(cmd.Int("port"))
	}
	if cmd.IsSet("encrypt") {
		cfg.Communicator.Encryption = cmd.Bool("encrypt")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logging.Configure(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		return nil, err
	}
	return cfg, nil
}

func listenCommand() *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Bind a port and print every message received",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Local UDP port (0 for an ephemeral port)",
			},
			&cli.BoolFlag{
				Name:  "encrypt",
				Usage: "Seal non-JOIN messages with this peer's own key",
			},
			&cli.BoolFlag{
				Name:  "ack",
				Usage: "Answer every non-ACK message with an ACK",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			comm, err := communicator.New(cfg.CommunicatorOptions())
			if err != nil {
				return err
			}
			fmt.Fprintf(output, "listening on %s\n", comm.LocalAddr())
			return runListener(ctx, comm, cmd.Bool("ack"))
		},
	}
}

// runListener runs the receive loop and a consumer until ctx ends or the
// receive loop fails. It closes comm before returning.
func runListener(ctx context.Context, comm *communicator.Communicator, ack bool) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return comm.Listen()
	})

	g.Go(func() error {
		for {
			msg, err := comm.WaitMessage(gctx)
			if err != nil {
				if errors.Is(err, communicator.ErrClosed) || errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			fmt.Fprintf(output, "%s %s %q\n", msg.Peer, msg.Type, msg.Body)
			if ack && msg.Type != message.Ack {
				comm.Send(message.New(message.Ack, msg.Body), msg.Peer)
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		return comm.Close()
	})

	return g.Wait()
}

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send one message to a peer",
		ArgsUsage: "<body>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Destination host:port",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "Message type: JOIN, ACK, HB or CHAT",
				Value: message.Chat.String(),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Local UDP port (0 for an ephemeral port)",
			},
			&cli.BoolFlag{
				Name:  "encrypt",
				Usage: "Seal non-JOIN messages with this peer's own key",
			},
			&cli.DurationFlag{
				Name:  "wait",
				Usage: "Wait this long for a reply, resending within the resend budget",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			msgType, err := message.ParseMessageType(cmd.String("type"))
			if err != nil {
				return err
			}
			to, err := message.ParseEndpoint(cmd.String("to"))
			if err != nil {
				return err
			}

			comm, err := communicator.New(cfg.CommunicatorOptions())
			if err != nil {
				return err
			}
			defer comm.Close()

			msg := message.New(msgType, cmd.Args().First())
			return sendMessage(ctx, comm, msg, to, cmd.Duration("wait"))
		},
	}
}

func sendMessage(ctx context.Context, comm *communicator.Communicator, msg *message.Message, to message.Endpoint, wait time.Duration) error {
	if wait <= 0 {
		if !comm.Send(msg, to) {
			return fmt.Errorf("sending %s to %s failed", msg.Type, to)
		}
		fmt.Fprintf(output, "sent %s to %s\n", msg.Type, to)
		return nil
	}

	reply, err := comm.Exchange(ctx, msg, to, wait)
	if err != nil {
		return fmt.Errorf("no reply from %s: %w", to, err)
	}
	fmt.Fprintf(output, "%s %s %q\n", reply.Peer, reply.Type, reply.Body)
	return nil
}
