package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwantia/extio"
)

type messageOutput struct {
	Topic      string    `json:"topic"`
	Data       string    `json:"data"`
	ReceivedAt time.Time `json:"received_at"`
}

func (a *app) printMessage(cmd *cobra.Command, msg extio.Message) error {
	out := messageOutput{
		Topic:      msg.Topic,
		Data:       string(msg.Data),
		ReceivedAt: msg.ReceivedAt,
	}
	return a.print(cmd, out, func(w io.Writer) {
		fmt.Fprintf(w, "%s\t%s\n", out.Topic, out.Data)
	})
}

func newQueueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Publish and receive messages",
	}

	var (
		timeout time.Duration
		count   int
	)

	listen := &cobra.Command{
		Use:   "listen <topic>",
		Short: "Subscribe to a topic and print incoming messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			queue := a.backend.Queue()

			h, err := queue.Subscribe(ctx, args[0])
			if err != nil {
				return err
			}
			defer func() {
				if err := queue.Unsubscribe(ctx, h); err != nil {
					a.logger.Warn("failed to unsubscribe from '%s': %v", args[0], err)
				}
			}()

			for received := 0; count <= 0 || received < count; received++ {
				delivery, err := queue.Poll(ctx, h, timeout)
				if err != nil {
					return err
				}
				if delivery.TimedOut {
					return nil
				}
				if err := a.printMessage(cmd, delivery.Message); err != nil {
					return err
				}
			}
			return nil
		},
	}
	listen.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "stop after waiting this long for a message")
	listen.Flags().IntVarP(&count, "count", "n", 0, "stop after this many messages (0 = unlimited)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "publish <topic> [data|-]",
			Short: "Publish data or stdin to a topic",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := payload(cmd, args, 1)
				if err != nil {
					return err
				}
				return a.backend.Queue().Publish(cmd.Context(), args[0], data)
			},
		},
		listen,
	)

	return cmd
}

func newIPCCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ipc",
		Short: "Exchange messages with other processes over named channels",
	}

	var timeout time.Duration
	receive := &cobra.Command{
		Use:   "receive <channel>",
		Short: "Wait for the next message on a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delivery, err := a.backend.IPC().Receive(cmd.Context(), args[0], timeout)
			if err != nil {
				return err
			}
			if delivery.TimedOut {
				return fmt.Errorf("no message on channel '%s' within %s", args[0], timeout)
			}
			return a.printMessage(cmd, delivery.Message)
		},
	}
	receive.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up after this duration")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "send <channel> [data|-]",
			Short: "Send data or stdin to a channel",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := payload(cmd, args, 1)
				if err != nil {
					return err
				}
				return a.backend.IPC().Send(cmd.Context(), args[0], data)
			},
		},
		receive,
	)

	return cmd
}
