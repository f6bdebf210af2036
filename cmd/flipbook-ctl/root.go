package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"flipbook/internal/book"
	"flipbook/internal/ipc"
)

const defaultSocket = "/tmp/flipbook.sock"

// Transport delivers events to the daemon.
type Transport interface {
	Send(socket string, ev book.Event) error
	QueryState(socket string) (book.Snapshot, error)
}

type ipcTransport struct{}

func (ipcTransport) Send(socket string, ev book.Event) error { return ipc.Send(socket, ev) }

func (ipcTransport) QueryState(socket string) (book.Snapshot, error) {
	return ipc.QueryState(socket)
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Socket string
	Format string // "text" | "json"

	transport Transport
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// send delivers ev and prints "ok" on success.
func (o *RootOptions) send(cmd *cobra.Command, ev book.Event) error {
	if err := o.transport.Send(o.Socket, ev); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

// NewRootCommand creates the root command for flipbook-ctl.
func NewRootCommand(t Transport) *cobra.Command {
	opts := &RootOptions{transport: t}

	cmd := &cobra.Command{
		Use:   "flipbook-ctl",
		Short: "Control a running flipbookd",
		Long: `Send navigation and preference events to flipbookd over its unix socket.

Events go through the same reducer as render-client input, so a jump sent
while a gesture or another jump is in flight is ignored.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Socket, "socket", "s", defaultSocket, "flipbookd IPC socket path")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format for status (json|text)")

	cmd.AddCommand(NewJumpCommand(opts))
	cmd.AddCommand(NewKeyCommand(opts))
	cmd.AddCommand(NewNextCommand(opts))
	cmd.AddCommand(NewPrevCommand(opts))
	cmd.AddCommand(NewWheelCommand(opts))
	cmd.AddCommand(NewCompleteCommand(opts))
	cmd.AddCommand(NewSettleCommand(opts))
	cmd.AddCommand(NewLandedCommand(opts))
	cmd.AddCommand(NewReducedMotionCommand(opts))
	cmd.AddCommand(NewViewModeCommand(opts))
	cmd.AddCommand(NewDeepLinkCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))

	return cmd
}
