package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"flipbook/internal/book"
)

var navKeys = []string{"ArrowLeft", "ArrowRight", "ArrowUp", "ArrowDown", "PageUp", "PageDown", "Home", "End"}

func parsePage(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid page index %q: %w", s, err)
	}
	return n, nil
}

// NewJumpCommand creates the jump command.
func NewJumpCommand(opts *RootOptions) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "jump <page-index>",
		Short: "Request a discrete jump to a page (0-based)",
		Long: `Request a discrete jump to a page. The index is 0-based and clamped by the engine.

The source selects the animation: "carousel" flips page by page, anything
else riffles. Without a source the daemon's view mode decides.

Example:
  flipbook-ctl jump 12 --source tab`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := parsePage(args[0])
			if err != nil {
				return err
			}
			return opts.send(cmd, book.RequestJump{TargetPage: page, Source: book.JumpSource(source)})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "jump source (carousel|tab|keyboard|wheel|swipe|deeplink)")
	return cmd
}

// NewKeyCommand creates the key command.
func NewKeyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "key <name>",
		Short:     "Send a navigation key press",
		Long:      "Send a navigation key press. Names follow KeyboardEvent.key: " + strings.Join(navKeys, ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: navKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range navKeys {
				if strings.EqualFold(k, args[0]) {
					return opts.send(cmd, book.KeyDown{Key: k})
				}
			}
			return fmt.Errorf("unknown key %q: must be one of %v", args[0], navKeys)
		},
	}
}

// NewNextCommand creates the next command.
func NewNextCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Turn forward one page (ArrowRight)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.send(cmd, book.KeyDown{Key: "ArrowRight"})
		},
	}
}

// NewPrevCommand creates the prev command.
func NewPrevCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prev",
		Short: "Turn back one page (ArrowLeft)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.send(cmd, book.KeyDown{Key: "ArrowLeft"})
		},
	}
}

// NewWheelCommand creates the wheel command.
func NewWheelCommand(opts *RootOptions) *cobra.Command {
	var dx, dy float64

	cmd := &cobra.Command{
		Use:   "wheel",
		Short: "Send one wheel event",
		Long: `Send one wheel event. Positive deltas move forward.

Example:
  flipbook-ctl wheel --dy 120`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.send(cmd, book.Wheel{DeltaX: dx, DeltaY: dy})
		},
	}
	cmd.Flags().Float64Var(&dx, "dx", 0, "horizontal delta")
	cmd.Flags().Float64Var(&dy, "dy", 0, "vertical delta")
	return cmd
}

// NewCompleteCommand creates the complete command.
func NewCompleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete",
		Short: "Commit the in-flight jump immediately",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.send(cmd, book.CompleteJump{})
		},
	}
}

// NewSettleCommand creates the settle command.
func NewSettleCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "settle",
		Short: "Skip the rest of the riffle and play the settle step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.send(cmd, book.SettleJump{})
		},
	}
}

// NewLandedCommand creates the landed command.
func NewLandedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "landed <page-index>",
		Short: "Acknowledge that a released page finished landing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := parsePage(args[0])
			if err != nil {
				return err
			}
			return opts.send(cmd, book.PageLanded{PageIndex: page})
		},
	}
}

// NewReducedMotionCommand creates the reduced-motion command.
func NewReducedMotionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "reduced-motion <on|off|toggle>",
		Short:     "Set or toggle the reduced-motion preference",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(args[0]) {
			case "on", "true":
				return opts.send(cmd, book.SetReducedMotion{Enabled: true})
			case "off", "false":
				return opts.send(cmd, book.SetReducedMotion{Enabled: false})
			case "toggle":
				return opts.send(cmd, book.ToggleReducedMotion{})
			default:
				return fmt.Errorf("invalid value %q: must be on, off or toggle", args[0])
			}
		},
	}
}

// NewViewModeCommand creates the view-mode command.
func NewViewModeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "view-mode <grid|carousel>",
		Short:     "Switch the view mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(book.ViewGrid), string(book.ViewCarousel)},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := book.ViewMode(strings.ToLower(args[0]))
			if !mode.Valid() {
				return fmt.Errorf("invalid view mode %q", args[0])
			}
			return opts.send(cmd, book.SetViewMode{Mode: mode})
		},
	}
}

// NewDeepLinkCommand creates the deep-link command.
func NewDeepLinkCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deep-link <page-index>",
		Short: "Deliver the initial deep-link jump (applied once per daemon run)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := parsePage(args[0])
			if err != nil {
				return err
			}
			return opts.send(cmd, book.DeepLink{TargetPage: page})
		},
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the daemon's current book state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.transport.QueryState(opts.Socket)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			b := snap.Book
			fmt.Fprintf(out, "page:           %d / %d\n", b.CurrentPageIndex, b.LastPage())
			if b.TargetPageIndex != nil {
				fmt.Fprintf(out, "target:         %d\n", *b.TargetPageIndex)
			}
			fmt.Fprintf(out, "view mode:      %s\n", b.ViewMode)
			fmt.Fprintf(out, "reduced motion: %t\n", b.PrefersReducedMotion)
			fmt.Fprintf(out, "flipping:       %t (riffling %t)\n", b.IsFlipping, b.IsRiffling)
			fmt.Fprintf(out, "engaged:        %t (tension %.1f)\n", b.IsEngaged, b.ScrollAccumulator)
			fmt.Fprintf(out, "in flight:      %d released, %d bending\n", len(b.ReleasedPages), len(b.BendingPages))
			if j := snap.Jump; j != nil {
				fmt.Fprintf(out, "jump:           %s %s step %d/%d -> %d\n", j.Context, j.Phase, j.StepIndex+1, j.StepCount, j.TargetPage)
			}
			return nil
		},
	}
}
