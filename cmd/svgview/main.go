// Command svgview renders SVG files to PNG images and
// answers hit tests on them.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/benoitkugler/svgscene/svgdoc"
	"github.com/benoitkugler/svgscene/svgnode"
	"github.com/benoitkugler/svgscene/svgscene"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	verbose bool
	errors  string
}

func (g *globalFlags) errorMode() (svgdoc.ErrorMode, error) {
	switch g.errors {
	case "ignore":
		return svgdoc.IgnoreErrorMode, nil
	case "warn":
		return svgdoc.WarnErrorMode, nil
	case "strict":
		return svgdoc.StrictErrorMode, nil
	default:
		return 0, fmt.Errorf("invalid --errors %q: expected ignore|warn|strict", g.errors)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags
	cmd := &cobra.Command{
		Use:           "svgview",
		Short:         "Render SVG files through a retained scene graph",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if flags.verbose {
				level = slog.LevelDebug
			}
			svgscene.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			_, err := flags.errorMode()
			return err
		},
		// No Run: prints help by default.
	}
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log render passes and image loads to stderr")
	cmd.PersistentFlags().StringVar(&flags.errors, "errors", "warn", "handling of unsupported elements: ignore|warn|strict")

	cmd.AddCommand(newRenderCmd(&flags), newHitCmd(&flags))
	return cmd
}

// loadDocument parses path and waits for its images, so that
// the first render pass is complete. Failed images are skipped.
func loadDocument(ctx context.Context, path string, flags *globalFlags) (*svgdoc.Document, error) {
	mode, err := flags.errorMode()
	if err != nil {
		return nil, err
	}
	doc, err := svgdoc.ReadFile(path, mode)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	for _, im := range images(doc.Root.Children) {
		err := im.Wait(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("loading images of %s: %w", path, err)
		}
	}
	return doc, nil
}

// images walks the tree, returning every image node.
func images(nodes []svgscene.Node) []*svgnode.Image {
	var out []*svgnode.Image
	for _, node := range nodes {
		switch n := node.(type) {
		case *svgnode.Image:
			out = append(out, n)
		case *svgnode.Group:
			out = append(out, images(n.Children)...)
		case *svgnode.Defs:
			out = append(out, images(n.Children)...)
		case *svgnode.ClipPath:
			out = append(out, images(n.Children)...)
		}
	}
	return out
}
