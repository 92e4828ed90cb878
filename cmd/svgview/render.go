package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/benoitkugler/svgscene/svgscene"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type renderFlags struct {
	outDir  string
	jobs    int
	timeout time.Duration
}

func newRenderCmd(global *globalFlags) *cobra.Command {
	var flags renderFlags
	cmd := &cobra.Command{
		Use:   "render FILE...",
		Short: "Render SVG files to PNG images",
		Long:  "Each FILE is rendered to a PNG image with the same base name, written in the output directory.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputs, err := renderFiles(cmd.Context(), args, global, flags)
			for _, out := range outputs {
				if out != "" {
					fmt.Fprintln(cmd.OutOrStdout(), out)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&flags.outDir, "output", "o", ".", "output directory")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 4, "number of files rendered concurrently")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "time limit per file, including image loads")
	return cmd
}

// renderFiles returns the path of the written images, in the order of files.
// Failed files leave an empty entry.
func renderFiles(ctx context.Context, files []string, global *globalFlags, flags renderFlags) ([]string, error) {
	if err := os.MkdirAll(flags.outDir, 0o755); err != nil {
		return nil, err
	}
	outputs := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(flags.jobs, 1))
	for i, file := range files {
		g.Go(func() error {
			out, err := renderFile(ctx, file, global, flags)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	return outputs, g.Wait()
}

func renderFile(ctx context.Context, path string, global *globalFlags, flags renderFlags) (string, error) {
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.timeout)
		defer cancel()
	}
	doc, err := loadDocument(ctx, path, global)
	if err != nil {
		return "", err
	}

	host := new(captureHost)
	root := svgscene.New(host)
	doc.Mount(root)
	root.Start(ctx)
	defer root.Close()
	root.RequestRender()
	if err = root.Flush(ctx); err != nil {
		return "", fmt.Errorf("rendering %s: %w", path, err)
	}

	img := host.frame()
	if img == nil || img.Bounds().Empty() {
		return "", fmt.Errorf("rendering %s: empty document", path)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".png"
	out := filepath.Join(flags.outDir, name)
	if err = writePNG(out, img); err != nil {
		return "", err
	}
	svgscene.Logger().Debug("svgview: image written", "input", path, "output", out)
	return out, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// captureHost keeps the last frame displayed by the root.
type captureHost struct {
	mu   sync.Mutex
	last *image.RGBA
}

func (h *captureHost) RootSurface() svgscene.Surface { return h }

func (h *captureHost) Invalidate(image.Rectangle) {}

func (h *captureHost) Display(img *image.RGBA) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = img
}

func (h *captureHost) frame() *image.RGBA {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}
