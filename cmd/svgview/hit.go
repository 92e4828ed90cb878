package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/benoitkugler/svgscene/svgscene"
	"github.com/spf13/cobra"
)

func newHitCmd(global *globalFlags) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "hit FILE X Y",
		Short: "Print the tag of the topmost element under a point",
		Long:  "Tags are read from data-tag attributes. The point is in pixels of the rendered image.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pt svgscene.Point
			var err error
			if pt.X, err = strconv.ParseFloat(args[1], 64); err != nil {
				return fmt.Errorf("invalid x: %w", err)
			}
			if pt.Y, err = strconv.ParseFloat(args[2], 64); err != nil {
				return fmt.Errorf("invalid y: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			doc, err := loadDocument(ctx, args[0], global)
			if err != nil {
				return err
			}
			root := svgscene.New(nil)
			doc.Mount(root)
			root.EnableTouchEvents()
			root.Render() // hit tests use the positions of the last pass

			if tag, ok := root.HitTest(pt, nil); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "tag %d\n", tag)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "no hit")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "time limit for image loads")
	return cmd
}
