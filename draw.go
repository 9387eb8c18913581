package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/client"
	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/domain"
)

const initTimeout = 5 * time.Second

type drawOptions struct {
	clientOptions
	shape    string
	steps    int
	tool     string
	color    string
	width    float64
	interval time.Duration
	undo     bool
}

func newDrawCmd() *cobra.Command {
	var opts drawOptions
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Join a room and draw one stroke",
		RunE: func(cmd *cobra.Command, args []string) error {
			pts, err := shapePoints(opts.shape, opts.steps)
			if err != nil {
				return err
			}
			return runDraw(cmd.Context(), &opts, pts)
		},
	}
	opts.bind(cmd)
	f := cmd.Flags()
	f.StringVar(&opts.shape, "shape", "circle", "line, circle or zigzag")
	f.IntVar(&opts.steps, "steps", 48, "points in the stroke")
	f.StringVar(&opts.tool, "tool", string(domain.ToolBrush), "brush or eraser")
	f.StringVar(&opts.color, "color", client.DefaultColor, "stroke color")
	f.Float64Var(&opts.width, "width", domain.DefaultWidth, "stroke width")
	f.DurationVar(&opts.interval, "interval", 10*time.Millisecond, "delay between pointer moves")
	f.BoolVar(&opts.undo, "undo", false, "undo the stroke after drawing it")
	return cmd
}

func runDraw(ctx context.Context, opts *drawOptions, pts []domain.Point) error {
	ready := make(chan struct{})
	var once sync.Once
	run, err := connect(ctx, &opts.clientOptions, func(s *client.Session) {
		if s.Roster().Self().ID != "" {
			once.Do(func() { close(ready) })
		}
	})
	if err != nil {
		return err
	}
	defer run.conn.Close()

	select {
	case <-ready:
	case err := <-run.errs:
		return err
	case <-time.After(initTimeout):
		return errors.New("no init from server")
	}

	run.loop.Post(func(s *client.Session) {
		s.SetTool(domain.Tool(opts.tool))
		s.SetColor(opts.color)
		s.SetWidth(opts.width)
		s.PointerDown(pts[0])
	})

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()
	for _, p := range pts[1:] {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		run.loop.Post(func(s *client.Session) {
			s.PointerMove(p)
			s.MoveCursor(p)
		})
	}

	run.loop.Post(func(s *client.Session) { s.PointerUp() })
	if opts.undo {
		run.loop.Post(func(s *client.Session) { s.Undo() })
	}

	drained := make(chan struct{})
	if !run.loop.Post(func(s *client.Session) {
		slog.Info("stroke sent", "points", len(pts), "strokes", len(s.Render()))
		close(drained)
	}) {
		return <-run.errs
	}
	select {
	case <-drained:
	case <-ctx.Done():
	}
	return nil
}

// shapePoints returns steps normalized points tracing shape.
func shapePoints(shape string, steps int) ([]domain.Point, error) {
	if steps < 2 {
		return nil, fmt.Errorf("steps must be at least 2, got %d", steps)
	}
	pts := make([]domain.Point, steps)
	for i := range pts {
		t := float64(i) / float64(steps-1)
		switch shape {
		case "line":
			pts[i] = domain.Point{X: 0.1 + 0.8*t, Y: 0.5}
		case "circle":
			a := 2 * math.Pi * t
			pts[i] = domain.Point{X: 0.5 + 0.3*math.Cos(a), Y: 0.5 + 0.3*math.Sin(a)}
		case "zigzag":
			y := 0.3
			if i%2 == 1 {
				y = 0.7
			}
			pts[i] = domain.Point{X: 0.1 + 0.8*t, Y: y}
		default:
			return nil, fmt.Errorf("unknown shape %q", shape)
		}
	}
	return pts, nil
}
