package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/client"
	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/discovery"
	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/domain"
)

// clientOptions are the connection flags shared by watch and draw.
type clientOptions struct {
	server          string
	room            string
	name            string
	discover        bool
	discoverTimeout time.Duration
	verbose         bool
}

func (o *clientOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.server, "server", "ws://localhost:8080/ws", "websocket URL of the canvas server")
	f.StringVar(&o.room, "room", "", "room to join (server default when empty)")
	f.StringVar(&o.name, "name", "", "display name")
	f.BoolVar(&o.discover, "discover", false, "find the server on the local network")
	f.DurationVar(&o.discoverTimeout, "discover-timeout", 3*time.Second, "how long to browse for a server")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")
}

func (o *clientOptions) serverURL() (string, error) {
	if !o.discover {
		return o.server, nil
	}
	addr, err := discovery.Browse(o.discoverTimeout)
	if err != nil {
		return "", err
	}
	slog.Info("discovered server", "addr", addr)
	return "ws://" + addr + "/ws", nil
}

// clientRun is a live connection with its session loop.
type clientRun struct {
	conn *client.Conn
	loop *client.Loop
	errs chan error
}

// connect dials the server and starts the session loop and the network
// listener. onUpdate runs on the loop goroutine after every change.
func connect(ctx context.Context, o *clientOptions, onUpdate func(*client.Session)) (*clientRun, error) {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	setupLogger(level)

	url, err := o.serverURL()
	if err != nil {
		return nil, err
	}
	conn, err := client.Dial(ctx, url, o.room, o.name)
	if err != nil {
		return nil, err
	}

	run := &clientRun{
		conn: conn,
		loop: client.NewLoop(conn, client.DefaultBatchInterval),
		errs: make(chan error, 2),
	}
	if onUpdate != nil {
		run.loop.OnUpdate(onUpdate)
	}

	go func() { run.errs <- run.loop.Run(ctx) }()
	go func() { run.errs <- conn.Listen(ctx, run.loop.Deliver) }()
	return run, nil
}

func newWatchCmd() *cobra.Command {
	var opts clientOptions
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Join a room and print canvas activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), &opts, cmd.OutOrStdout())
		},
	}
	opts.bind(cmd)
	return cmd
}

func runWatch(ctx context.Context, opts *clientOptions, out io.Writer) error {
	var last string
	run, err := connect(ctx, opts, func(s *client.Session) {
		line := summarize(s)
		if line != last {
			fmt.Fprintln(out, line)
			last = line
		}
	})
	if err != nil {
		return err
	}
	defer run.conn.Close()

	err = <-run.errs
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// summarize renders the session state as one status line.
func summarize(s *client.Session) string {
	strokes := s.Render()
	points := 0
	erasers := 0
	for _, st := range strokes {
		points += len(st.Points)
		if st.Tool == domain.ToolEraser {
			erasers++
		}
	}
	canUndo, canRedo := s.Canvas().Flags()
	return fmt.Sprintf("user=%s users=%d strokes=%d (eraser=%d, drawing=%d) points=%d undo=%t redo=%t",
		s.Roster().Self().Name, len(s.Roster().Users()), len(strokes), erasers,
		s.Canvas().RemoteCount(), points, canUndo, canRedo)
}
