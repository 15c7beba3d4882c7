// Package devservercmder provides the devserver command, which runs the
// scripted chatbot backend on a local port.
package devservercmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/app"
	"github.com/papercomputeco/playground/pkg/config"
	"github.com/papercomputeco/playground/pkg/devserver"
	"github.com/papercomputeco/playground/pkg/logger"
)

type devserverCommander struct {
	listen     string
	frameDelay time.Duration
	replay     string
	breakAfter int
	debug      bool

	logger *slog.Logger
}

const devserverLongDesc string = `Run the scripted chatbot backend.

The dev server answers the same HTTP API as the chatbot backend from an
in-memory store. Every message gets a short reasoning trace and an echo
reply streamed word by word, so the playground can be tried without an LLM.

A stream captured with "playground chat --record" can be replayed verbatim
for every message with --replay.

Examples:
  playground devserver
  playground devserver --listen :9000 --frame-delay 50ms
  playground devserver --replay ./stream.txt
  playground devserver --break-after 5`

const devserverShortDesc string = "Run the scripted chatbot backend"

func NewDevserverCmd() *cobra.Command {
	cmder := &devserverCommander{}

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: devserverShortDesc,
		Long:  devserverLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			v, err := app.LoadViper(cmd, config.DevserverFlags)
			if err != nil {
				return err
			}
			cmder.listen = v.GetString("devserver.listen")

			cfg, err := cmder.serverConfig()
			if err != nil {
				return err
			}
			return cmder.run(cfg)
		},
	}

	config.AddStringFlag(cmd, config.DevserverFlags, config.FlagDevserverListen, &cmder.listen)
	cmd.Flags().DurationVar(&cmder.frameDelay, "frame-delay", 30*time.Millisecond, "Pause between streamed frames")
	cmd.Flags().StringVar(&cmder.replay, "replay", "", "Replay this recorded stream for every message")
	cmd.Flags().IntVar(&cmder.breakAfter, "break-after", 0, "Drop scripted streams after this many frames (0 never drops)")

	return cmd
}

func (c *devserverCommander) serverConfig() (devserver.Config, error) {
	if c.breakAfter < 0 {
		return devserver.Config{}, fmt.Errorf("--break-after must not be negative, got %d", c.breakAfter)
	}

	cfg := devserver.Config{
		ListenAddr: c.listen,
		FrameDelay: c.frameDelay,
		BreakAfter: c.breakAfter,
	}

	if c.replay != "" {
		data, err := os.ReadFile(c.replay)
		if err != nil {
			return cfg, fmt.Errorf("reading recording: %w", err)
		}
		cfg.Recording = data
	}

	return cfg, nil
}

func (c *devserverCommander) run(cfg devserver.Config) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithFormat(logger.FormatPretty))
	cfg.Logger = c.logger

	if cfg.Recording != nil {
		c.logger.Info("replaying recording", "path", c.replay, "bytes", len(cfg.Recording))
	}

	srv := devserver.NewServer(cfg)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- fmt.Errorf("dev server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return srv.Shutdown()
	}
}
