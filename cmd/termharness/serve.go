package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptyhost/termharness/internal/config"
	"github.com/ptyhost/termharness/internal/facades"
	"github.com/ptyhost/termharness/internal/logger"
	"github.com/ptyhost/termharness/internal/mcptransport"
	"github.com/ptyhost/termharness/internal/platform"
	"github.com/ptyhost/termharness/internal/termcore"
)

func serveCmd() *cobra.Command {
	var configPath string
	var attachShell string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP stdio server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return fmt.Errorf("resolve default config path: %w", err)
				}
				configPath = p
			}

			loader, err := config.NewLoader(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg := loader.Get()
			if err := logger.Init(cfg.Log.Level, ""); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			sup := termcore.NewSupervisor(termcore.Config{
				HistoryMax:     cfg.Sessions.HistoryMaxBytes,
				PollPeriod:     time.Duration(cfg.Sessions.PollPeriodMS) * time.Millisecond,
				CommandTimeout: time.Duration(cfg.Sessions.CommandTimeoutMS) * time.Millisecond,
				GlobalDeadline: time.Duration(cfg.Sessions.GlobalDeadlineMS) * time.Millisecond,
				ExtraShells:    cfg.Sessions.ExtraShells,
			})

			if err := loader.Watch(func(next *config.Config) {
				logger.Info("config reloaded", "path", configPath)
			}); err != nil {
				logger.Warn("config hot-reload disabled", "err", err)
			}
			defer loader.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if attachShell != "" {
				return runAttached(ctx, sup, attachShell)
			}

			dispatch := termcore.NewDispatcher(sup)
			srv := mcptransport.NewServer(dispatch, "termharness", version)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("mcp stdio server starting")
				errCh <- mcptransport.ServeStdio(ctx, srv)
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down, closing all sessions")
				return sup.CloseAll()
			case err := <-errCh:
				sup.CloseAll()
				return err
			}
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config.yaml (default ~/.config/termharness/config.yaml)")
	cmd.Flags().StringVar(&attachShell, "attach", "", "instead of serving MCP, spawn this shell and attach it to stdio directly")
	return cmd
}

// runAttached is a local debugging aid: spawn one session of the given
// shell and pipe stdin/stdout straight through it, propagating host
// terminal resizes where the platform supports it. It never touches MCP.
func runAttached(ctx context.Context, sup *termcore.Supervisor, shell string) error {
	cols, rows := 80, 24
	if c, r, err := platform.CurrentSize(os.Stdout.Fd()); err == nil {
		cols, rows = c, r
	}

	info, err := sup.Create(termcore.CreateOptions{Shell: shell, Cols: cols, Rows: rows})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	sess, err := sup.Get(info.ID)
	if err != nil {
		return err
	}
	defer sup.Close(info.ID)

	kb := facades.NewKeyboard(facades.NewCapability(sup))

	if platform.WindowChangeSupported {
		winch := make(chan os.Signal, 1)
		signal.Notify(winch, platform.WindowChangeSignal)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-winch:
					if c, r, err := platform.CurrentSize(os.Stdout.Fd()); err == nil {
						sess.Resize(c, r)
					}
				}
			}
		}()
	}

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				kb.Type(info.ID, string(buf[:n]))
			}
			if err != nil {
				return
			}
		}
	}()

	var lastOffset int64
	ticker := time.NewTicker(30 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			state := sess.Snapshot()
			if int64(len(state.Content)) > lastOffset {
				io.WriteString(os.Stdout, string(state.Content[lastOffset:]))
				lastOffset = int64(len(state.Content))
			}
		}
	}
}
