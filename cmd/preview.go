package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/desertthunder/snipx/internal/server"
	"github.com/desertthunder/snipx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Preview serves the loaded snippets as HTML until interrupted.
func (r *Runner) Preview(ctx context.Context, cmd *cli.Command) error {
	addr := net.JoinHostPort(cmd.String("host"), strconv.Itoa(cmd.Int("port")))

	vm, err := r.loadViewModel(ctx, nil)
	if err != nil {
		return err
	}

	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger), server.RequestLogger(r.logger))
	router.Handler(server.NewPreviewHandler(vm, cmd.String("title"), r.logger))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ready := make(chan string, 1)
	go func() {
		bound, ok := <-ready
		if !ok {
			return
		}
		url := fmt.Sprintf("http://%s/", bound)
		r.writePlain("Serving %d snippets at %s (Ctrl+C to stop)\n", len(vm.All()), url)
		if cmd.Bool("open") {
			if err := shared.OpenBrowser(url); err != nil {
				r.logger.Warn("failed to open browser", "error", err)
			}
		}
	}()

	err = server.Serve(ctx, addr, router, r.logger, ready)
	close(ready)
	return err
}
