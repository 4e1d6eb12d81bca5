package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	charm "github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/gommon/log"

	"storyroom/pkg/config"
	"storyroom/pkg/generate"
	"storyroom/pkg/queue"
	"storyroom/pkg/queue/frames"
	"storyroom/pkg/server"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	charm.SetLevel(charm.DebugLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	providers, err := cfg.Providers(ctx)
	if err != nil {
		log.Fatal(err)
	}

	orchestrator := &generate.Orchestrator{
		Providers: providers,
		Policy:    cfg.Retry,
		Observer:  generate.LogObserver{},
	}

	var frameQueue queue.Queue
	if images := cfg.Images(); images != nil {
		frameQueue = frames.New(images, cfg.FramesDir())
	} else {
		log.Warn("OPENAI_API_KEY not set, storyboard frames disabled")
	}

	srv, err := server.NewServer(ctx, orchestrator, cfg.ResultsDir(), frameQueue)
	if err != nil {
		log.Fatal(err)
	}
	srv.Echo.Logger.SetLevel(log.DEBUG)

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	log.Infof("Loaded %d locations and %d questionnaires, providers %v", srv.Locations.Len(), srv.Questionnaires.Len(), names)

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(err)
		}
		close(finishedShutDown)
	}()

	if err := srv.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(err)
		os.Exit(1)
	}
	<-finishedShutDown
}
