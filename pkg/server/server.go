// Package server exposes the generation pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"storyroom/pkg/flight"
	"storyroom/pkg/generate"
	"storyroom/pkg/queue"
	"storyroom/pkg/schema"
	"storyroom/pkg/store"
)

// LocationBatch is a stored run of location suggestions, one result per group.
type LocationBatch struct {
	Groups  []schema.LocationGroup                        `json:"groups"`
	Results []generate.Result[schema.LocationSuggestions] `json:"results"`
}

type QuestionnaireRun struct {
	Brief         QuestionnaireRequest `json:"brief"`
	Questionnaire schema.Questionnaire `json:"questionnaire"`
}

type Server struct {
	Echo         *echo.Echo
	Orchestrator *generate.Orchestrator
	Ctx          context.Context

	Locations      *store.Collection[LocationBatch]
	Questionnaires *store.Collection[QuestionnaireRun]

	// Frames is nil when no image generator is configured.
	Frames      queue.Queue
	frameFlight *flight.Cache[string, schema.StoryboardFrame]
}

func NewServer(ctx context.Context, o *generate.Orchestrator, resultsDir string, frames queue.Queue) (*Server, error) {
	locations, err := store.Open[LocationBatch](resultsDir, "locations")
	if err != nil {
		return nil, err
	}
	questionnaires, err := store.Open[QuestionnaireRun](resultsDir, "questionnaires")
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:           e,
		Orchestrator:   o,
		Ctx:            ctx,
		Locations:      locations,
		Questionnaires: questionnaires,
		Frames:         frames,
		frameFlight:    flight.NewCache[string, schema.StoryboardFrame](time.Hour),
	}

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)

	api := s.Echo.Group("/api")
	api.POST("/locations", s.handlePostLocations)            // batch -> SSE progress/attempt/item/done
	api.POST("/locations/retry", s.handlePostLocationsRetry) // rerun failed or chosen groups, with diffs
	api.POST("/questionnaire", s.handlePostQuestionnaire)
	api.GET("/results/:id", s.handleGetResult)
	api.POST("/frames", s.handlePostFrame)
	api.GET("/frames/:key", s.handleGetFrame)
}

func (s *Server) Start(addr string) error {
	if s.Frames != nil {
		s.Frames.Start()
	}
	log.Info("server listening", "addr", addr, "providers", len(s.Orchestrator.Providers))
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")

	if s.Frames != nil {
		s.Frames.Stop()
	}
	shutDownErr := s.Echo.Shutdown(ctx)
	saveErr := errors.Join(s.Locations.Flush(), s.Questionnaires.Flush())
	if shutDownErr != nil {
		return fmt.Errorf("echo shutdown: %w", shutDownErr)
	}
	return saveErr
}
