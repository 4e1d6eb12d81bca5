package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"storyroom/pkg/store"
	"storyroom/pkg/utils"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	providers := make([]string, 0, len(s.Orchestrator.Providers))
	for _, p := range s.Orchestrator.Providers {
		providers = append(providers, p.Name())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"service":   "Storyroom Generation API",
		"status":    "ok",
		"providers": providers,
		"frames":    s.Frames != nil,
	})
}

// GET /api/results/:id
func (s *Server) handleGetResult(c echo.Context) error {
	id := c.Param("id")

	if doc, err := s.Locations.Get(id); err == nil {
		return c.JSON(http.StatusOK, map[string]any{"kind": "locations", "document": doc})
	} else if !errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}

	if doc, err := s.Questionnaires.Get(id); err == nil {
		return c.JSON(http.StatusOK, map[string]any{"kind": "questionnaire", "document": doc})
	} else if !errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}

	return c.JSON(http.StatusNotFound, utils.ErrJSON("result not found"))
}
