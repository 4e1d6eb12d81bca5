package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"storyroom/pkg/generate"
	"storyroom/pkg/queue"
	"storyroom/pkg/schema"
	"storyroom/pkg/utils"
)

var framePromptSpec = generate.Spec[schema.FramePrompt]{Schema: schema.FramePromptSchema}

func frameKey(f schema.FrameRequest) string {
	return utils.SanitizeFilename(fmt.Sprintf("%s-e%02d-s%03d", f.SeriesID, f.Episode, f.Shot))
}

// POST /api/frames
func (s *Server) handlePostFrame(c echo.Context) error {
	var req schema.FrameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if strings.TrimSpace(req.SeriesID) == "" || strings.TrimSpace(req.Scene) == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("seriesId and scene are required"))
	}
	if s.Frames == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "image generation not configured")
	}

	key := frameKey(req)
	// The work is shared by every caller waiting on key, so it runs on the server context.
	render := func() (schema.StoryboardFrame, error) {
		prompt, err := generate.Generate(s.Ctx, s.Orchestrator, frameRequest(req), framePromptSpec)
		if err != nil {
			return schema.StoryboardFrame{}, err
		}
		return queue.Render(s.Ctx, s.Frames, queue.Job{Key: key, Prompt: prompt})
	}

	var frame schema.StoryboardFrame
	var err error
	if req.Force {
		frame, err = s.frameFlight.Force(c.Request().Context(), key, render)
	} else {
		frame, err = s.frameFlight.Get(c.Request().Context(), key, render)
	}
	if err != nil {
		if errors.Is(err, generate.ErrExhausted) {
			return generationError(c, err)
		}
		log.Error("frame generation failed", "key", key, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON("generation failed: "+err.Error()))
	}
	return c.JSON(http.StatusOK, frame)
}

// GET /api/frames/:key
func (s *Server) handleGetFrame(c echo.Context) error {
	key := utils.SanitizeFilename(c.Param("key"))
	if frame, ok := s.frameFlight.Peek(key); ok {
		return c.File(frame.Path)
	}
	if fq, ok := s.Frames.(interface{ Path(string) string }); ok {
		if path := fq.Path(key); utils.Exists(path) {
			return c.File(path)
		}
	}
	return c.JSON(http.StatusNotFound, utils.ErrJSON("frame not found"))
}
