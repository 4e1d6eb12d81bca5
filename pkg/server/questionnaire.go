package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"storyroom/pkg/generate"
	"storyroom/pkg/schema"
	"storyroom/pkg/utils"
)

var questionnaireSpec = generate.Spec[schema.Questionnaire]{Schema: schema.QuestionnaireSchema}

type QuestionnaireRequest struct {
	Owner    string `json:"owner,omitempty"`
	Title    string `json:"title"`
	Logline  string `json:"logline"`
	Genre    string `json:"genre,omitempty"`
	Episodes int    `json:"episodes,omitempty"`
}

type questionnaireResp struct {
	ID            string               `json:"id"`
	Questionnaire schema.Questionnaire `json:"questionnaire"`
	Questions     int                  `json:"questions"`
}

// POST /api/questionnaire
func (s *Server) handlePostQuestionnaire(c echo.Context) error {
	var req QuestionnaireRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.Title, req.Logline = strings.TrimSpace(req.Title), strings.TrimSpace(req.Logline)
	if req.Title == "" || req.Logline == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("title and logline are required"))
	}

	q, err := generate.Generate(c.Request().Context(), s.Orchestrator, questionnaireRequest(req), questionnaireSpec)
	if err != nil {
		return generationError(c, err)
	}

	doc, err := s.Questionnaires.Add(req.Owner, QuestionnaireRun{Brief: req, Questionnaire: q})
	if err != nil {
		log.Error("failed saving questionnaire", "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON("failed saving questionnaire"))
	}

	log.Info("questionnaire generated", "id", doc.ID, "categories", len(q.Categories), "questions", q.Count())
	return c.JSON(http.StatusOK, questionnaireResp{ID: doc.ID, Questionnaire: q, Questions: q.Count()})
}

// generationError maps a failed generation to a response. Exhaustion is a
// 502 carrying every attempt.
func generationError(c echo.Context, err error) error {
	var ex *generate.ExhaustedError
	switch {
	case errors.As(err, &ex):
		log.Warn("generation exhausted", "path", c.Path(), "attempts", len(ex.Attempts))
		body := utils.ErrJSON(ex.Error())
		body["attempts"] = ex.Attempts
		return c.JSON(http.StatusBadGateway, body)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, utils.ErrJSON("request cancelled"))
	default:
		log.Error("generation failed", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
}
