package server

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"storyroom/pkg/diff"
	"storyroom/pkg/generate"
	"storyroom/pkg/inference"
	"storyroom/pkg/pricing"
	"storyroom/pkg/schema"
	"storyroom/pkg/store"
	"storyroom/pkg/utils"
)

var locationSpec = generate.Spec[schema.LocationSuggestions]{
	Schema:      schema.LocationSuggestionsSchema,
	PostProcess: pricing.Backfill,
}

type locationsReq struct {
	Owner  string                 `json:"owner,omitempty"`
	Groups []schema.LocationGroup `json:"groups"`
}

type attemptEvent struct {
	Index    int    `json:"index"`
	State    string `json:"state"`
	Provider string `json:"provider"`
	Attempt  int    `json:"attempt"`
	DelayMS  int64  `json:"delayMs,omitempty"`
	Error    string `json:"error,omitempty"`
}

// POST /api/locations
func (s *Server) handlePostLocations(c echo.Context) error {
	var req locationsReq
	if err := c.Bind(&req); err != nil {
		log.Error("invalid JSON in /api/locations", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.Groups = slices.DeleteFunc(req.Groups, func(g schema.LocationGroup) bool {
		return strings.TrimSpace(g.Name) == "" && len(g.Scenes) == 0
	})
	if len(req.Groups) == 0 {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("at least one location group is required"))
	}

	w, err := utils.NewSSEWriter(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	defer w.Close()

	log.Info("starting location batch", "owner", req.Owner, "groups", len(req.Groups))

	current := 0
	o := s.streamingOrchestrator(func(e generate.Event) {
		if e.State != generate.Retrying && e.State != generate.ProviderExhausted {
			return
		}
		ev := attemptEvent{
			Index:    current,
			State:    e.State.String(),
			Provider: e.Provider,
			Attempt:  e.Attempt + 1,
			DelayMS:  e.Delay.Milliseconds(),
		}
		if e.Err != nil {
			ev.Error = e.Err.Error()
		}
		_ = w.Event("attempt", ev)
	})

	results := generate.Batch(c.Request().Context(), o, locationRequests(req.Groups), locationSpec, func(p generate.Progress) {
		current = p.Index
		_ = w.Event("progress", p)
	})
	for _, r := range results {
		_ = w.Event("item", r)
	}

	doc, err := s.Locations.Add(req.Owner, LocationBatch{Groups: req.Groups, Results: results})
	if err != nil {
		log.Error("failed saving location batch", "error", err)
		return w.Event("error", utils.ErrJSON("failed saving results"))
	}

	failed := generate.Failed(results)
	log.Info("location batch finished", "id", doc.ID, "groups", len(results), "failed", len(failed))
	return w.Event("done", map[string]any{"id": doc.ID, "failed": failed})
}

type locationsRetryReq struct {
	ID string `json:"id"`
	// Indexes forces these groups to be regenerated even if they succeeded.
	Indexes []int `json:"indexes,omitempty"`
}

type locationsRetryResp struct {
	ID      string                                        `json:"id"`
	Results []generate.Result[schema.LocationSuggestions] `json:"results"`
	Diffs   map[int][]diff.SuggestionDiff                 `json:"diffs"`
	Failed  []int                                         `json:"failed"`
}

// POST /api/locations/retry
func (s *Server) handlePostLocationsRetry(c echo.Context) error {
	var req locationsRetryReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	doc, err := s.Locations.Get(req.ID)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, utils.ErrJSON("result not found"))
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}

	prev := slices.Clone(doc.Data.Results)
	for _, i := range req.Indexes {
		if i < 0 || i >= len(prev) {
			return c.JSON(http.StatusBadRequest, utils.ErrJSON("index out of range"))
		}
		prev[i] = generate.Result[schema.LocationSuggestions]{Index: i, Error: "regenerate requested"}
	}

	log.Info("retrying location batch", "id", doc.ID, "failed", len(generate.Failed(prev)))
	results := generate.RetryFailed(c.Request().Context(), s.Orchestrator, locationRequests(doc.Data.Groups), prev, locationSpec, nil)

	diffs := make(map[int][]diff.SuggestionDiff)
	for i, r := range results {
		if r.Failed() || i >= len(doc.Data.Results) {
			continue
		}
		changes := diff.Changed(diff.Suggestions(doc.Data.Results[i].Value.Suggestions, r.Value.Suggestions))
		if len(changes) > 0 {
			diffs[i] = changes
		}
	}

	doc.Data.Results = results
	if _, err := s.Locations.Set(doc.ID, doc.Data); err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON("failed saving results"))
	}

	return c.JSON(http.StatusOK, locationsRetryResp{
		ID:      doc.ID,
		Results: results,
		Diffs:   diffs,
		Failed:  generate.Failed(results),
	})
}

// streamingOrchestrator copies the server orchestrator with fn added to its observers.
func (s *Server) streamingOrchestrator(fn func(generate.Event)) *generate.Orchestrator {
	o := *s.Orchestrator
	if o.Observer != nil {
		o.Observer = generate.Observers(o.Observer, generate.ObserverFunc(fn))
	} else {
		o.Observer = generate.ObserverFunc(fn)
	}
	return &o
}

func locationRequests(groups []schema.LocationGroup) []inference.Request {
	reqs := make([]inference.Request, len(groups))
	for i, g := range groups {
		reqs[i] = locationRequest(g)
	}
	return reqs
}
