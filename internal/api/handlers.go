package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/internal/view"
)

// itemRequest is the create body. Dates are YYYY-MM-DD.
type itemRequest struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Status     model.Status      `json:"status"`
	Recurrence *model.Recurrence `json:"recurrence"`
	DueDate    string            `json:"due_date"`
	Position   float64           `json:"position"`
	Bucket     string            `json:"bucket"`
	Metadata   model.Metadata    `json:"metadata"`
}

// patchRequest is the partial update body. Absent fields are unchanged.
type patchRequest struct {
	Title           *string           `json:"title"`
	Content         *string           `json:"content"`
	Status          *model.Status     `json:"status"`
	Recurrence      *model.Recurrence `json:"recurrence"`
	ClearRecurrence bool              `json:"clear_recurrence"`
	DueDate         *string           `json:"due_date"`
	ClearDueDate    bool              `json:"clear_due_date"`
	Position        *float64          `json:"position"`
	Bucket          *string           `json:"bucket"`
	Metadata        *model.Metadata   `json:"metadata"`
}

type reorderRequest struct {
	Bucket   string `json:"bucket"`
	MovedID  string `json:"moved_id"`
	TargetID string `json:"target_id"`

	// Offset moves by a number of places when TargetID is empty.
	Offset int `json:"offset"`
}

type templateRequest struct {
	IDs  []string `json:"ids"`
	Date string   `json:"date"`
}

func collection(c echo.Context) model.Collection {
	return model.Collection(c.Param("collection"))
}

func parseDay(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.Local)
}

func (s *Server) listItems(c echo.Context) error {
	status, err := view.ParseStatus(c.QueryParam("status"))
	if err != nil {
		return badRequest(c, "Invalid status filter", err)
	}
	sort, err := view.ParseSort(c.QueryParam("sort"))
	if err != nil {
		return badRequest(c, "Invalid sort", err)
	}

	opts := view.Options{
		Status: status,
		Sort:   sort,
		Search: c.QueryParam("search"),
		Locale: c.QueryParam("locale"),
	}
	if tags := c.QueryParam("tags"); tags != "" {
		opts.Tags = strings.Split(tags, ",")
	}

	items, err := s.svc.List(c.Request().Context(), collection(c), opts)
	if err == nil && c.QueryParam("favorites") == "true" {
		items = view.FavoritesOnly(items)
	}
	return result(c, items, err)
}

func (s *Server) createItem(c echo.Context) error {
	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid item", err)
	}

	it := model.Item{
		Collection: collection(c),
		Title:      req.Title,
		Content:    req.Content,
		Status:     req.Status,
		Recurrence: req.Recurrence,
		Position:   req.Position,
		Bucket:     req.Bucket,
		Metadata:   req.Metadata,
	}
	if req.DueDate != "" {
		due, err := parseDay(req.DueDate)
		if err != nil {
			return badRequest(c, "Invalid due_date", err)
		}
		it.DueDate = &due
	}

	created, err := s.svc.Create(c.Request().Context(), it)
	if err != nil {
		return result(c, nil, err)
	}
	return success(c, http.StatusCreated, "Created", created)
}

func (s *Server) getItem(c echo.Context) error {
	it, err := s.svc.Get(c.Request().Context(), collection(c), c.Param("id"))
	return result(c, it, err)
}

func (s *Server) patchItem(c echo.Context) error {
	var req patchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid patch", err)
	}

	p := store.Patch{
		Title:           req.Title,
		Content:         req.Content,
		Status:          req.Status,
		Recurrence:      req.Recurrence,
		ClearRecurrence: req.ClearRecurrence,
		ClearDueDate:    req.ClearDueDate,
		Position:        req.Position,
		Bucket:          req.Bucket,
		Metadata:        req.Metadata,
	}
	if req.DueDate != nil {
		due, err := parseDay(*req.DueDate)
		if err != nil {
			return badRequest(c, "Invalid due_date", err)
		}
		p.DueDate = &due
	}

	it, err := s.svc.Edit(c.Request().Context(), collection(c), c.Param("id"), p)
	return result(c, it, err)
}

func (s *Server) deleteItem(c echo.Context) error {
	err := s.svc.Delete(c.Request().Context(), collection(c), c.Param("id"))
	return result(c, nil, err)
}

func (s *Server) complete(c echo.Context) error {
	bonus := c.QueryParam("bonus") == "true"
	it, err := s.svc.SmartComplete(c.Request().Context(), collection(c), c.Param("id"), bonus)
	return result(c, it, err)
}

func (s *Server) undo(c echo.Context) error {
	it, err := s.svc.Undo(c.Request().Context(), collection(c), c.Param("id"))
	return result(c, it, err)
}

func (s *Server) removeLedgerEntry(c echo.Context) error {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest(c, "Invalid ledger index", err)
	}
	it, err := s.svc.RemoveLedgerEntry(c.Request().Context(), collection(c), c.Param("id"), i)
	return result(c, it, err)
}

func (s *Server) archive(c echo.Context) error {
	it, err := s.svc.Archive(c.Request().Context(), collection(c), c.Param("id"))
	return result(c, it, err)
}

func (s *Server) void(c echo.Context) error {
	it, err := s.svc.Void(c.Request().Context(), collection(c), c.Param("id"))
	return result(c, it, err)
}

func (s *Server) restore(c echo.Context) error {
	it, err := s.svc.Restore(c.Request().Context(), collection(c), c.Param("id"))
	return result(c, it, err)
}

func (s *Server) toggleSubAction(c echo.Context) error {
	it, err := s.svc.ToggleSubAction(c.Request().Context(), collection(c), c.Param("id"), c.Param("key"))
	return result(c, it, err)
}

func (s *Server) reorder(c echo.Context) error {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid reorder", err)
	}
	if req.MovedID == "" {
		return badRequest(c, "moved_id is required", nil)
	}

	ctx, coll := c.Request().Context(), collection(c)
	if req.TargetID == "" {
		entries, err := s.svc.Move(ctx, coll, req.Bucket, req.MovedID, req.Offset)
		return result(c, entries, err)
	}
	entries, err := s.svc.Reorder(ctx, coll, req.Bucket, req.MovedID, req.TargetID)
	return result(c, entries, err)
}

func (s *Server) renormalize(c echo.Context) error {
	entries, err := s.svc.Renormalize(c.Request().Context(), collection(c), c.Param("bucket"))
	return result(c, entries, err)
}

func (s *Server) calendar(c echo.Context) error {
	month := s.now()
	if m := c.QueryParam("month"); m != "" {
		t, err := time.ParseInLocation("2006-01", m, time.Local)
		if err != nil {
			return badRequest(c, "Invalid month", fmt.Errorf("want YYYY-MM: %w", err))
		}
		month = t
	}
	cells, err := s.svc.Calendar(c.Request().Context(), collection(c), c.Param("id"), month)
	return result(c, cells, err)
}

func (s *Server) links(c echo.Context) error {
	links, err := s.svc.Links(c.Request().Context(), collection(c), c.Param("id"))
	return result(c, links, err)
}

func (s *Server) listTags(c echo.Context) error {
	tags, err := s.svc.Tags(c.Request().Context(), collection(c))
	return result(c, tags, err)
}

func (s *Server) listTemplates(c echo.Context) error {
	items, err := s.svc.Templates(c.Request().Context(), collection(c))
	return result(c, items, err)
}

func (s *Server) loadTemplate(c echo.Context) error {
	var req templateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid template request", err)
	}
	date := s.now()
	if req.Date != "" {
		d, err := parseDay(req.Date)
		if err != nil {
			return badRequest(c, "Invalid date", err)
		}
		date = d
	}

	items, err := s.svc.LoadTemplate(c.Request().Context(), collection(c), req.IDs, date)
	if err != nil {
		return result(c, nil, err)
	}
	return success(c, http.StatusCreated, fmt.Sprintf("Loaded %d items", len(items)), items)
}
