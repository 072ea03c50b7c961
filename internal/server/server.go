// Package server exposes the taskdeck backend as a REST API. Routes are the
// contract the dashboard client and the hierarchy cache fetch against; error
// bodies are always {"message": "..."} so clients can surface them verbatim.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/taskdeck/taskdeck/internal/storage"
	"github.com/taskdeck/taskdeck/internal/storage/sqlite"
	"github.com/taskdeck/taskdeck/internal/types"
)

// Server wraps the echo instance and its dependencies.
type Server struct {
	echo  *echo.Echo
	store storage.Storage
	token string
}

// New builds a server over the given storage. When token is non-empty every
// /api route requires it as a bearer token.
func New(store storage.Storage, token string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s := &Server{echo: e, store: store, token: token}
	s.register()
	return s
}

// Start listens on addr until the server is shut down.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying http.Handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) register() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	api := s.echo.Group("/api", s.requireToken)
	api.GET("/projects", s.listProjects)
	api.POST("/projects", s.createProject)
	api.GET("/projects/:id/work-items", s.listWorkItems)
	api.POST("/projects/:id/work-items", s.createWorkItem)
	api.GET("/projects/:id/work-items/hierarchy", s.getHierarchy)
	api.GET("/projects/:id/work-items/stats", s.getStats)
	api.GET("/work-items/:id", s.getWorkItem)
	api.PUT("/work-items/:id", s.updateWorkItem)
	api.DELETE("/work-items/:id", s.deleteWorkItem)
	api.PATCH("/work-items/:id/status", s.updateStatus)
	api.PATCH("/work-items/:id/active", s.setActive)
}

// requestLogger logs one line per request with method, path, status and
// latency.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.WithFields(log.Fields{
				"method":  c.Request().Method,
				"path":    c.Request().URL.Path,
				"status":  c.Response().Status,
				"latency": time.Since(start).String(),
			}).Debug("request")
			return err
		}
	}
}

func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.token == "" {
			return next(c)
		}
		header := c.Request().Header.Get("Authorization")
		got, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || got != s.token {
			return message(c, http.StatusUnauthorized, "invalid or missing token")
		}
		return next(c)
	}
}

func (s *Server) listProjects(c echo.Context) error {
	projects, err := s.store.ListProjects(c.Request().Context())
	if err != nil {
		return storageError(c, err)
	}
	if projects == nil {
		projects = []*types.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) createProject(c echo.Context) error {
	var project types.Project
	if err := c.Bind(&project); err != nil {
		return message(c, http.StatusBadRequest, "invalid request body")
	}
	if err := s.store.CreateProject(c.Request().Context(), &project); err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusCreated, &project)
}

func (s *Server) listWorkItems(c echo.Context) error {
	projectID := types.ItemID(c.Param("id"))
	filter, err := filterFromQuery(c)
	if err != nil {
		return message(c, http.StatusBadRequest, err.Error())
	}
	items, err := s.store.ListWorkItems(c.Request().Context(), projectID, filter)
	if err != nil {
		return storageError(c, err)
	}
	if items == nil {
		items = []*types.WorkItem{}
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) createWorkItem(c echo.Context) error {
	var item types.WorkItem
	if err := c.Bind(&item); err != nil {
		return message(c, http.StatusBadRequest, "invalid request body")
	}
	item.ProjectID = types.ItemID(c.Param("id"))
	if err := s.store.CreateWorkItem(c.Request().Context(), &item); err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusCreated, &item)
}

func (s *Server) getHierarchy(c echo.Context) error {
	tree, err := s.store.Hierarchy(c.Request().Context(), types.ItemID(c.Param("id")))
	if err != nil {
		return storageError(c, err)
	}
	if tree == nil {
		tree = []*types.WorkItem{}
	}
	return c.JSON(http.StatusOK, tree)
}

func (s *Server) getStats(c echo.Context) error {
	stats, err := s.store.Stats(c.Request().Context(), types.ItemID(c.Param("id")))
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) getWorkItem(c echo.Context) error {
	item, err := s.store.GetWorkItem(c.Request().Context(), types.ItemID(c.Param("id")))
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// updatePayload is the wire shape of a partial work item edit. Pointers
// separate "not sent" from zero values.
type updatePayload struct {
	Title              *string  `json:"title"`
	Description        *string  `json:"description"`
	Status             *string  `json:"status"`
	Priority           *string  `json:"priority"`
	EstimatedHours     *float64 `json:"estimated_hours"`
	OrderIndex         *int     `json:"order_index"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
}

func (s *Server) updateWorkItem(c echo.Context) error {
	var payload updatePayload
	if err := c.Bind(&payload); err != nil {
		return message(c, http.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if payload.Title != nil {
		updates["title"] = *payload.Title
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if payload.Status != nil {
		updates["status"] = *payload.Status
	}
	if payload.Priority != nil {
		updates["priority"] = *payload.Priority
	}
	if payload.EstimatedHours != nil {
		updates["estimated_hours"] = *payload.EstimatedHours
	}
	if payload.OrderIndex != nil {
		updates["order_index"] = *payload.OrderIndex
	}
	if payload.AcceptanceCriteria != nil {
		updates["acceptance_criteria"] = payload.AcceptanceCriteria
	}

	item, err := s.store.UpdateWorkItem(c.Request().Context(), types.ItemID(c.Param("id")), updates)
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (s *Server) deleteWorkItem(c echo.Context) error {
	if err := s.store.DeleteWorkItem(c.Request().Context(), types.ItemID(c.Param("id"))); err != nil {
		return storageError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) updateStatus(c echo.Context) error {
	status := c.QueryParam("status")
	if !types.ItemStatus(status).IsValid() {
		return message(c, http.StatusBadRequest, "invalid status: "+status)
	}
	item, err := s.store.UpdateWorkItem(c.Request().Context(), types.ItemID(c.Param("id")),
		map[string]interface{}{"status": status})
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (s *Server) setActive(c echo.Context) error {
	active, err := strconv.ParseBool(c.QueryParam("active"))
	if err != nil {
		return message(c, http.StatusBadRequest, "active must be true or false")
	}
	item, err := s.store.SetActive(c.Request().Context(), types.ItemID(c.Param("id")), active)
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func filterFromQuery(c echo.Context) (types.WorkItemFilter, error) {
	var filter types.WorkItemFilter
	if v := c.QueryParam("type"); v != "" {
		typ := types.ItemType(v)
		if !typ.IsValid() || typ == types.TypeProject {
			return filter, errors.New("invalid type: " + v)
		}
		filter.Type = &typ
	}
	if v := c.QueryParam("status"); v != "" {
		status := types.ItemStatus(v)
		if !status.IsValid() {
			return filter, errors.New("invalid status: " + v)
		}
		filter.Status = &status
	}
	if v := c.QueryParam("priority"); v != "" {
		priority := types.ItemPriority(v)
		if !priority.IsValid() {
			return filter, errors.New("invalid priority: " + v)
		}
		filter.Priority = &priority
	}
	if v := c.QueryParam("parent_id"); v != "" {
		parentID := types.ItemID(v)
		filter.ParentID = &parentID
	}
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, errors.New("invalid limit: " + v)
		}
		filter.Limit = limit
	}
	return filter, nil
}

// storageError maps storage failures onto HTTP statuses.
func storageError(c echo.Context, err error) error {
	if errors.Is(err, sqlite.ErrNotFound) {
		return message(c, http.StatusNotFound, err.Error())
	}
	if strings.Contains(err.Error(), "invalid") || strings.Contains(err.Error(), "cannot be a child") ||
		strings.Contains(err.Error(), "requires a parent") {
		return message(c, http.StatusBadRequest, err.Error())
	}
	log.WithError(err).Error("storage failure")
	return message(c, http.StatusInternalServerError, err.Error())
}

func message(c echo.Context, status int, text string) error {
	return c.JSON(status, map[string]string{"message": text})
}
