package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc Services, auth Authenticator, logger *log.Logger) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &server{tasks: svc.Tasks, contacts: svc.Contacts, health: svc.Health, dedupe: svc.Dedupe, auth: auth, logger: logger}

	e.GET("/healthz", s.healthz)
	e.GET("/api/board", s.handle("/api/board", "board.get", s.getBoard))

	if s.tasks != nil {
		e.GET("/api/tasks", s.handle("/api/tasks", "tasks.list", s.listTasks))
		e.POST("/api/tasks", s.handle("/api/tasks", "tasks.create", s.createTask))
		e.POST("/api/tasks/batch", s.handle("/api/tasks/batch", "tasks.create_batch", s.createTasks))
		e.POST("/api/tasks/reorder", s.handle("/api/tasks/reorder", "tasks.reorder", s.reorderTasks))
		e.DELETE("/api/tasks/trash", s.handle("/api/tasks/trash", "tasks.empty_trash", s.emptyTaskTrash))
		e.GET("/api/tasks/:id", s.handle("/api/tasks/:id", "tasks.get", s.getTask))
		e.PATCH("/api/tasks/:id", s.handle("/api/tasks/:id", "tasks.update", s.updateTask))
		e.DELETE("/api/tasks/:id", s.handle("/api/tasks/:id", "tasks.delete", s.deleteTask))
		e.POST("/api/tasks/:id/move", s.handle("/api/tasks/:id/move", "tasks.move", s.moveTask))
		e.POST("/api/tasks/:id/pin", s.handle("/api/tasks/:id/pin", "tasks.pin", s.pinTask(true)))
		e.DELETE("/api/tasks/:id/pin", s.handle("/api/tasks/:id/pin", "tasks.unpin", s.pinTask(false)))
		e.POST("/api/tasks/:id/archive", s.handle("/api/tasks/:id/archive", "tasks.archive", s.archiveTask(true)))
		e.DELETE("/api/tasks/:id/archive", s.handle("/api/tasks/:id/archive", "tasks.unarchive", s.archiveTask(false)))
		e.POST("/api/tasks/:id/restore", s.handle("/api/tasks/:id/restore", "tasks.restore", s.restoreTask))
		e.DELETE("/api/tasks/:id/permanent", s.handle("/api/tasks/:id/permanent", "tasks.purge", s.purgeTask))
		e.POST("/api/tasks/:id/comments", s.handle("/api/tasks/:id/comments", "tasks.comment", s.commentTask))
	}

	if s.contacts != nil {
		e.GET("/api/contacts", s.handle("/api/contacts", "contacts.list", s.listContacts))
		e.POST("/api/contacts", s.handle("/api/contacts", "contacts.create", s.createContact))
		e.DELETE("/api/contacts/trash", s.handle("/api/contacts/trash", "contacts.empty_trash", s.emptyContactTrash))
		e.GET("/api/contacts/:id", s.handle("/api/contacts/:id", "contacts.get", s.getContact))
		e.PATCH("/api/contacts/:id", s.handle("/api/contacts/:id", "contacts.update", s.updateContact))
		e.DELETE("/api/contacts/:id", s.handle("/api/contacts/:id", "contacts.delete", s.deleteContact))
		e.POST("/api/contacts/:id/pin", s.handle("/api/contacts/:id/pin", "contacts.pin", s.pinContact(true)))
		e.DELETE("/api/contacts/:id/pin", s.handle("/api/contacts/:id/pin", "contacts.unpin", s.pinContact(false)))
		e.POST("/api/contacts/:id/restore", s.handle("/api/contacts/:id/restore", "contacts.restore", s.restoreContact))
		e.DELETE("/api/contacts/:id/permanent", s.handle("/api/contacts/:id/permanent", "contacts.purge", s.purgeContact))
		e.POST("/api/contacts/:id/notes", s.handle("/api/contacts/:id/notes", "contacts.note", s.noteContact))
	}
}

type server struct {
	tasks    TaskService
	contacts ContactService
	health   HealthChecker
	dedupe   Deduper
	auth     Authenticator
	logger   *log.Logger
}

// request carries what an authenticated handler needs.
type request struct {
	ctx      context.Context
	identity Identity
	metrics  *requestMetrics
}

func (r *request) owner() string { return r.identity.UserID }
func (r *request) actor() string { return r.identity.DisplayName }

type handlerFunc func(c echo.Context, r *request) error

// handle authenticates the caller, runs h inside a request span and turns
// returned errors into JSON error responses.
func (s *server) handle(route, operation string, h handlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		metrics, ctx := newRequestMetrics(c.Request().Context(), s.logger, route, operation)
		c.SetRequest(c.Request().WithContext(ctx))
		var failure error
		defer func() {
			metrics.Log(c.Response().Status, failure)
		}()

		authStart := time.Now()
		identity, err := s.auth.IdentityFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if err != nil {
			metrics.SetErrorStage("auth")
			failure = err
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}

		handlerStart := time.Now()
		err = h(c, &request{ctx: ctx, identity: identity, metrics: metrics})
		metrics.ObserveHandler(time.Since(handlerStart))
		if err == nil {
			return nil
		}
		failure = err
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			metrics.SetErrorStage("storage")
			s.logger.WithError(err).WithFields(log.Fields{"route": route, "user": identity.UserID}).Error("request failed")
		} else {
			metrics.SetErrorStage("request")
		}
		return c.JSON(status, errorResponse{Error: errorMessage(status, err)})
	}
}

func (s *server) healthz(c echo.Context) error {
	if s.health == nil {
		return c.NoContent(http.StatusOK)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := s.health.Ping(ctx); err != nil {
		s.logger.WithError(err).Warn("health check failed")
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
	}
	return c.NoContent(http.StatusOK)
}

func (s *server) getBoard(c echo.Context, r *request) error {
	if s.tasks == nil {
		return echo.NewHTTPError(http.StatusNotFound, "board not configured")
	}
	return c.JSON(http.StatusOK, s.tasks.Board())
}
