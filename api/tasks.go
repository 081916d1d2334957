package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

type tasksResponse struct {
	Tasks []*domain.Task `json:"tasks"`
}

type updateTaskResponse struct {
	Task     *domain.Task      `json:"task"`
	Activity []domain.Activity `json:"activity"`
}

type moveTaskRequest struct {
	Status string `json:"status"`
	Index  *int   `json:"index"`
}

type reorderRequest struct {
	Updates []domain.OrderUpdate `json:"updates"`
}

type reorderResponse struct {
	Applied int `json:"applied"`
}

type noteRequest struct {
	Text string `json:"text"`
}

type commentResponse struct {
	Note domain.Note  `json:"note"`
	Task *domain.Task `json:"task"`
}

type removedResponse struct {
	Removed int `json:"removed"`
}

func (s *server) listTasks(c echo.Context, r *request) error {
	view, err := domain.ParseView(c.QueryParam("view"))
	if err != nil {
		return err
	}
	tasks, err := s.tasks.List(r.ctx, r.owner(), view)
	if err != nil {
		return err
	}
	r.metrics.Count("tasks.returned", len(tasks))
	return c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
}

func (s *server) getTask(c echo.Context, r *request) error {
	task, err := s.tasks.Get(r.ctx, r.owner(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *server) createTask(c echo.Context, r *request) error {
	var draft domain.TaskDraft
	if err := decodeBody(c, &draft); err != nil {
		return err
	}
	task, err := s.tasks.Create(r.ctx, r.owner(), r.actor(), draft)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

func (s *server) createTasks(c echo.Context, r *request) error {
	var body struct {
		Tasks []domain.TaskDraft `json:"tasks"`
	}
	if err := decodeBody(c, &body); err != nil {
		return err
	}
	release, err := s.claimIdempotencyKey(c, r)
	if err != nil {
		return err
	}
	tasks, err := s.tasks.CreateBatch(r.ctx, r.owner(), r.actor(), body.Tasks)
	if err != nil {
		release()
		return err
	}
	r.metrics.Count("tasks.created", len(tasks))
	return c.JSON(http.StatusCreated, tasksResponse{Tasks: tasks})
}

var errDuplicateBatch = echo.NewHTTPError(http.StatusConflict, "batch already submitted")

// claimIdempotencyKey records the request's Idempotency-Key. The returned
// release func forgets the key again so a failed batch can be retried. Redis
// failures are logged and the request proceeds without deduplication.
func (s *server) claimIdempotencyKey(c echo.Context, r *request) (func(), error) {
	key := c.Request().Header.Get(HeaderIdempotencyKey)
	if s.dedupe == nil || key == "" {
		return func() {}, nil
	}
	added, err := s.dedupe.Add(r.ctx, r.owner(), key)
	if err != nil {
		s.logger.WithError(err).WithField("user", r.owner()).Warn("idempotency check failed")
		return func() {}, nil
	}
	if !added {
		r.metrics.Count("tasks.duplicate_batch", 1)
		return nil, errDuplicateBatch
	}
	return func() {
		if err := s.dedupe.Remove(r.ctx, r.owner(), key); err != nil {
			s.logger.WithError(err).WithField("user", r.owner()).Warn("release idempotency key failed")
		}
	}, nil
}

func (s *server) updateTask(c echo.Context, r *request) error {
	var patch domain.TaskPatch
	if err := decodeBody(c, &patch); err != nil {
		return err
	}
	task, appended, err := s.tasks.Update(r.ctx, r.owner(), c.Param("id"), r.actor(), patch)
	if err != nil {
		return err
	}
	r.metrics.Count("activity.appended", len(appended))
	if appended == nil {
		appended = []domain.Activity{}
	}
	return c.JSON(http.StatusOK, updateTaskResponse{Task: task, Activity: appended})
}

func (s *server) moveTask(c echo.Context, r *request) error {
	var body moveTaskRequest
	if err := decodeBody(c, &body); err != nil {
		return err
	}
	if body.Status == "" || body.Index == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "status and index are required")
	}
	task, err := s.tasks.Move(r.ctx, r.owner(), c.Param("id"), r.actor(), body.Status, *body.Index)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *server) reorderTasks(c echo.Context, r *request) error {
	var body reorderRequest
	if err := decodeBody(c, &body); err != nil {
		return err
	}
	applied, err := s.tasks.BulkReorder(r.ctx, r.owner(), body.Updates)
	if err != nil {
		return err
	}
	r.metrics.Count("tasks.reordered", applied)
	r.metrics.Count("tasks.skipped", len(body.Updates)-applied)
	return c.JSON(http.StatusOK, reorderResponse{Applied: applied})
}

func (s *server) pinTask(pinned bool) handlerFunc {
	return func(c echo.Context, r *request) error {
		task, err := s.tasks.SetPinned(r.ctx, r.owner(), c.Param("id"), r.actor(), pinned)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, task)
	}
}

func (s *server) archiveTask(archived bool) handlerFunc {
	return func(c echo.Context, r *request) error {
		task, err := s.tasks.SetArchived(r.ctx, r.owner(), c.Param("id"), r.actor(), archived)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, task)
	}
}

func (s *server) deleteTask(c echo.Context, r *request) error {
	task, err := s.tasks.SoftDelete(r.ctx, r.owner(), c.Param("id"), r.actor())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *server) restoreTask(c echo.Context, r *request) error {
	task, err := s.tasks.Restore(r.ctx, r.owner(), c.Param("id"), r.actor())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *server) purgeTask(c echo.Context, r *request) error {
	if err := s.tasks.PermanentDelete(r.ctx, r.owner(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) emptyTaskTrash(c echo.Context, r *request) error {
	n, err := s.tasks.EmptyTrash(r.ctx, r.owner())
	if err != nil {
		return err
	}
	r.metrics.Count("tasks.removed", n)
	return c.JSON(http.StatusOK, removedResponse{Removed: n})
}

func (s *server) commentTask(c echo.Context, r *request) error {
	var body noteRequest
	if err := decodeBody(c, &body); err != nil {
		return err
	}
	note, task, err := s.tasks.AddComment(r.ctx, r.owner(), c.Param("id"), r.actor(), body.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, commentResponse{Note: note, Task: task})
}
