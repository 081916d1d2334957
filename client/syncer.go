package client

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

// TaskAPI is the part of the board API a Syncer needs.
type TaskAPI interface {
	ListTasks(ctx context.Context, view domain.View) ([]*domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, []domain.Activity, error)
	ReorderTasks(ctx context.Context, updates []domain.OrderUpdate) (int, error)
}

// Syncer pushes optimistic board edits to the server in the background.
type Syncer struct {
	api    TaskAPI
	board  *Board
	logger *log.Logger

	wg sync.WaitGroup

	// mu guards pending and draining. Jobs are queued under the same lock
	// as the local move, so the worker pushes them in drag order.
	mu       sync.Mutex
	pending  []syncJob
	draining bool
}

type syncJob struct {
	ctx      context.Context
	moved    *domain.Task
	siblings []domain.OrderUpdate
}

func NewSyncer(api TaskAPI, board *Board, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Syncer{api: api, board: board, logger: logger}
}

// Drag moves a task on the local board immediately and then sends the
// task's own status and order followed by the sibling orders. The two calls
// are not transactional; when either fails the board is refetched.
func (s *Syncer) Drag(ctx context.Context, id, column string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved, siblings, err := s.board.ApplyMove(id, column, index)
	if err != nil {
		return err
	}
	s.wg.Add(1)
	s.pending = append(s.pending, syncJob{ctx: ctx, moved: moved, siblings: siblings})
	if !s.draining {
		s.draining = true
		go s.drain()
	}
	return nil
}

// drain pushes queued jobs one at a time and exits once the queue is empty.
func (s *Syncer) drain() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		job := s.pending[0]
		s.pending[0] = syncJob{}
		s.pending = s.pending[1:]
		s.mu.Unlock()

		s.push(job.ctx, job.moved, job.siblings)
		s.wg.Done()
	}
}

func (s *Syncer) push(ctx context.Context, moved *domain.Task, siblings []domain.OrderUpdate) {
	status := moved.Status
	canonical, _, err := s.api.UpdateTask(ctx, moved.ID, domain.TaskPatch{Status: &status, Order: moved.Order})
	if err != nil {
		s.logger.WithError(err).WithField("task", moved.ID).Warn("sync move failed")
		s.refetch(ctx)
		return
	}
	s.board.Reconcile(canonical)

	if len(siblings) == 0 {
		return
	}
	if _, err := s.api.ReorderTasks(ctx, siblings); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{"task": moved.ID, "siblings": len(siblings)}).Warn("sync reorder failed")
		s.refetch(ctx)
	}
}

func (s *Syncer) refetch(ctx context.Context) {
	tasks, err := s.api.ListTasks(ctx, domain.ViewActive)
	if err != nil {
		s.logger.WithError(err).Error("refetch board failed")
		return
	}
	s.board.Replace(tasks)
}

// Wait blocks until every in-flight sync has finished.
func (s *Syncer) Wait() {
	s.wg.Wait()
}
