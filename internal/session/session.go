// Package session drives an annotator's working loop: one task at a time,
// answers accumulating into an annotation that persists on a debounced
// auto-save timer and at every navigation boundary.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panolabel/panolabel/internal/annotations"
	"github.com/panolabel/panolabel/internal/tasks"
)

// State identifies where a session is in its lifecycle.
type State int

const (
	// Idle is the state before Start.
	Idle State = iota
	// Loading covers task catalog and annotation fetches.
	Loading
	// Ready accepts edits and navigation.
	Ready
	// Saving covers an in-flight persist.
	Saving
	// Closed accepts nothing; the session flushed and shut down.
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Saving:
		return "saving"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Position reports where a session is within its task queue.
type Position struct {
	Index int `json:"index"`
	Total int `json:"total"`
}

// Session is a single annotator's pass over the task queue. All methods
// are safe for concurrent use; the auto-save timer fires on its own
// goroutine.
type Session struct {
	taskResolver *tasks.Resolver
	annotations  *annotations.Resolver
	userID       string
	debounce     time.Duration
	saveTimeout  time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	state   State
	notify  func(State)
	queue   []tasks.Task
	index   int
	current annotations.Annotation
	dirty   bool
	timer   *time.Timer
}

// New creates a Session for the given user. An empty userID runs the
// session unauthenticated, against the local cache only.
func New(
	taskResolver *tasks.Resolver,
	annotationResolver *annotations.Resolver,
	userID string,
	cfg *Config,
	logger *slog.Logger,
) *Session {
	return &Session{
		taskResolver: taskResolver,
		annotations:  annotationResolver,
		userID:       userID,
		debounce:     cfg.AutoSaveDebounceDuration(),
		saveTimeout:  cfg.SaveTimeoutDuration(),
		logger:       logger.With("system", "session"),
	}
}

// OnStateChange registers fn to run after every state transition. fn runs
// with the session lock held and must not call back into the session.
func (s *Session) OnStateChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// Start loads the task queue and the annotation for the first task.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return ErrClosed
	}

	s.setState(Loading)
	s.queue = s.taskResolver.Catalog(ctx)
	if len(s.queue) == 0 {
		s.setState(Idle)
		return ErrNoTasks
	}

	s.index = 0
	if err := s.loadCurrent(ctx); err != nil {
		s.setState(Idle)
		return err
	}

	s.setState(Ready)
	s.logger.Info("session started", "tasks", len(s.queue), "user_id", s.userID)
	return nil
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the active task and a snapshot of its annotation.
func (s *Session) Current() (tasks.Task, annotations.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready && s.state != Saving {
		return tasks.Task{}, annotations.Annotation{}, ErrNotReady
	}
	return s.queue[s.index], s.snapshot(), nil
}

// Position reports the current index within the task queue.
func (s *Session) Position() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Position{Index: s.index, Total: len(s.queue)}
}

// Progress reports the user's annotation progress across the task queue.
func (s *Session) Progress(ctx context.Context) (*annotations.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready && s.state != Saving {
		return nil, ErrNotReady
	}
	return s.annotations.Progress(ctx, s.userID, len(s.queue))
}

// SetAnswer records the answer for a question of the current task. New
// answers start at the default confidence; editing an answer preserves
// the confidence already set. Each edit re-arms the auto-save timer.
func (s *Session) SetAnswer(questionID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready {
		return ErrNotReady
	}

	q := s.question(questionID)
	if q == nil {
		return ErrUnknownQuestion
	}

	if existing := s.current.AnswerFor(questionID); existing != nil {
		existing.Answer = text
	} else {
		s.current.Answers = append(s.current.Answers, annotations.Answer{
			QuestionID: q.ID,
			Question:   q.Question,
			Attribute:  q.Attribute,
			Answer:     text,
			Confidence: annotations.DefaultConfidence,
		})
	}

	s.markDirty()
	return nil
}

// SetConfidence adjusts the confidence of an existing answer.
// Out-of-range values clamp to the default.
func (s *Session) SetConfidence(questionID string, confidence int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready {
		return ErrNotReady
	}

	answer := s.current.AnswerFor(questionID)
	if answer == nil {
		if s.question(questionID) == nil {
			return ErrUnknownQuestion
		}
		return ErrNoAnswer
	}

	answer.Confidence = annotations.ClampConfidence(confidence)
	s.markDirty()
	return nil
}

// Save persists the current annotation immediately and disarms any
// pending auto-save.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready {
		return ErrNotReady
	}
	return s.flush(ctx)
}

// Complete marks the current annotation complete, persists it, and
// advances to the next task. It reports false when the queue is finished.
func (s *Session) Complete(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready {
		return false, ErrNotReady
	}

	s.current.IsComplete = true
	s.dirty = true
	if err := s.flush(ctx); err != nil {
		return false, err
	}

	if s.index+1 >= len(s.queue) {
		return false, nil
	}
	return true, s.move(ctx, s.index+1)
}

// Next persists pending work and advances to the next task.
func (s *Session) Next(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready {
		return ErrNotReady
	}
	if s.index+1 >= len(s.queue) {
		return ErrNoMoreTasks
	}

	if err := s.flush(ctx); err != nil {
		return err
	}
	return s.move(ctx, s.index+1)
}

// Prev persists pending work and moves to the previous task. At the
// start of the queue it does nothing.
func (s *Session) Prev(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready {
		return ErrNotReady
	}
	if s.index == 0 {
		return nil
	}

	if err := s.flush(ctx); err != nil {
		return err
	}
	return s.move(ctx, s.index-1)
}

// Close flushes pending work and shuts the session down. A closed
// session rejects every other operation.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return nil
	}

	var err error
	if s.state == Ready {
		err = s.flush(ctx)
	}

	s.stopTimer()
	s.setState(Closed)
	return err
}

// setState transitions the session state and fires the change callback.
// Callers hold the lock.
func (s *Session) setState(state State) {
	if s.state == state {
		return
	}
	s.state = state
	if s.notify != nil {
		s.notify(state)
	}
}

// question returns the current task's question by identifier, or nil.
func (s *Session) question(questionID string) *tasks.Question {
	task := s.queue[s.index]
	for i := range task.Questions {
		if task.Questions[i].ID == questionID {
			return &task.Questions[i]
		}
	}
	return nil
}

// markDirty flags unsaved work and re-arms the debounce timer. Callers
// hold the lock.
func (s *Session) markDirty() {
	s.dirty = true
	s.stopTimer()
	if s.debounce <= 0 {
		return
	}
	s.timer = time.AfterFunc(s.debounce, s.autoSave)
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// autoSave runs on the timer goroutine once edits settle.
func (s *Session) autoSave() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready || !s.dirty {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()

	if err := s.flush(ctx); err != nil {
		s.logger.Warn("auto-save failed, keeping work pending",
			"image_id", s.current.ImageID, "error", err)
	}
}

// flush persists the current annotation when dirty. Callers hold the lock.
func (s *Session) flush(ctx context.Context) error {
	s.stopTimer()
	if !s.dirty {
		return nil
	}

	prev := s.state
	s.setState(Saving)

	result, err := s.annotations.SaveAnnotation(ctx, s.snapshot())

	s.setState(prev)
	if err != nil {
		return fmt.Errorf("save annotation: %w", err)
	}

	s.current = result.Annotation
	s.dirty = false

	if result.Local {
		s.logger.Warn("annotation saved locally only", "image_id", s.current.ImageID)
	}
	return nil
}

// move loads the annotation for the task at index. Callers hold the lock
// and have already flushed.
func (s *Session) move(ctx context.Context, index int) error {
	s.index = index
	return s.loadCurrent(ctx)
}

// loadCurrent fetches or initializes the annotation for the active task.
// Callers hold the lock.
func (s *Session) loadCurrent(ctx context.Context) error {
	task := s.queue[s.index]

	a, err := s.annotations.FindAnnotation(ctx, task.ImageID, s.userID)
	switch {
	case err == nil:
		s.current = *a
	case errors.Is(err, annotations.ErrNotFound):
		s.current = annotations.Annotation{
			ImageID:  task.ImageID,
			ImageURL: task.ImageURL,
			Caption:  task.Caption,
			Answers:  []annotations.Answer{},
			UserID:   s.userID,
		}
	default:
		return fmt.Errorf("load annotation for %s: %w", task.ImageID, err)
	}

	s.current.UserID = s.userID
	s.dirty = false
	return nil
}

// snapshot deep-copies the current annotation so callers never share the
// session's answer slice.
func (s *Session) snapshot() annotations.Annotation {
	a := s.current
	a.Answers = make([]annotations.Answer, len(s.current.Answers))
	copy(a.Answers, s.current.Answers)
	return a
}
