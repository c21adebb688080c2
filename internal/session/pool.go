package session

import (
	"errors"
	"sort"
	"time"
)

var (
	// ErrTaskNotFound is returned when a task id is absent from the live set.
	ErrTaskNotFound = errors.New("task not found")
	// ErrGoalNotFound is returned when a goal id is unknown.
	ErrGoalNotFound = errors.New("goal not found")
)

// TaskSpec describes a task to add to the pool.
type TaskSpec struct {
	Description string
	Capability  string
	Params      map[string]any
	DependsOn   []string
	Priority    int
	Reasoning   string
}

// GoalSpec describes a goal to add to the tree.
type GoalSpec struct {
	Description string
	Kind        GoalKind
	ParentID    string
}

// TaskPatch carries the mutable fields of UpdateTask. Nil fields are left
// untouched.
type TaskPatch struct {
	Status   *TaskStatus
	Result   map[string]any
	Error    *string
	Attempts *int
}

// AddTask assigns an id, stamps creation time, and appends the task to the
// live set with status pending.
func (s *Session) AddTask(spec TaskSpec) *Task {
	t := &Task{
		ID:          GenerateTaskID(),
		Description: spec.Description,
		Capability:  spec.Capability,
		Params:      spec.Params,
		DependsOn:   spec.DependsOn,
		Status:      TaskPending,
		Priority:    spec.Priority,
		Reasoning:   spec.Reasoning,
		CreatedAt:   time.Now(),
	}
	s.Tasks = append(s.Tasks, t)
	return t
}

// Task returns the live or archived task with the given id, or nil.
func (s *Session) Task(id string) *Task {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t
		}
	}
	for _, t := range s.Archived {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// UpdateTask applies a patch to a live task. When the patch moves the task
// to a terminal status it is archived atomically: removed from the live set,
// stamped with a completion time, and — for failures — recorded in the
// failure history.
func (s *Session) UpdateTask(id string, patch TaskPatch) error {
	idx := -1
	for i, t := range s.Tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrTaskNotFound
	}

	t := s.Tasks[idx]
	if patch.Result != nil {
		t.Result = patch.Result
	}
	if patch.Error != nil {
		t.Error = *patch.Error
	}
	if patch.Attempts != nil {
		t.Attempts = *patch.Attempts
	}
	if patch.Status == nil {
		return nil
	}

	t.Status = *patch.Status
	if !t.Status.Terminal() {
		return nil
	}

	now := time.Now()
	t.CompletedAt = &now
	s.Tasks = append(s.Tasks[:idx], s.Tasks[idx+1:]...)
	s.Archived = append(s.Archived, t)

	if t.Status == TaskFailed {
		s.Failures.Record(FailureRecord{
			Capability:      t.Capability,
			TaskDescription: t.Description,
			Error:           t.Error,
			Ts:              now,
			Attempts:        t.Attempts,
		})
	}
	return nil
}

// RemoveTasksByCriteria archives every live task matching the predicate as
// obsolete with the given reason and returns the number archived. Used for
// complete replans.
func (s *Session) RemoveTasksByCriteria(pred func(*Task) bool, reason string) int {
	now := time.Now()
	var kept []*Task
	count := 0
	for _, t := range s.Tasks {
		if !pred(t) {
			kept = append(kept, t)
			continue
		}
		t.Status = TaskObsolete
		t.ObsoleteReason = reason
		t.CompletedAt = &now
		s.Archived = append(s.Archived, t)
		count++
	}
	s.Tasks = kept
	return count
}

// completedIDs returns the ids of all archived tasks that completed
// successfully.
func (s *Session) completedIDs() map[string]bool {
	done := make(map[string]bool, len(s.Archived))
	for _, t := range s.Archived {
		if t.Status == TaskCompleted {
			done[t.ID] = true
		}
	}
	return done
}

// IsReady reports whether a task is pending with every dependency archived
// as completed. A dependency archived as failed or obsolete never satisfies
// readiness; such tasks stay blocked by design.
func (s *Session) IsReady(t *Task) bool {
	if t.Status != TaskPending {
		return false
	}
	done := s.completedIDs()
	for _, dep := range t.DependsOn {
		if !done[dep] {
			return false
		}
	}
	return true
}

// ReadyTasks returns the live tasks that are ready to execute, sorted by
// descending priority. Ties keep creation order (live-set order is creation
// order, and the sort is stable).
func (s *Session) ReadyTasks() []*Task {
	done := s.completedIDs()

	var ready []*Task
	for _, t := range s.Tasks {
		if t.Status != TaskPending {
			continue
		}
		ok := true
		for _, dep := range t.DependsOn {
			if !done[dep] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, t)
		}
	}

	sort.SliceStable(ready, func(i, j int) bool {
		return ready[i].Priority > ready[j].Priority
	})
	return ready
}

// HasPending reports whether any live task is still pending, ready or not.
func (s *Session) HasPending() bool {
	for _, t := range s.Tasks {
		if t.Status == TaskPending {
			return true
		}
	}
	return false
}

// HasPendingCapability reports whether a live pending task with the given
// capability exists.
func (s *Session) HasPendingCapability(capability string) bool {
	for _, t := range s.Tasks {
		if t.Status == TaskPending && t.Capability == capability {
			return true
		}
	}
	return false
}

// AddGoal assigns an id, stamps creation time, and appends the goal.
func (s *Session) AddGoal(spec GoalSpec) *Goal {
	g := &Goal{
		ID:          GenerateGoalID(),
		Description: spec.Description,
		Kind:        spec.Kind,
		ParentID:    spec.ParentID,
		Status:      GoalPending,
		CreatedAt:   time.Now(),
	}
	s.Goals = append(s.Goals, g)
	return g
}

// UpdateGoal sets the status of a goal, failing when the id is unknown.
func (s *Session) UpdateGoal(id string, status GoalStatus) error {
	for _, g := range s.Goals {
		if g.ID == id {
			g.Status = status
			return nil
		}
	}
	return ErrGoalNotFound
}

// MainGoal returns the current main goal, or nil before initial planning.
// Exactly one main goal exists at any time except mid-replan; when a replan
// re-flags the old main goal, the newest one wins.
func (s *Session) MainGoal() *Goal {
	for i := len(s.Goals) - 1; i >= 0; i-- {
		if s.Goals[i].Kind == GoalMain {
			return s.Goals[i]
		}
	}
	return nil
}
