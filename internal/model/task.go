package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyText     = errors.New("model: task text is required")
	ErrTaskNotFound  = errors.New("model: task not found")
	ErrDuplicateTask = errors.New("model: duplicate task id")
)

type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Text) == "" {
		return ErrEmptyText
	}
	if t.Text != strings.TrimSpace(t.Text) {
		return errors.New("model: task text must be trimmed")
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task createdAt is required")
	}
	return nil
}

// TaskList keeps tasks in insertion order, which is also display order.
type TaskList []Task

func (l TaskList) Validate() error {
	seen := make(map[string]bool, len(l))
	for i, t := range l {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("task %d: %w", i, err)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateTask, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

func (l TaskList) Clone() TaskList {
	if l == nil {
		return TaskList{}
	}
	out := make(TaskList, len(l))
	copy(out, l)
	return out
}

func (l TaskList) Index(id string) int {
	for i, t := range l {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Add appends a task with trimmed text. The returned list never aliases l.
func (l TaskList) Add(id, text string, now time.Time) (TaskList, Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return l, Task{}, ErrEmptyText
	}
	if strings.TrimSpace(id) == "" {
		return l, Task{}, errors.New("model: task id is required")
	}
	if l.Index(id) >= 0 {
		return l, Task{}, fmt.Errorf("%w: %q", ErrDuplicateTask, id)
	}
	task := Task{ID: id, Text: text, Done: false, CreatedAt: now}
	out := append(l.Clone(), task)
	return out, task, nil
}

func (l TaskList) Toggle(id string) (TaskList, error) {
	idx := l.Index(id)
	if idx < 0 {
		return l, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	out := l.Clone()
	out[idx].Done = !out[idx].Done
	return out, nil
}

func (l TaskList) Delete(id string) (TaskList, error) {
	idx := l.Index(id)
	if idx < 0 {
		return l, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	out := make(TaskList, 0, len(l)-1)
	out = append(out, l[:idx]...)
	out = append(out, l[idx+1:]...)
	return out, nil
}

// DeleteLastIncomplete removes the last not-done task, scanning from the end of the list.
// Completed tasks are left in place even when they come after it.
func (l TaskList) DeleteLastIncomplete() (TaskList, Task, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].Done {
			continue
		}
		removed := l[i]
		out, _ := l.Delete(removed.ID)
		return out, removed, true
	}
	return l, Task{}, false
}

func (l TaskList) ClearCompleted() (TaskList, int) {
	out := make(TaskList, 0, len(l))
	for _, t := range l {
		if !t.Done {
			out = append(out, t)
		}
	}
	return out, len(l) - len(out)
}

func (l TaskList) Remaining() int {
	n := 0
	for _, t := range l {
		if !t.Done {
			n++
		}
	}
	return n
}

func (l TaskList) Completed() int {
	return len(l) - l.Remaining()
}
