package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPipeline marks a pipeline definition that cannot run.
	ErrInvalidPipeline = errors.New("invalid pipeline")
	// ErrUnknownPipeline is returned when a catalog lookup misses.
	ErrUnknownPipeline = errors.New("unknown pipeline")
)

// ActionType separates detection work from rendering.
type ActionType string

const (
	ActionDetection ActionType = "DETECTION"
	ActionMarkup    ActionType = "MARKUP"
)

// Action is one algorithm invocation inside a task.
type Action struct {
	Name       string            `toml:"name" json:"name"`
	Type       ActionType        `toml:"type" json:"type"`
	Algorithm  string            `toml:"algorithm" json:"algorithm,omitempty"`
	Properties map[string]string `toml:"properties" json:"properties,omitempty"`
}

// Task groups actions that run in parallel over the same input.
type Task struct {
	Name    string   `toml:"name" json:"name"`
	Actions []Action `toml:"action" json:"actions"`
}

// Type reports the type shared by every action of the task.
func (t Task) Type() ActionType {
	if len(t.Actions) == 0 {
		return ""
	}
	return t.Actions[0].Type
}

// Pipeline is an ordered list of tasks. Each task reads the tracks persisted
// by the task before it.
type Pipeline struct {
	Name        string `toml:"name" json:"name"`
	Description string `toml:"description" json:"description,omitempty"`
	Tasks       []Task `toml:"task" json:"tasks"`
}

// Validate checks the structural rules the workflow relies on: at least one
// task, homogeneous action types per task, detection algorithms named, and
// a markup task only in last position after a detection task.
func (p Pipeline) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidPipeline)
	}
	if len(p.Tasks) == 0 {
		return fmt.Errorf("%w: %s has no tasks", ErrInvalidPipeline, name)
	}
	for i, task := range p.Tasks {
		if len(task.Actions) == 0 {
			return fmt.Errorf("%w: %s task %d has no actions", ErrInvalidPipeline, name, i)
		}
		kind := task.Type()
		for j, action := range task.Actions {
			switch action.Type {
			case ActionDetection:
				if strings.TrimSpace(action.Algorithm) == "" {
					return fmt.Errorf("%w: %s task %d action %d has no algorithm", ErrInvalidPipeline, name, i, j)
				}
			case ActionMarkup:
			default:
				return fmt.Errorf("%w: %s task %d action %d has unknown type %q", ErrInvalidPipeline, name, i, j, action.Type)
			}
			if action.Type != kind {
				return fmt.Errorf("%w: %s task %d mixes %s and %s actions", ErrInvalidPipeline, name, i, kind, action.Type)
			}
		}
		if kind == ActionMarkup {
			if i == 0 {
				return fmt.Errorf("%w: %s starts with a markup task", ErrInvalidPipeline, name)
			}
			if i != len(p.Tasks)-1 {
				return fmt.Errorf("%w: %s has a markup task before its last task", ErrInvalidPipeline, name)
			}
			if len(task.Actions) != 1 {
				return fmt.Errorf("%w: %s markup task must have exactly one action", ErrInvalidPipeline, name)
			}
		}
	}
	return nil
}

// PreviousDetectionTask returns the index of the closest detection task
// before index.
func (p Pipeline) PreviousDetectionTask(index int) (int, bool) {
	for i := min(index, len(p.Tasks)) - 1; i >= 0; i-- {
		if p.Tasks[i].Type() == ActionDetection {
			return i, true
		}
	}
	return 0, false
}

// Algorithms lists the distinct detection algorithms in task order.
func (p Pipeline) Algorithms() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, task := range p.Tasks {
		for _, action := range task.Actions {
			if action.Type != ActionDetection {
				continue
			}
			algo := strings.ToUpper(strings.TrimSpace(action.Algorithm))
			if _, ok := seen[algo]; ok {
				continue
			}
			seen[algo] = struct{}{}
			out = append(out, algo)
		}
	}
	return out
}
