package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/util"
)

// ReadFile loads a workflow document from disk
func ReadFile(path string) (*model.Workflow, error) {
	data, err := os.ReadFile(util.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	var wf model.Workflow
	if err := sonic.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to parse workflow file %s: %w", path, err)
	}
	return &wf, nil
}

// WriteFile stores wf as indented JSON, creating parent directories
func WriteFile(path string, wf model.Workflow) error {
	path = util.ExpandPath(path)
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	data, err := sonic.ConfigStd.MarshalIndent(wf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode workflow: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write workflow file: %w", err)
	}
	return nil
}

// ValidationError lists every problem found in a document
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid workflow: %s", strings.Join(e.Problems, "; "))
}

// Validate checks a document against what the workflow runner accepts.
// It is never run implicitly before a save.
func Validate(wf model.Workflow) error {
	var problems []string
	if wf.Name == "" {
		problems = append(problems, "name is empty")
	}

	ids := make(map[string]bool, len(wf.Nodes))
	for i, n := range wf.Nodes {
		switch {
		case n.ID == "":
			problems = append(problems, fmt.Sprintf("node %d has no id", i))
		case ids[n.ID]:
			problems = append(problems, fmt.Sprintf("duplicate node id %q", n.ID))
		}
		ids[n.ID] = true

		if n.Type != model.NodeTypeAgent && n.Type != model.NodeTypeTool {
			problems = append(problems, fmt.Sprintf("node %q has type %q, want agent or tool", n.ID, n.Type))
		}
		if n.Label == "" {
			problems = append(problems, fmt.Sprintf("node %q has no label", n.ID))
		}
	}

	for i, e := range wf.Edges {
		if e.Source == "" || e.Target == "" {
			problems = append(problems, fmt.Sprintf("edge %d is missing an endpoint", i))
			continue
		}
		for _, end := range []string{e.Source, e.Target} {
			if !ids[end] {
				problems = append(problems, fmt.Sprintf("edge %s->%s references unknown node %q", e.Source, e.Target, end))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// IsValidationError reports whether err came from Validate
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
