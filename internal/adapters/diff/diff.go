// Package diff produces unified diffs between two versioned configuration
// snapshots for the deployment-risk task.
package diff

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"
)

// FileSource diffs a previous and current snapshot file on each call.
type FileSource struct {
	PrevPath string
	CurrPath string
}

func NewFileSource(prevPath, currPath string) *FileSource {
	return &FileSource{PrevPath: prevPath, CurrPath: currPath}
}

func (s *FileSource) Diff(_ context.Context) (string, error) {
	prev, err := os.ReadFile(s.PrevPath)
	if err != nil {
		return "", fmt.Errorf("diff: read previous snapshot: %w", err)
	}
	curr, err := os.ReadFile(s.CurrPath)
	if err != nil {
		return "", fmt.Errorf("diff: read current snapshot: %w", err)
	}

	return Unified(string(prev), string(curr), filepath.Base(s.PrevPath), filepath.Base(s.CurrPath))
}

// StaticSource serves a fixed pair of snapshots, for tests and offline runs.
type StaticSource struct {
	Prev string
	Curr string
}

func (s *StaticSource) Diff(_ context.Context) (string, error) {
	return Unified(s.Prev, s.Curr, "previous", "current")
}

// Unified renders a standard unified diff with three lines of context.
func Unified(prev, curr, fromFile, toFile string) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(prev),
		B:        difflib.SplitLines(curr),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("diff: render: %w", err)
	}
	return text, nil
}
