// Package git wraps the git operations the workflow layer needs: workspace
// validation and feature branch lifecycle.
package git

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Workspace handles git operations within a single repository
type Workspace struct {
	path string
}

// NewWorkspace creates a workspace handle for the given repository path
func NewWorkspace(path string) *Workspace {
	return &Workspace{path: path}
}

// Path returns the workspace root
func (w *Workspace) Path() string {
	return w.path
}

// Validate checks that the path exists and is inside a git work tree
func (w *Workspace) Validate() error {
	info, err := os.Stat(w.path)
	if err != nil {
		return fmt.Errorf("project path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project path is not a directory: %s", w.path)
	}

	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = w.path
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("not a git work tree: %s", strings.TrimSpace(string(output)))
	}
	if strings.TrimSpace(string(output)) != "true" {
		return fmt.Errorf("not a git work tree: %s", w.path)
	}
	return nil
}

// BranchExists checks if a branch exists locally or on origin
func (w *Workspace) BranchExists(branch string) bool {
	cmd := exec.Command("git", "show-ref", "--verify", "--quiet", "refs/heads/"+branch) // #nosec G204 - branch name is derived from ticket data
	cmd.Dir = w.path
	if err := cmd.Run(); err == nil {
		return true
	}

	cmd = exec.Command("git", "show-ref", "--verify", "--quiet", "refs/remotes/origin/"+branch) // #nosec G204
	cmd.Dir = w.path
	return cmd.Run() == nil
}

// CurrentBranch returns the checked-out branch name
func (w *Workspace) CurrentBranch() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = w.path
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w\nOutput: %s", err, string(output))
	}
	return strings.TrimSpace(string(output)), nil
}

// CheckoutBranch switches to the branch, creating it only when it does not
// exist yet. Returns true when a new branch was created.
func (w *Workspace) CheckoutBranch(branch string) (bool, error) {
	if w.BranchExists(branch) {
		cmd := exec.Command("git", "checkout", branch) // #nosec G204
		cmd.Dir = w.path
		output, err := cmd.CombinedOutput()
		if err != nil {
			return false, fmt.Errorf("failed to checkout branch %s: %w\nOutput: %s", branch, err, string(output))
		}
		return false, nil
	}

	cmd := exec.Command("git", "checkout", "-b", branch) // #nosec G204
	cmd.Dir = w.path
	output, err := cmd.CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("failed to create branch %s: %w\nOutput: %s", branch, err, string(output))
	}
	return true, nil
}
