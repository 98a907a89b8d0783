package gitinfo

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"
)

// Info carries the repository state a coverage run is attributed to.
type Info struct {
	CommitHash string
	BranchName string
}

// Resolve reads the HEAD commit hash and branch name of the repository at
// repositoryPath.
func Resolve(repositoryPath string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(repositoryPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	info := &Info{CommitHash: head.Hash().String()}
	if head.Name().IsBranch() {
		info.BranchName = head.Name().Short()
	}
	return info, nil
}

// ResolveOrEmpty resolves repository state, degrading to empty attribution
// outside a git repository. The failure is only logged.
func ResolveOrEmpty(repositoryPath string, logger logrus.FieldLogger) *Info {
	info, err := Resolve(repositoryPath)
	if err != nil {
		if logger != nil {
			logger.WithError(err).Debug("resolve git info, runs will carry no commit attribution")
		}
		return &Info{}
	}
	return info
}
