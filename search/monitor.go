package search

import (
	"github.com/poiesic/scicat/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query, repoName string)
	AfterTier(tier core.MatchTier, results []*core.SearchResult)
	TierSkipped(tier core.MatchTier)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                                  {}
func (n *noopMonitor) AfterTier(_ core.MatchTier, _ []*core.SearchResult) {}
func (n *noopMonitor) TierSkipped(_ core.MatchTier)                       {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)                      {}
