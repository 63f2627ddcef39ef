package search

import "github.com/weftworks/loom/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(query string)
	AfterSemanticSearch(ids []core.ID)
	AfterTextSearch(ids []core.ID)
	SemanticAndTextHit(item *core.ContentItem)
	SemanticHit(item *core.ContentItem)
	TextHit(item *core.ContentItem)
	Finish(results []*Result)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.ID)     {}
func (n *noopMonitor) AfterTextSearch(_ []core.ID)         {}
func (n *noopMonitor) SemanticAndTextHit(_ *core.ContentItem) {}
func (n *noopMonitor) SemanticHit(_ *core.ContentItem)     {}
func (n *noopMonitor) TextHit(_ *core.ContentItem)         {}
func (n *noopMonitor) Finish(_ []*Result)                  {}
