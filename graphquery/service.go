package graphquery

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/storage"
)

// NodeRef is a lightweight projection of a content item for graph views.
type NodeRef struct {
	Id    core.ID   `json:"id"`
	Title string    `json:"title"`
	Time  time.Time `json:"time"`
}

// TimelineEvent is one step in the temporal story view: the source item was
// followed by the target item.
type TimelineEvent struct {
	Source      NodeRef `json:"source"`
	Target      NodeRef `json:"target"`
	Description string  `json:"description"`
}

// CausalLink is one cause-effect pair in the causal view.
type CausalLink struct {
	Source      NodeRef `json:"source"`
	Target      NodeRef `json:"target"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Service materializes graph views by joining edges with their documents.
// Document lookups are cached briefly since graph views touch the same
// handful of items repeatedly.
type Service struct {
	docs   storage.DocumentStore
	graph  storage.GraphStore
	cache  *gocache.Cache
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCacheTTL sets how long resolved documents stay cached.
// Default is 5 minutes.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = gocache.New(ttl, 2*ttl)
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewService creates a graph query service.
func NewService(docs storage.DocumentStore, graph storage.GraphStore, opts ...Option) (*Service, error) {
	if docs == nil {
		return nil, ErrDocumentStoreRequired
	}
	if graph == nil {
		return nil, ErrGraphStoreRequired
	}

	s := &Service{
		docs:   docs,
		graph:  graph,
		cache:  gocache.New(5*time.Minute, 10*time.Minute),
		logger: slog.Default().With("component", "graphquery"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TemporalGraph returns all FOLLOWS edges as timeline events, sorted
// ascending by the source item's publish time. Events with equal publish
// times keep their relative edge order, so repeated calls over unchanged
// data return identical output. An empty graph yields an empty slice.
func (s *Service) TemporalGraph(ctx context.Context) ([]TimelineEvent, error) {
	edges, err := s.graph.EdgesByType(ctx, core.RelationFollows)
	if err != nil {
		return nil, err
	}

	events := make([]TimelineEvent, 0, len(edges))
	for _, edge := range edges {
		source, target, ok, err := s.resolvePair(ctx, edge)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		events = append(events, TimelineEvent{
			Source:      source,
			Target:      target,
			Description: edge.Description,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Source.Time.Before(events[j].Source.Time)
	})

	return events, nil
}

// CausalGraph returns all CAUSES edges as cause-effect links, in edge
// insertion order. An empty graph yields an empty slice.
func (s *Service) CausalGraph(ctx context.Context) ([]CausalLink, error) {
	edges, err := s.graph.EdgesByType(ctx, core.RelationCauses)
	if err != nil {
		return nil, err
	}

	links := make([]CausalLink, 0, len(edges))
	for _, edge := range edges {
		source, target, ok, err := s.resolvePair(ctx, edge)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		links = append(links, CausalLink{
			Source:      source,
			Target:      target,
			Description: edge.Description,
			Confidence:  edge.Confidence,
		})
	}

	return links, nil
}

// resolvePair looks up both endpoints of an edge. An edge whose endpoint
// document has vanished is dropped from the view, not an error.
func (s *Service) resolvePair(ctx context.Context, edge *core.Edge) (source, target NodeRef, ok bool, err error) {
	source, ok, err = s.resolveNode(ctx, edge.SourceId)
	if err != nil || !ok {
		return NodeRef{}, NodeRef{}, false, err
	}
	target, ok, err = s.resolveNode(ctx, edge.TargetId)
	if err != nil || !ok {
		return NodeRef{}, NodeRef{}, false, err
	}
	return source, target, true, nil
}

func (s *Service) resolveNode(ctx context.Context, id core.ID) (NodeRef, bool, error) {
	key := strconv.FormatUint(uint64(id), 10)
	if cached, found := s.cache.Get(key); found {
		return cached.(NodeRef), true, nil
	}

	item, err := s.docs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug("edge endpoint has no document, dropping from view", "id", id)
			return NodeRef{}, false, nil
		}
		return NodeRef{}, false, err
	}

	node := NodeRef{Id: item.Id, Title: item.Title, Time: item.PublishTime}
	s.cache.Set(key, node, gocache.DefaultExpiration)
	return node, true, nil
}
