package search

import (
	"log/slog"

	"github.com/poiesic/marquee/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterExtraction(extraction core.Extraction)
	AfterEmbedding(text string, vector []float32)
	AfterRetrieval(hits []core.Hit)
	Finish(result *core.SearchResult)
	AfterFusion(response core.StructuredResponse)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                        {}
func (n *noopMonitor) AfterExtraction(_ core.Extraction)     {}
func (n *noopMonitor) AfterEmbedding(_ string, _ []float32)  {}
func (n *noopMonitor) AfterRetrieval(_ []core.Hit)           {}
func (n *noopMonitor) Finish(_ *core.SearchResult)           {}
func (n *noopMonitor) AfterFusion(_ core.StructuredResponse) {}

// LogMonitor reports every stage at debug level.
type LogMonitor struct {
	Logger *slog.Logger
}

var _ SearchMonitor = (*LogMonitor)(nil)

func (m *LogMonitor) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m *LogMonitor) Start(query string) {
	m.logger().Debug("search started", "query", query)
}

func (m *LogMonitor) AfterExtraction(extraction core.Extraction) {
	m.logger().Debug("entities extracted",
		"title", extraction.Entities.Get(core.CategoryTitle),
		"actors", extraction.Entities.Get(core.CategoryActors),
		"directors", extraction.Entities.Get(core.CategoryDirectors),
		"languages", extraction.Entities.Get(core.CategoryLanguages),
		"expansions", extraction.Expansions)
}

func (m *LogMonitor) AfterEmbedding(text string, vector []float32) {
	m.logger().Debug("query embedded", "text", text, "dimension", len(vector))
}

func (m *LogMonitor) AfterRetrieval(hits []core.Hit) {
	m.logger().Debug("hits retrieved", "count", len(hits))
}

func (m *LogMonitor) Finish(result *core.SearchResult) {
	m.logger().Debug("search finished", "candidates", len(result.Candidates))
}

func (m *LogMonitor) AfterFusion(response core.StructuredResponse) {
	m.logger().Debug("response fused", "recommendations", len(response.Recommendations))
}
