package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/fuzzystore/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// Hooks are called from the goroutine running the search.
type SearchMonitor interface {
	Start(query string)
	AfterEntryRetrieval(entries []*core.Entry)
	ShardScored(shard int, size int)
	Hit(result *core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterEntryRetrieval(_ []*core.Entry) {}
func (n *noopMonitor) ShardScored(_ int, _ int)            {}
func (n *noopMonitor) Hit(_ *core.SearchResult)            {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)       {}

// LogMonitor reports every search stage to a logger. Records are emitted at
// Level, which defaults to info so explain output shows with the default
// handler configuration.
type LogMonitor struct {
	Logger *slog.Logger
	Level  slog.Level
}

var _ SearchMonitor = (*LogMonitor)(nil)

func (m *LogMonitor) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m *LogMonitor) log(msg string, args ...any) {
	m.logger().Log(context.Background(), m.Level, msg, args...)
}

func (m *LogMonitor) Start(query string) {
	m.log("search started", "query", query)
}

func (m *LogMonitor) AfterEntryRetrieval(entries []*core.Entry) {
	m.log("entries loaded", "count", len(entries))
}

func (m *LogMonitor) ShardScored(shard int, size int) {
	m.log("shard scored", "shard", shard, "size", size)
}

func (m *LogMonitor) Hit(result *core.SearchResult) {
	m.log("hit",
		"id", result.Entry.Id,
		"primary", result.Entry.Primary,
		"cost", result.Cost,
		"variant", result.Variant.String())
}

func (m *LogMonitor) Finish(results []*core.SearchResult) {
	m.log("search finished", "results", len(results))
}
