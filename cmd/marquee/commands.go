package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/marquee"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/ingestion"
	"github.com/poiesic/marquee/search"
)

type runner struct {
	engineOpts []marquee.EngineOption
}

func (r *runner) openEngine(c *cli.Context) (*marquee.Engine, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if limit := c.Int("limit"); limit > 0 {
		cfg.Index.Size = limit
	}
	if size := c.Int("batch-size"); size > 0 {
		cfg.Ingestion.BatchSize = size
	}
	return marquee.NewEngine(cfg, r.engineOpts...)
}

func argText(c *cli.Context, name string) (string, error) {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return text, nil
}

func (r *runner) searchCommand(c *cli.Context) error {
	query, err := argText(c, "query")
	if err != nil {
		return err
	}

	engine, err := r.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher(search.WithMonitor(&search.LogMonitor{}))
	if err != nil {
		return err
	}

	if c.Bool("raw") {
		result, err := searcher.Search(c.Context, query)
		if err != nil {
			return err
		}
		return writeJSON(c, newSearchView(result))
	}

	answer, err := searcher.Answer(c.Context, query)
	if err != nil {
		return err
	}
	return writeJSON(c, newAnswerView(answer))
}

func (r *runner) embedCommand(c *cli.Context) error {
	text, err := argText(c, "text")
	if err != nil {
		return err
	}

	engine, err := r.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher()
	if err != nil {
		return err
	}

	start := time.Now()
	vector, err := searcher.Embed(c.Context, text)
	if err != nil {
		return err
	}
	return writeJSON(c, embedView{
		Text:      text,
		Dimension: len(vector),
		Vector:    vector,
		Millis:    millis(time.Since(start)),
	})
}

func (r *runner) createCommand(c *cli.Context) error {
	engine, err := r.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Index().CreateIndex(c.Context, c.Bool("recreate")); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "created index %s\n", engine.Index().Name())
	return nil
}

func (r *runner) deleteCommand(c *cli.Context) error {
	engine, err := r.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Index().DeleteIndex(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted index %s\n", engine.Index().Name())
	return nil
}

func (r *runner) countCommand(c *cli.Context) error {
	engine, err := r.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	count, err := engine.Index().Count(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, count)
	return nil
}

func (r *runner) loadCommand(c *cli.Context) error {
	path, err := argText(c, "file")
	if err != nil {
		return err
	}

	engine, err := r.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if c.Bool("create") {
		exists, err := engine.Index().Exists(c.Context)
		if err != nil {
			return err
		}
		if !exists {
			if err := engine.Index().CreateIndex(c.Context, false); err != nil {
				return err
			}
		}
	}

	var opts []ingestion.Option
	if !c.Bool("quiet") {
		opts = append(opts, ingestion.WithProgress(c.App.ErrWriter))
	}
	indexer, err := engine.NewIndexer(opts...)
	if err != nil {
		return err
	}
	defer indexer.Release()

	records, err := ingestion.LoadFile(path)
	if err != nil {
		return err
	}
	source := ingestion.SourceKey(path)
	if c.Bool("restart") {
		if err := engine.CheckpointStore().ClearCheckpoint(c.Context, source); err != nil {
			return err
		}
	}

	stats, err := indexer.Index(c.Context, source, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "indexed %d of %d documents into %s (%d resumed, %d without vector) in %s\n",
		stats.Indexed, stats.Total, engine.Index().Name(), stats.Resumed, stats.WithoutVector,
		stats.Elapsed.Round(time.Millisecond))
	return nil
}

func writeJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type timingsView struct {
	EntityRecognition float64 `json:"entity_recognition_and_expansion_ms"`
	Embedding         float64 `json:"vector_generation_ms"`
	Retrieval         float64 `json:"elasticsearch_query_ms"`
	Processing        float64 `json:"result_processing_ms"`
	Fusion            float64 `json:"llm_processing_ms,omitempty"`
	Total             float64 `json:"total_ms"`
}

type candidateView struct {
	core.CandidateRecord
}

func (v candidateView) MarshalJSON() ([]byte, error) {
	src := v.Source()
	src[core.FieldScore] = v.Score
	return json.Marshal(src)
}

type searchView struct {
	Query      string              `json:"query"`
	VectorText string              `json:"vector_text"`
	Entities   map[string][]string `json:"entities"`
	Expansions []string            `json:"expansion_terms"`
	Results    []candidateView     `json:"results"`
	Total      int                 `json:"total"`
	Timings    timingsView         `json:"timings"`
}

type answerView struct {
	searchView
	Response  core.StructuredResponse `json:"structured_response"`
	Timestamp int64                   `json:"timestamp"`
}

type embedView struct {
	Text      string    `json:"text"`
	Dimension int       `json:"dimension"`
	Vector    []float32 `json:"vector"`
	Millis    float64   `json:"time_ms"`
}

func newSearchView(r *core.SearchResult) searchView {
	entities := make(map[string][]string, len(core.EntityCategories))
	for _, category := range core.EntityCategories {
		entities[string(category)] = r.Entities.Get(category)
	}
	results := make([]candidateView, len(r.Candidates))
	for i := range r.Candidates {
		results[i] = candidateView{r.Candidates[i]}
	}
	return searchView{
		Query:      r.Query,
		VectorText: r.VectorText,
		Entities:   entities,
		Expansions: r.Expansions,
		Results:    results,
		Total:      len(results),
		Timings: timingsView{
			EntityRecognition: millis(r.Timings.Extraction),
			Embedding:         millis(r.Timings.Embedding),
			Retrieval:         millis(r.Timings.Retrieval),
			Processing:        millis(r.Timings.Processing),
			Fusion:            millis(r.Timings.Fusion),
			Total:             millis(r.Timings.Total),
		},
	}
}

func newAnswerView(a *core.Answer) answerView {
	return answerView{
		searchView: newSearchView(a.Search),
		Response:   a.Response,
		Timestamp:  a.Timestamp.UnixMilli(),
	}
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
