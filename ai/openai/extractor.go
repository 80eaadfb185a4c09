// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/core"
)

// expansionTermsKey is the reply key holding expansion terms.
const expansionTermsKey = "expansion_terms"

// parsed is the outcome of decoding a model reply: a usable value, or the
// reason the reply was malformed. Callers branch on Malformed and never see
// a partially decoded value.
type parsed[T any] struct {
	Value     T
	Malformed error
}

func valid[T any](v T) parsed[T] {
	return parsed[T]{Value: v}
}

func malformed[T any](err error) parsed[T] {
	return parsed[T]{Malformed: err}
}

// EntityExtractor implements ai.EntityExtractor on top of an ai.Generator.
type EntityExtractor struct {
	generator ai.Generator
	template  string
	logger    *slog.Logger
}

// newEntityExtractor is an internal constructor that returns the concrete type.
func newEntityExtractor(generator ai.Generator, template string) *EntityExtractor {
	if template == "" {
		template = EntityExpansionPrompt
	}
	return &EntityExtractor{
		generator: generator,
		template:  template,
		logger:    slog.Default().With("component", "openai-extractor"),
	}
}

// NewEntityExtractor creates an extractor using generator and the given prompt
// template. An empty template uses EntityExpansionPrompt.
//
// Returns ai.EntityExtractor interface to enforce abstraction.
func NewEntityExtractor(generator ai.Generator, template string) ai.EntityExtractor {
	return newEntityExtractor(generator, template)
}

// Extract asks the model for entities and expansion terms. The formatted
// template is the system prompt and the query is the user message. Any
// failure returns core.EmptyExtraction().
func (e *EntityExtractor) Extract(ctx context.Context, query string) core.Extraction {
	prompt := fmt.Sprintf(e.template, query)
	e.logger.Debug("sending entity expansion prompt", "query", query)

	reply, err := e.generator.Generate(ctx, prompt, query)
	if err != nil {
		e.logger.Warn("entity extraction failed, continuing without entities",
			"query", query,
			"err", fmt.Errorf("%w: %w", core.ErrExtraction, err))
		return core.EmptyExtraction()
	}
	e.logger.Debug("raw extraction reply", "reply", reply)

	result := parseExtraction(reply)
	if result.Malformed != nil {
		e.logger.Warn("unusable extraction reply, continuing without entities",
			"query", query,
			"reply", reply,
			"err", result.Malformed)
		return core.EmptyExtraction()
	}

	e.logger.Debug("extracted entities",
		"title", result.Value.Entities.Get(core.CategoryTitle),
		"actors", result.Value.Entities.Get(core.CategoryActors),
		"directors", result.Value.Entities.Get(core.CategoryDirectors),
		"languages", result.Value.Entities.Get(core.CategoryLanguages),
		"expansions", result.Value.Expansions)
	return result.Value
}

// parseExtraction decodes an extraction reply. Missing keys are empty; a key
// whose value is neither a string nor a list makes the whole reply malformed.
func parseExtraction(reply string) parsed[core.Extraction] {
	body := repairJSON(stripFence(reply))

	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return malformed[core.Extraction](fmt.Errorf("%w: %w", core.ErrExtraction, err))
	}
	if raw == nil {
		return malformed[core.Extraction](fmt.Errorf("%w: reply is null", core.ErrExtraction))
	}

	out := core.EmptyExtraction()
	for _, category := range core.EntityCategories {
		values, err := stringList(raw, string(category))
		if err != nil {
			return malformed[core.Extraction](err)
		}
		out.Entities.Add(category, values...)
	}

	expansions, err := stringList(raw, expansionTermsKey)
	if err != nil {
		return malformed[core.Extraction](err)
	}
	for _, term := range expansions {
		if term != "" {
			out.Expansions = append(out.Expansions, term)
		}
	}
	return valid(out)
}

// stringList reads key as a list of strings. A bare string is a one-element list.
func stringList(raw map[string]any, key string) ([]string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string, []any:
		return core.AsStrings(t), nil
	default:
		return nil, fmt.Errorf("%w: %q has type %T", core.ErrExtraction, key, v)
	}
}
