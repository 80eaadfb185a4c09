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

package elastic

import "github.com/poiesic/marquee/core"

const dateFormat = "yyyy-MM-dd||yyyy-MM-dd HH:mm:ss||epoch_millis"

// indexBody returns the settings and mappings used to create a movie index
// whose vector field has dim components.
func indexBody(dim int) map[string]any {
	text := map[string]any{"type": "text", "analyzer": "standard", "search_analyzer": "standard"}
	keyword := map[string]any{"type": "keyword"}
	date := map[string]any{"type": "date", "format": dateFormat}

	properties := map[string]any{
		core.FieldTitle:   text,
		core.FieldBrief:   text,
		core.FieldContent: text,

		core.FieldAid:         keyword,
		core.FieldVendor:      keyword,
		core.FieldChannel:     keyword,
		core.FieldPublishYear: keyword,
		core.FieldVPic:        keyword,
		core.FieldVPicMd5:     keyword,
		core.FieldDirectors:   keyword,
		core.FieldActors:      keyword,
		core.FieldLanguages:   keyword,
		core.FieldTags:        keyword,
		core.FieldVoiceTags:   keyword,

		core.FieldScore:     map[string]any{"type": "float"},
		core.FieldTotal:     map[string]any{"type": "integer"},
		core.FieldLast:      map[string]any{"type": "integer"},
		core.FieldCompleted: map[string]any{"type": "boolean"},

		core.FieldUpdateTime: date,
		core.FieldSysTime:    date,

		core.FieldTextVector: map[string]any{
			"type":       "dense_vector",
			"dims":       dim,
			"index":      true,
			"similarity": "cosine",
		},
	}

	return map[string]any{
		"settings": map[string]any{
			"index.number_of_shards":   1,
			"index.number_of_replicas": 1,
			"index.max_result_window":  10000,
		},
		"mappings": map[string]any{
			"properties": properties,
		},
	}
}

// documentSource renders a document as the JSON source stored in the index.
// Empty dates are left out since the date mapping rejects them.
func documentSource(doc *core.MovieDocument) map[string]any {
	src := doc.Record.Source()
	for _, field := range []string{core.FieldUpdateTime, core.FieldSysTime} {
		if s, _ := src[field].(string); s == "" {
			delete(src, field)
		}
	}
	if len(doc.Vector) > 0 {
		src[core.FieldTextVector] = doc.Vector
	}
	return src
}

// scoreScript is the similarity base score shared with the embedded backend.
const scoreScript = "cosineSimilarity(params.query_vector, '" + core.FieldTextVector + "') + 1.0"

// searchBody builds the bool query: a script_score over documents that have a
// vector, plus one should match clause per filter.
func searchBody(q core.VectorQuery, size int) map[string]any {
	scriptScore := map[string]any{
		"script_score": map[string]any{
			"query": map[string]any{
				"exists": map[string]any{"field": core.FieldTextVector},
			},
			"script": map[string]any{
				"source": scoreScript,
				"params": map[string]any{"query_vector": q.Vector},
			},
		},
	}

	boolQuery := map[string]any{"must": scriptScore}
	if len(q.Filters) > 0 {
		should := make([]map[string]any, 0, len(q.Filters))
		for _, f := range q.Filters {
			should = append(should, map[string]any{
				"match": map[string]any{
					f.Field: map[string]any{"query": f.Value, "boost": f.Boost},
				},
			})
		}
		boolQuery["should"] = should
	}

	return map[string]any{
		"size":  size,
		"query": map[string]any{"bool": boolQuery},
	}
}
