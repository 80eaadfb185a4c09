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
	"fmt"
	"strings"
)

// EntityExpansionPrompt is the default query analysis template.
// Its single %s verb receives the raw query.
const EntityExpansionPrompt = `你是一个影视搜索助手。请分析用户的查询，识别其中的实体并生成语义扩展词。

用户查询：%s

只输出一个合法的 JSON 对象，不要任何解释、前言或 Markdown 标记。格式如下：
{
  "title": [],
  "languages": [],
  "actors": [],
  "directors": [],
  "expansion_terms": []
}

规则：
- title：查询中明确出现的影视作品名称。
- languages：查询中提到的语言，例如 "国语"、"粤语"、"英语"。
- actors：查询中提到的演员姓名。
- directors：查询中提到的导演姓名。
- expansion_terms：3 到 8 个与查询语义相关的词语，例如题材、风格、主题，用于扩大召回范围。
- 每个字段都必须是字符串数组；没有识别到的字段返回空数组 []。
- 不要编造查询中没有出现的人名或片名。

示例：
输入："吴京主演的科幻电影"
输出：
{"title":[],"languages":[],"actors":["吴京"],"directors":[],"expansion_terms":["科幻","太空","灾难","未来","冒险"]}`

// ResponseGenerationPrompt is the default response fusion template. Its verbs
// receive, in order: the query (%s), the recognized entities as JSON (%s), the
// expansion terms as JSON (%s), the number of results (%d) and the results as
// JSON (%s).
const ResponseGenerationPrompt = `你是一个专业的影视推荐助手。请根据用户的查询和检索到的候选影片，生成结构化的推荐结果。

用户查询：%s
识别到的实体：%s
扩展词：%s
检索结果数量：%d
检索结果：
%s

只输出一个合法的 JSON 对象，不要任何解释、前言或 Markdown 标记。格式如下：
{
  "summary": "对检索结果的总体概括",
  "recommendations": [
    {"aid": "候选影片的 aid", "title": "片名", "recommendation_text": "推荐理由", "score": 9}
  ],
  "suggestions": ["用户可能感兴趣的后续查询"]
}

规则：
- recommendations 只能从检索结果中选择，aid 必须与检索结果中的 aid 完全一致。
- 按与查询的相关程度从高到低排序，最多推荐 10 部。
- score 为 1 到 10 的整数，表示推荐程度。
- recommendation_text 用一到两句话说明推荐理由，不要编造检索结果中没有的信息。
- suggestions 给出 2 到 4 条相关的后续查询。
- 如果没有合适的结果，recommendations 返回空数组，并在 summary 中说明。`

// Prompts holds the two templates. Empty fields fall back to the defaults.
type Prompts struct {
	EntityExpansion    string
	ResponseGeneration string
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() Prompts {
	return Prompts{
		EntityExpansion:    EntityExpansionPrompt,
		ResponseGeneration: ResponseGenerationPrompt,
	}
}

// withDefaults fills empty templates from DefaultPrompts.
func (p Prompts) withDefaults() Prompts {
	d := DefaultPrompts()
	if strings.TrimSpace(p.EntityExpansion) == "" {
		p.EntityExpansion = d.EntityExpansion
	}
	if strings.TrimSpace(p.ResponseGeneration) == "" {
		p.ResponseGeneration = d.ResponseGeneration
	}
	return p
}

// Validate checks that each template carries the verbs it will be formatted with.
func (p Prompts) Validate() error {
	p = p.withDefaults()
	if n := strings.Count(p.EntityExpansion, "%s"); n != 1 {
		return fmt.Errorf("entity expansion prompt needs exactly one %%s, has %d", n)
	}
	verbs := strings.Count(p.ResponseGeneration, "%s") + strings.Count(p.ResponseGeneration, "%d")
	if verbs != 5 || !strings.Contains(p.ResponseGeneration, "%d") {
		return fmt.Errorf("response generation prompt needs four %%s and one %%d, has %d verbs", verbs)
	}
	return nil
}
