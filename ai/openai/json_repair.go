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

import "strings"

// repairJSON attempts to fix common JSON formatting issues from LLM responses:
// text around the outermost object, keys missing their opening quote, and
// trailing commas. Keys are quoted first so that string tracking in
// dropTrailingCommas sees balanced quotes.
func repairJSON(s string) string {
	return dropTrailingCommas(quoteBareKeys(outermostObject(s)))
}

// outermostObject trims any preamble before the first { and anything after the
// last }. Input without a brace pair is returned unchanged.
func outermostObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// dropTrailingCommas removes a comma that is followed only by whitespace and a
// closing } or ]. Commas inside string literals are kept.
func dropTrailingCommas(s string) string {
	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	inString := false
	escaped := false

	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if inString {
			out = append(out, ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			out = append(out, ch)
			continue
		}
		if ch == ',' {
			j := i + 1
			for j < len(runes) && isSpace(runes[j]) {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue
			}
		}
		out = append(out, ch)
	}
	return string(out)
}

// quoteBareKeys fixes a missing opening quote before object keys.
// Pattern: after { or , followed by optional whitespace, then a word followed by ":
// Example: `, type":` -> `, "type":`
func quoteBareKeys(s string) string {
	result := []rune(s)
	fixed := make([]rune, 0, len(result)+100)

	i := 0
	for i < len(result) {
		ch := result[i]

		if ch != '{' && ch != ',' {
			fixed = append(fixed, ch)
			i++
			continue
		}

		fixed = append(fixed, ch)
		i++

		for i < len(result) && isSpace(result[i]) {
			fixed = append(fixed, result[i])
			i++
		}

		// An unquoted key starts with a letter, not with a quote
		if i >= len(result) || result[i] == '"' || !isLetter(result[i]) {
			continue
		}
		keyStart := i
		for i < len(result) && (isLetter(result[i]) || result[i] == '_') {
			i++
		}
		keyEnd := i

		if i+1 < len(result) && result[i] == '"' && result[i+1] == ':' {
			// Add opening quote; the closing quote is already there at result[i]
			fixed = append(fixed, '"')
		}
		fixed = append(fixed, result[keyStart:keyEnd]...)
	}

	return string(fixed)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
