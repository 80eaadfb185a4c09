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

package core

import (
	"encoding/json"
	"math"
	"strconv"
)

// Stored field names, shared by every backend and by the generated responses.
const (
	FieldAid         = "aid"
	FieldTitle       = "title"
	FieldBrief       = "brief"
	FieldContent     = "content"
	FieldVendor      = "vendor"
	FieldChannel     = "channel"
	FieldPublishYear = "publishYear"
	FieldVPic        = "vPic"
	FieldVPicMd5     = "vPicMd5"
	FieldActors      = "actors"
	FieldDirectors   = "directors"
	FieldLanguages   = "languages"
	FieldTags        = "tags"
	FieldVoiceTags   = "voiceTags"
	FieldScore       = "score"
	FieldCompleted   = "completed"
	FieldTotal       = "total"
	FieldLast        = "last"
	FieldUpdateTime  = "updateTime"
	FieldSysTime     = "sysTime"
	FieldTextVector  = "text_vector"
)

// CandidateFromSource turns an untyped stored document into a CandidateRecord.
// Absent or mistyped fields become their zero value; nothing here fails.
// id is used when the source carries no aid of its own.
func CandidateFromSource(id string, score float64, src map[string]any) CandidateRecord {
	c := CandidateRecord{
		Aid:         asString(src[FieldAid]),
		Title:       asString(src[FieldTitle]),
		Brief:       asString(src[FieldBrief]),
		Content:     asString(src[FieldContent]),
		Vendor:      asString(src[FieldVendor]),
		Channel:     asString(src[FieldChannel]),
		PublishYear: asString(src[FieldPublishYear]),
		VPic:        asString(src[FieldVPic]),
		VPicMd5:     asString(src[FieldVPicMd5]),
		Actors:      asStrings(src[FieldActors]),
		Directors:   asStrings(src[FieldDirectors]),
		Languages:   asStrings(src[FieldLanguages]),
		Tags:        asStrings(src[FieldTags]),
		VoiceTags:   asStrings(src[FieldVoiceTags]),
		Score:       score,
		Completed:   asBool(src[FieldCompleted]),
		Total:       asInt(src[FieldTotal]),
		Last:        asInt(src[FieldLast]),
		UpdateTime:  asString(src[FieldUpdateTime]),
		SysTime:     asString(src[FieldSysTime]),
	}
	if c.Aid == "" {
		c.Aid = id
	}
	return c
}

// Source renders the record as a stored-field map, the inverse of CandidateFromSource.
func (c *CandidateRecord) Source() map[string]any {
	return map[string]any{
		FieldAid:         c.Aid,
		FieldTitle:       c.Title,
		FieldBrief:       c.Brief,
		FieldContent:     c.Content,
		FieldVendor:      c.Vendor,
		FieldChannel:     c.Channel,
		FieldPublishYear: c.PublishYear,
		FieldVPic:        c.VPic,
		FieldVPicMd5:     c.VPicMd5,
		FieldActors:      nonNil(c.Actors),
		FieldDirectors:   nonNil(c.Directors),
		FieldLanguages:   nonNil(c.Languages),
		FieldTags:        nonNil(c.Tags),
		FieldVoiceTags:   nonNil(c.VoiceTags),
		FieldCompleted:   c.Completed,
		FieldTotal:       c.Total,
		FieldLast:        c.Last,
		FieldUpdateTime:  c.UpdateTime,
		FieldSysTime:     c.SysTime,
	}
}

// UnionDistinct returns the values of all lists with duplicates and blanks removed,
// keeping first-seen order.
func UnionDistinct(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, v := range list {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func asStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string{}, t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return []string{}
		}
		return []string{t}
	default:
		return []string{}
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
		if f, err := t.Float64(); err == nil {
			return int(f)
		}
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
	}
	return 0
}

// AsFloat converts a decoded JSON scalar to float64, returning 0 when it is not numeric.
func AsFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	}
	return 0
}

// AsString converts a decoded JSON scalar to a string, returning "" otherwise.
func AsString(v any) string {
	return asString(v)
}

// AsStrings converts a decoded JSON list or single string to a string slice.
// Anything else yields an empty, non-nil slice.
func AsStrings(v any) []string {
	return asStrings(v)
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(t)
		return err == nil && b
	default:
		return false
	}
}
