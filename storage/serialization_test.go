package storage

import (
	"testing"
	"time"

	"github.com/poiesic/marquee/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  *core.MovieDocument
		want *core.MovieDocument
	}{
		{
			name: "minimal document",
			doc: &core.MovieDocument{
				Record: core.CandidateRecord{Aid: "movie_001"},
			},
			want: &core.MovieDocument{
				Record: core.CandidateRecord{
					Aid:       "movie_001",
					Actors:    []string{},
					Directors: []string{},
					Languages: []string{},
					Tags:      []string{},
					VoiceTags: []string{},
				},
				Vector: []float32{},
			},
		},
		{
			name: "full document",
			doc: &core.MovieDocument{
				Record: core.CandidateRecord{
					Aid:         "movie_001",
					Title:       "流浪地球2",
					Brief:       "太阳即将毁灭，人类带着地球逃离太阳系",
					Content:     "完整简介",
					Vendor:      "vendor",
					Channel:     "电影",
					PublishYear: "2023",
					VPic:        "http://img/1.jpg",
					VPicMd5:     "d41d8cd98f00b204e9800998ecf8427e",
					Actors:      []string{"吴京", "刘德华"},
					Directors:   []string{"郭帆"},
					Languages:   []string{"国语"},
					Tags:        []string{"科幻", "灾难"},
					VoiceTags:   []string{"国语"},
					Completed:   true,
					Total:       1,
					Last:        1,
					UpdateTime:  "2023-01-22 10:00:00",
					SysTime:     "2023-01-22",
				},
				Vector: []float32{0.25, -0.5, 1, 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalDocument(tt.doc)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalDocument(data)
			require.NoError(t, err)
			want := tt.want
			if want == nil {
				want = tt.doc
			}
			assert.Equal(t, want, decoded)
			assert.Len(t, data, core.MovieDocumentMUS.Size(*decoded))
		})
	}
}

func TestMarshalDocument_ScoreNotStored(t *testing.T) {
	doc := &core.MovieDocument{Record: core.CandidateRecord{Aid: "a", Score: 1.5}}

	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Zero(t, decoded.Record.Score)
	assert.Equal(t, 1.5, doc.Record.Score, "caller's document must not be modified")
}

func TestUnmarshalDocument_Invalid(t *testing.T) {
	full := MarshalDocument(&core.MovieDocument{
		Record: core.CandidateRecord{Aid: "movie_001", Tags: []string{"科幻"}},
		Vector: []float32{1, 2, 3},
	})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated", full[:len(full)-2]},
		{"header only", full[:3]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalDocument(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestMarshalUnmarshalCheckpoint(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	checkpoint := &core.Checkpoint{Source: "/data/movies.jsonl", Offset: 1500, UpdatedAt: now}

	decoded, err := UnmarshalCheckpoint(MarshalCheckpoint(checkpoint))
	require.NoError(t, err)
	assert.Equal(t, checkpoint.Source, decoded.Source)
	assert.Equal(t, checkpoint.Offset, decoded.Offset)
	assert.True(t, now.Equal(decoded.UpdatedAt))

	_, err = UnmarshalCheckpoint(nil)
	assert.Error(t, err)
}

func TestFiltersFor(t *testing.T) {
	entities := core.NewEntityBundle()
	entities.Add(core.CategoryActors, "吴京")
	entities.Add(core.CategoryTitle, "流浪地球", "太空")

	filters := FiltersFor(entities)

	assert.Equal(t, []core.FieldFilter{
		{Field: "title", Value: "流浪地球", Boost: TitleBoost},
		{Field: "title", Value: "太空", Boost: TitleBoost},
		{Field: "actors", Value: "吴京", Boost: OtherBoost},
	}, filters)
	assert.Empty(t, FiltersFor(core.NewEntityBundle()))
}
