package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagListUnmarshal(t *testing.T) {
	tests := map[string]struct {
		input string
		want  TagList
	}{
		"array":        {`{"tags":["a","b"]}`, TagList{"a", "b"}},
		"legacy comma": {`{"tags":"a, b ,,c"}`, TagList{"a", "b", "c"}},
		"blank string": {`{"tags":""}`, nil},
		"null":         {`{"tags":null}`, nil},
		"missing":      {`{}`, nil},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var post Post
			require.NoError(t, json.Unmarshal([]byte(tc.input), &post))
			assert.Equal(t, tc.want, post.Tags)
		})
	}
}

func TestTagListRejectsObjects(t *testing.T) {
	var tags TagList
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &tags))
}

func TestPostToleratesOddFieldTypes(t *testing.T) {
	tests := map[string]struct {
		input   string
		check   func(t *testing.T, p Post)
		visible bool
	}{
		"string visible": {
			input:   `{"title":"a","visible":"yes"}`,
			visible: true,
			check:   func(t *testing.T, p Post) { assert.Nil(t, p.Visible) },
		},
		"numeric visible": {
			input:   `{"visible":0}`,
			visible: true,
		},
		"numeric date": {
			input:   `{"date":2024,"created_at":"2024-01-01T00:00:00.000Z"}`,
			visible: true,
			check:   func(t *testing.T, p Post) { assert.Equal(t, "2024", p.Date) },
		},
		"object title and tags": {
			input:   `{"title":{"en":"x"},"tags":{"a":1},"visible":false}`,
			visible: false,
			check: func(t *testing.T, p Post) {
				assert.Equal(t, "", p.Title)
				assert.Nil(t, p.Tags)
			},
		},
		"mixed tags": {
			input:   `{"tags":["a",2,null,{"x":1}]}`,
			visible: true,
			check:   func(t *testing.T, p Post) { assert.Equal(t, TagList{"a", "2"}, p.Tags) },
		},
		"odd items": {
			input:   `{"items":[{"url":"https://img/1.jpg","caption":7},"junk",{"url":null}],"preview":5}`,
			visible: true,
			check: func(t *testing.T, p Post) {
				assert.Equal(t, []PostItem{{URL: "https://img/1.jpg", Caption: "7"}, {}}, p.Items)
				require.NotNil(t, p.Preview)
				assert.Equal(t, "5", *p.Preview)
			},
		},
		"items not an array": {
			input:   `{"items":"nope","preview":null}`,
			visible: true,
			check: func(t *testing.T, p Post) {
				assert.Nil(t, p.Items)
				assert.Nil(t, p.PreviewURL())
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var post Post
			require.NoError(t, json.Unmarshal([]byte(tc.input), &post))
			assert.Equal(t, tc.visible, post.IsVisible())
			if tc.check != nil {
				tc.check(t, post)
			}
		})
	}
}

func TestPostRejectsNonObjects(t *testing.T) {
	for _, input := range []string{`null`, `[1,2]`, `"text"`, `not json`} {
		var post Post
		assert.Error(t, json.Unmarshal([]byte(input), &post), input)
	}
}

func TestIsVisible(t *testing.T) {
	hidden, shown := false, true
	assert.True(t, Post{}.IsVisible())
	assert.True(t, Post{Visible: &shown}.IsVisible())
	assert.False(t, Post{Visible: &hidden}.IsVisible())
}

func TestPreviewURL(t *testing.T) {
	explicit := "https://img/preview.jpg"
	empty := ""
	items := []PostItem{{URL: "https://img/1.jpg"}}

	assert.Equal(t, &explicit, Post{Preview: &explicit, Items: items}.PreviewURL())
	assert.Equal(t, "https://img/1.jpg", *Post{Preview: &empty, Items: items}.PreviewURL())
	assert.Nil(t, Post{}.PreviewURL())
	assert.Nil(t, Post{Items: []PostItem{{Caption: "no url"}}}.PreviewURL())
}

func TestSummarizeLegacyRecord(t *testing.T) {
	var post Post
	require.NoError(t, json.Unmarshal([]byte(`{"slug":"ignored","title":"Old","created_at":"2023-05-01T10:00:00.000Z"}`), &post))

	summary := post.Summarize("from-key")
	assert.Equal(t, "from-key", summary.Slug)
	assert.Equal(t, "2023-05-01T10:00:00.000Z", summary.Date)
	assert.True(t, summary.Visible)
	assert.Nil(t, summary.Preview)

	out, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"slug": "from-key",
		"title": "Old",
		"date": "2023-05-01T10:00:00.000Z",
		"tags": [],
		"items": [],
		"created_at": "2023-05-01T10:00:00.000Z",
		"visible": true,
		"preview": null
	}`, string(out))
}

func TestSummarizeKeepsExplicitDate(t *testing.T) {
	hidden := false
	post := Post{Date: "2024-02-02", CreatedAt: "2024-03-03T00:00:00.000Z", Visible: &hidden, Tags: TagList{"x"}}

	summary := post.Summarize("s")
	assert.Equal(t, "2024-02-02", summary.Date)
	assert.False(t, summary.Visible)
	assert.Equal(t, []string{"x"}, summary.Tags)
}
