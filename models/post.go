package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// PostItem is one image of a collage
type PostItem struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// Post is the record stored for every collage, keyed by Slug.
// Visible is a pointer because records written before the flag existed
// carry no value and count as visible.
type Post struct {
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Date      string     `json:"date"`
	Tags      TagList    `json:"tags"`
	Items     []PostItem `json:"items"`
	CreatedAt string     `json:"created_at"`
	Preview   *string    `json:"preview"`
	Visible   *bool      `json:"visible,omitempty"`
}

// UnmarshalJSON reads a stored record field by field. Older and hand edited
// records carry odd types (a numeric date, "visible":"yes"), so a field of
// the wrong type is read as its zero value instead of failing the record.
// Only the literal false hides a post. The body itself must be an object.
func (p *Post) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("post record is null")
	}

	*p = Post{
		Slug:      looseString(fields["slug"]),
		Title:     looseString(fields["title"]),
		Date:      looseString(fields["date"]),
		CreatedAt: looseString(fields["created_at"]),
		Tags:      looseTags(fields["tags"]),
		Items:     looseItems(fields["items"]),
	}
	if preview := looseString(fields["preview"]); preview != "" {
		p.Preview = &preview
	}
	switch string(bytes.TrimSpace(fields["visible"])) {
	case "false":
		hidden := false
		p.Visible = &hidden
	case "true":
		shown := true
		p.Visible = &shown
	}
	return nil
}

// looseString accepts strings, numbers and booleans as text.
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return ""
	case '{', '[', 'n':
		return ""
	default:
		return string(raw)
	}
}

func looseTags(raw json.RawMessage) TagList {
	var tags TagList
	if err := json.Unmarshal(raw, &tags); err == nil {
		return tags
	}

	var mixed []json.RawMessage
	if err := json.Unmarshal(raw, &mixed); err != nil {
		return nil
	}
	for _, item := range mixed {
		if tag := looseString(item); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func looseItems(raw json.RawMessage) []PostItem {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}

	items := make([]PostItem, 0, len(elems))
	for _, elem := range elems {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(elem, &fields); err != nil || fields == nil {
			continue
		}
		items = append(items, PostItem{
			URL:     looseString(fields["url"]),
			Caption: looseString(fields["caption"]),
		})
	}
	return items
}

// IsVisible reports whether the post shows up in the public listing.
func (p Post) IsVisible() bool {
	return p.Visible == nil || *p.Visible
}

// PreviewURL returns the explicit preview, falling back to the first item.
func (p Post) PreviewURL() *string {
	if p.Preview != nil && *p.Preview != "" {
		return p.Preview
	}
	if len(p.Items) > 0 && p.Items[0].URL != "" {
		url := p.Items[0].URL
		return &url
	}
	return nil
}

// PostSummary is the normalized shape returned by the listing endpoint
type PostSummary struct {
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Date      string     `json:"date"`
	Tags      []string   `json:"tags"`
	Items     []PostItem `json:"items"`
	CreatedAt string     `json:"created_at"`
	Visible   bool       `json:"visible"`
	Preview   *string    `json:"preview"`
}

// Summarize normalizes a stored record. slug comes from the storage key,
// not from the record body.
func (p Post) Summarize(slug string) PostSummary {
	date := p.Date
	if date == "" {
		date = p.CreatedAt
	}
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	items := p.Items
	if items == nil {
		items = []PostItem{}
	}
	return PostSummary{
		Slug:      slug,
		Title:     p.Title,
		Date:      date,
		Tags:      tags,
		Items:     items,
		CreatedAt: p.CreatedAt,
		Visible:   p.IsVisible(),
		Preview:   p.PreviewURL(),
	}
}

// TagList decodes either a JSON array of strings or a legacy comma
// separated string.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var joined string
		if err := json.Unmarshal(data, &joined); err != nil {
			return err
		}
		var tags []string
		for _, tag := range strings.Split(joined, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		*t = tags
		return nil
	}

	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*t = tags
	return nil
}
