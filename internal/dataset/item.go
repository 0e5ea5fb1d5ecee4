// Package dataset loads the canonical captions dataset that seeds annotation tasks.
// It is the authoritative source for task content; remote stores are consulted
// only when the dataset is unavailable.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// QAPair is a generated question/answer pair attached to a dataset item.
type QAPair struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Attribute string `json:"attribute,omitempty"`
}

// AttributeGroup holds the QA pairs for one display attribute.
// Group order follows the order of keys in the source document.
type AttributeGroup struct {
	Attribute string
	Pairs     []QAPair
}

// Item is one entry of the captions dataset. Questions arrive either grouped
// by attribute (Groups) or as a flat list (Pairs); at most one of the two is set.
type Item struct {
	URL     string
	Context string
	Groups  []AttributeGroup
	Pairs   []QAPair
}

type itemDoc struct {
	URL              string          `json:"url"`
	Context          string          `json:"context"`
	PairsByAttribute json.RawMessage `json:"generated_qa_pairs_by_attribute"`
	Pairs            []QAPair        `json:"generated_qa_pairs"`
}

// UnmarshalJSON decodes an item, preserving the attribute-group order of
// generated_qa_pairs_by_attribute. A plain map would randomize group order
// and break insertion-ordered display grouping.
func (i *Item) UnmarshalJSON(data []byte) error {
	var doc itemDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	i.URL = doc.URL
	i.Context = doc.Context
	i.Pairs = doc.Pairs
	i.Groups = nil

	if len(doc.PairsByAttribute) == 0 || string(doc.PairsByAttribute) == "null" {
		return nil
	}

	groups, err := decodeOrderedGroups(doc.PairsByAttribute)
	if err != nil {
		return fmt.Errorf("decode qa pairs by attribute: %w", err)
	}
	i.Groups = groups

	return nil
}

// MarshalJSON renders the item back into the dataset wire shape.
func (i Item) MarshalJSON() ([]byte, error) {
	doc := itemDoc{
		URL:     i.URL,
		Context: i.Context,
		Pairs:   i.Pairs,
	}

	if len(i.Groups) > 0 {
		raw, err := encodeOrderedGroups(i.Groups)
		if err != nil {
			return nil, err
		}
		doc.PairsByAttribute = raw
	}

	return json.Marshal(doc)
}

func decodeOrderedGroups(raw json.RawMessage) ([]AttributeGroup, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	groups := make([]AttributeGroup, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected attribute key, got %v", keyTok)
		}

		var pairs []QAPair
		if err := dec.Decode(&pairs); err != nil {
			return nil, err
		}

		groups = append(groups, AttributeGroup{Attribute: key, Pairs: pairs})
	}

	return groups, nil
}

func encodeOrderedGroups(groups []AttributeGroup) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for n, group := range groups {
		if n > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(group.Attribute)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		pairs, err := json.Marshal(group.Pairs)
		if err != nil {
			return nil, err
		}
		buf.Write(pairs)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Parse decodes a full dataset document (a JSON array of items).
func Parse(data []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return items, nil
}
