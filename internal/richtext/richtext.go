// Package richtext decodes and renders the block-tree documents stored in the
// content service (portable-text shaped: blocks of styled spans with mark
// annotations). Rendering is pure; the same document always yields the same
// node sequence.
package richtext

// Block is one top-level node of a document.
type Block struct {
	Type     string
	Style    string
	ListItem string
	Level    int
	Children []Span
	MarkDefs []MarkDef
}

// Span is an inline run of text with mark annotations. Marks are either
// decorator names ("strong", "em") or keys into the parent block's MarkDefs.
type Span struct {
	Text  string
	Marks []string
}

// MarkDef is an annotation definition referenced by key from spans.
// Currently only links carry a payload.
type MarkDef struct {
	Key  string
	Type string
	Href string
}

// Document is an ordered sequence of blocks. A nil document is valid and
// renders to the empty placeholder.
type Document []Block

// Decode converts a raw JSON-shaped value (as produced by encoding/json) into
// a Document. Unknown or malformed entries decode to blocks with their raw
// type preserved so rendering can fall back instead of failing.
func Decode(raw any) Document {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil
	}

	doc := make(Document, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		doc = append(doc, decodeBlock(m))
	}
	if len(doc) == 0 {
		return nil
	}
	return doc
}

func decodeBlock(m map[string]any) Block {
	b := Block{
		Type:     str(m["_type"]),
		Style:    str(m["style"]),
		ListItem: str(m["listItem"]),
	}
	if lvl, ok := m["level"].(float64); ok {
		b.Level = int(lvl)
	}

	if children, ok := m["children"].([]any); ok {
		for _, c := range children {
			cm, ok := c.(map[string]any)
			if !ok {
				continue
			}
			span := Span{Text: str(cm["text"])}
			if marks, ok := cm["marks"].([]any); ok {
				for _, mk := range marks {
					if s := str(mk); s != "" {
						span.Marks = append(span.Marks, s)
					}
				}
			}
			b.Children = append(b.Children, span)
		}
	}

	if defs, ok := m["markDefs"].([]any); ok {
		for _, d := range defs {
			dm, ok := d.(map[string]any)
			if !ok {
				continue
			}
			b.MarkDefs = append(b.MarkDefs, MarkDef{
				Key:  str(dm["_key"]),
				Type: str(dm["_type"]),
				Href: str(dm["href"]),
			})
		}
	}

	return b
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
