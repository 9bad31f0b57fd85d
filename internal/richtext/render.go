package richtext

// NodeKind tags one renderable node.
type NodeKind string

const (
	NodeEmpty     NodeKind = "empty"
	NodeParagraph NodeKind = "paragraph"
	NodeHeading   NodeKind = "heading"
	NodeQuote     NodeKind = "quote"
	NodeListItem  NodeKind = "listItem"
	NodeFallback  NodeKind = "fallback"
)

// Mark is a resolved inline annotation. For links, Href carries the target.
type Mark struct {
	Type string
	Href string
}

// Inline is a run of text with its resolved marks.
type Inline struct {
	Text  string
	Marks []Mark
}

// Node is one renderable unit produced from a document.
type Node struct {
	Kind NodeKind
	// Level is the heading level (1-4) or list indent depth.
	Level int
	// Ordered is set for numbered list items.
	Ordered bool
	Spans   []Inline
}

// Text concatenates the node's span text.
func (n Node) Text() string {
	var out string
	for _, s := range n.Spans {
		out += s.Text
	}
	return out
}

// Render walks doc and produces its render node sequence. An empty or nil
// document yields exactly one NodeEmpty placeholder so callers always receive
// a well-defined sequence. Unknown block types degrade to plain-text fallback
// nodes instead of being dropped.
func Render(doc Document) []Node {
	if len(doc) == 0 {
		return []Node{{Kind: NodeEmpty}}
	}

	nodes := make([]Node, 0, len(doc))
	for _, b := range doc {
		nodes = append(nodes, renderBlock(b))
	}
	return nodes
}

func renderBlock(b Block) Node {
	spans := resolveSpans(b)

	if b.Type != "block" {
		return Node{Kind: NodeFallback, Spans: spans}
	}

	if b.ListItem != "" {
		level := b.Level
		if level < 1 {
			level = 1
		}
		return Node{
			Kind:    NodeListItem,
			Level:   level,
			Ordered: b.ListItem == "number",
			Spans:   spans,
		}
	}

	switch b.Style {
	case "h1", "h2", "h3", "h4":
		return Node{Kind: NodeHeading, Level: int(b.Style[1] - '0'), Spans: spans}
	case "blockquote":
		return Node{Kind: NodeQuote, Spans: spans}
	default:
		// "normal", "" and any unrecognized style render as a paragraph.
		return Node{Kind: NodeParagraph, Spans: spans}
	}
}

func resolveSpans(b Block) []Inline {
	if len(b.Children) == 0 {
		return nil
	}

	defs := make(map[string]MarkDef, len(b.MarkDefs))
	for _, d := range b.MarkDefs {
		defs[d.Key] = d
	}

	out := make([]Inline, 0, len(b.Children))
	for _, s := range b.Children {
		inline := Inline{Text: s.Text}
		for _, m := range s.Marks {
			if def, ok := defs[m]; ok {
				inline.Marks = append(inline.Marks, Mark{Type: def.Type, Href: def.Href})
				continue
			}
			inline.Marks = append(inline.Marks, Mark{Type: m})
		}
		out = append(out, inline)
	}
	return out
}
