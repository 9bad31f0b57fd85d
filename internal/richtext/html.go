package richtext

import (
	"fmt"
	"html"
	"strings"
)

// HTML renders a document to an HTML fragment. List items are grouped into
// runs of <ul>/<ol>; all text is escaped.
func HTML(doc Document) string {
	nodes := Render(doc)

	var b strings.Builder
	var listOpen string // "ul", "ol" or ""

	closeList := func() {
		if listOpen != "" {
			fmt.Fprintf(&b, "</%s>\n", listOpen)
			listOpen = ""
		}
	}

	for _, n := range nodes {
		if n.Kind != NodeListItem {
			closeList()
		}

		switch n.Kind {
		case NodeEmpty:
			// Nothing to emit; an empty document is a valid fragment.
		case NodeParagraph:
			fmt.Fprintf(&b, "<p>%s</p>\n", renderInline(n.Spans))
		case NodeHeading:
			fmt.Fprintf(&b, "<h%d>%s</h%d>\n", n.Level, renderInline(n.Spans), n.Level)
		case NodeQuote:
			fmt.Fprintf(&b, "<blockquote>%s</blockquote>\n", renderInline(n.Spans))
		case NodeListItem:
			tag := "ul"
			if n.Ordered {
				tag = "ol"
			}
			if listOpen != tag {
				closeList()
				fmt.Fprintf(&b, "<%s>\n", tag)
				listOpen = tag
			}
			fmt.Fprintf(&b, "<li>%s</li>\n", renderInline(n.Spans))
		case NodeFallback:
			if text := n.Text(); text != "" {
				fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(text))
			}
		}
	}
	closeList()

	return b.String()
}

func renderInline(spans []Inline) string {
	var b strings.Builder
	for _, s := range spans {
		text := html.EscapeString(s.Text)
		for i := len(s.Marks) - 1; i >= 0; i-- {
			switch m := s.Marks[i]; m.Type {
			case "strong":
				text = "<strong>" + text + "</strong>"
			case "em":
				text = "<em>" + text + "</em>"
			case "link":
				text = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(m.Href), text)
			}
		}
		b.WriteString(text)
	}
	return b.String()
}
