package canonicalize

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"retrace/internal/canonical"
)

// canonicalizeXML walks the token stream of a descriptor XML document and
// builds the canonical tree in literal document order. Namespace prefixes are
// reduced to local names because the differ compares shape, not namespace
// bindings; xmlns declarations are dropped for the same reason.
func canonicalizeXML(raw []byte) (*canonical.Node, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, malformed("empty document")
	}

	decoder := xml.NewDecoder(bytes.NewReader(raw))

	var (
		root  *canonical.Node
		stack []*canonical.Node
		text  []string
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed("xml: %v", err)
		}

		switch tok := token.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, malformed("multiple root elements")
			}
			node := canonical.NewNode(tok.Name.Local)
			for _, attr := range tok.Attr {
				if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
					continue
				}
				node.SetAttr(attr.Name.Local, attr.Value)
			}
			if len(stack) == 0 {
				root = node
			} else {
				stack[len(stack)-1].AppendChild(node)
			}
			stack = append(stack, node)
			text = append(text, "")
		case xml.EndElement:
			node := stack[len(stack)-1]
			node.Text = strings.TrimSpace(text[len(text)-1])
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(tok)) != 0 {
					return nil, malformed("character data outside root element")
				}
				continue
			}
			text[len(text)-1] += string(tok)
		case xml.ProcInst, xml.Comment, xml.Directive:
			// Prolog, comments, and doctype carry no structural information.
		}
	}

	if root == nil {
		return nil, malformed("no root element")
	}
	if len(stack) != 0 {
		return nil, malformed("unclosed element %q", stack[len(stack)-1].Tag)
	}
	return root, nil
}
