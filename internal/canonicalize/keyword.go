package canonicalize

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"retrace/internal/canonical"
)

// KeywordRootTag is the implicit document root for the legacy dialect. Legacy
// files are a flat sequence of sections, so the canonicalizer and the
// reconstructor both hang them under a synthetic root to form one tree.
const KeywordRootTag = "DeviceDescription"

// canonicalizeKeyword parses the legacy section/keyword dialect. The grammar:
//
//	; comment lines and blank lines are ignored
//	[Section] or [Section.2] or [Section.2.Sub.1]   opens a node
//	Key = value                                      attribute of the open node
//
// Section headers address nodes by dotted path; a numeric segment selects a
// repeated same-tag sibling (1-based) and may only ever extend the existing
// sibling run by one. Vendor tooling emits these files as Windows-1252, so the
// bytes are decoded before scanning.
func canonicalizeKeyword(raw []byte) (*canonical.Node, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, malformed("empty document")
	}

	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), raw)
	if err != nil {
		return nil, malformed("decode windows-1252: %v", err)
	}

	root := canonical.NewNode(KeywordRootTag)
	var current *canonical.Node

	scanner := bufio.NewScanner(bytes.NewReader(decoded))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, malformed("line %d: unterminated section header", lineNo)
			}
			section, err := openSection(root, strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			if err != nil {
				return nil, malformed("line %d: %v", lineNo, err)
			}
			current = section
			continue
		}

		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, malformed("line %d: expected section header or key=value", lineNo)
		}
		if current == nil {
			return nil, malformed("line %d: keyword before any section", lineNo)
		}
		key := strings.TrimSpace(name)
		if key == "" {
			return nil, malformed("line %d: empty keyword name", lineNo)
		}
		if _, exists := current.Attr(key); exists {
			return nil, malformed("line %d: duplicate keyword %q in section %q", lineNo, key, current.Tag)
		}
		parsed, err := parseKeywordValue(strings.TrimSpace(value))
		if err != nil {
			return nil, malformed("line %d: %v", lineNo, err)
		}
		current.SetAttr(key, parsed)
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed("scan: %v", err)
	}
	if len(root.Children) == 0 {
		return nil, malformed("no sections")
	}
	return root, nil
}

// openSection resolves a dotted section path against the tree built so far,
// creating at most the final addressed node. Parents must already exist, and a
// numeric segment may only reference existing siblings or append one.
func openSection(root *canonical.Node, path string) (*canonical.Node, error) {
	segments := strings.Split(path, ".")
	parent := root
	for i := 0; i < len(segments); {
		tag := strings.TrimSpace(segments[i])
		if tag == "" {
			return nil, fmt.Errorf("empty segment in section path %q", path)
		}
		if isNumeric(tag) {
			return nil, fmt.Errorf("section path %q: index without a name", path)
		}
		index := 1
		width := 1
		if i+1 < len(segments) && isNumeric(strings.TrimSpace(segments[i+1])) {
			index, _ = strconv.Atoi(strings.TrimSpace(segments[i+1]))
			if index < 1 {
				return nil, fmt.Errorf("section path %q: index must be positive", path)
			}
			width = 2
		}

		existing := childrenByTag(parent, tag)
		last := i+width >= len(segments)
		switch {
		case index <= len(existing):
			if last {
				return nil, fmt.Errorf("duplicate section [%s]", path)
			}
			parent = existing[index-1]
		case index == len(existing)+1 && last:
			parent = parent.AppendChild(canonical.NewNode(tag))
		case index == len(existing)+1:
			return nil, fmt.Errorf("section path %q: parent [%s] not declared", path, tag)
		default:
			return nil, fmt.Errorf("section path %q: index %d skips %s entries", path, index, tag)
		}
		i += width
	}
	return parent, nil
}

func childrenByTag(parent *canonical.Node, tag string) []*canonical.Node {
	var out []*canonical.Node
	for _, child := range parent.Children {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}

func parseKeywordValue(value string) (string, error) {
	if strings.HasPrefix(value, `"`) {
		if len(value) < 2 || !strings.HasSuffix(value, `"`) {
			return "", fmt.Errorf("unterminated quoted value %s", value)
		}
		inner := value[1 : len(value)-1]
		if strings.Contains(strings.ReplaceAll(inner, `""`, ""), `"`) {
			return "", fmt.Errorf("stray quote in value %s", value)
		}
		return strings.ReplaceAll(inner, `""`, `"`), nil
	}
	return value, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

