// Package yamltree stores trees as YAML documents.
//
// The layout is the same as jsontree's: a mapping with one key naming
// the root, nodes with only text as strings, "@"-prefixed keys for
// attributes, "#text" for text alongside other content, and
// sequences for repeated tags. Empty nodes are null. As in jsontree,
// [Document.Bytes] rejects a child whose tag starts with "@" or is
// "#text".
package yamltree

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danderson/objtree/internal/doc"
	"github.com/danderson/objtree/tree"
)

const (
	attrPrefix = "@"
	textKey    = "#text"
)

// Document is a YAML document.
type Document struct {
	d *doc.Document
}

// New returns an empty document whose root node has the given tag.
func New(root string) *Document {
	return &Document{doc.New(root)}
}

// Root returns the document's root node.
func (d *Document) Root() tree.Node {
	return d.d.Root()
}

// Load parses a YAML document from r. If root is non-empty, the
// document's root key must have that name, or Load returns an error
// wrapping [tree.ErrRootMismatch]. Only the first document of a
// multi-document stream is read.
func Load(r io.Reader, root string) (*Document, error) {
	var y yaml.Node
	if err := yaml.NewDecoder(r).Decode(&y); errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing YAML: empty document")
	} else if err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	top := resolve(&y)
	if top.Kind == yaml.DocumentNode && len(top.Content) == 1 {
		top = resolve(top.Content[0])
	}
	if top.Kind != yaml.MappingNode || len(top.Content) != 2 {
		return nil, fmt.Errorf("parsing YAML: document must be a mapping with exactly one root key")
	}
	name := top.Content[0].Value
	if err := doc.CheckRoot(root, name); err != nil {
		return nil, err
	}
	ret := doc.New(name)
	if err := load(ret.Root(), top.Content[1]); err != nil {
		return nil, err
	}
	return &Document{ret}, nil
}

// LoadFile is like [Load], but reads the named file.
func LoadFile(path, root string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ret, err := Load(f, root)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return ret, nil
}

// resolve follows aliases to the node they refer to.
func resolve(y *yaml.Node) *yaml.Node {
	for y.Kind == yaml.AliasNode && y.Alias != nil {
		y = y.Alias
	}
	return y
}

func scalar(y *yaml.Node) (string, bool) {
	if y.Kind != yaml.ScalarNode {
		return "", false
	}
	if y.ShortTag() == "!!null" {
		return "", true
	}
	return y.Value, true
}

func load(n doc.Node, y *yaml.Node) error {
	y = resolve(y)
	if s, ok := scalar(y); ok {
		if s != "" {
			n.SetText(s)
		}
		return nil
	}
	if y.Kind != yaml.MappingNode {
		return fmt.Errorf("parsing YAML: line %d: unexpected sequence in %s", y.Line, n.Tag())
	}
	for i := 0; i+1 < len(y.Content); i += 2 {
		key, val := resolve(y.Content[i]).Value, resolve(y.Content[i+1])
		switch {
		case strings.HasPrefix(key, attrPrefix):
			s, ok := scalar(val)
			if !ok {
				return fmt.Errorf("parsing YAML: line %d: attribute %s of %s is not a scalar", val.Line, key, n.Tag())
			}
			n.SetAttr(strings.TrimPrefix(key, attrPrefix), s)
		case key == textKey:
			s, ok := scalar(val)
			if !ok {
				return fmt.Errorf("parsing YAML: line %d: text of %s is not a scalar", val.Line, n.Tag())
			}
			n.SetText(s)
		case val.Kind == yaml.SequenceNode:
			for _, elem := range val.Content {
				if resolve(elem).Kind == yaml.SequenceNode {
					return fmt.Errorf("parsing YAML: line %d: nested sequences are not supported (in %s.%s)", elem.Line, n.Tag(), key)
				}
				if err := load(n.Add(key), elem); err != nil {
					return err
				}
			}
		default:
			if err := load(n.Add(key), val); err != nil {
				return err
			}
		}
	}
	return nil
}

func str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// checkChildTag returns an error if a child tagged tag would be read
// back as an attribute or as text.
func checkChildTag(parent, tag string) error {
	if strings.HasPrefix(tag, attrPrefix) || tag == textKey {
		return fmt.Errorf("child %q of %s cannot be written as YAML: the name is reserved for attributes and text", tag, parent)
	}
	return nil
}

func encode(n doc.Node) (*yaml.Node, error) {
	attrs, groups := n.AttrNames(), n.Groups()
	if len(attrs) == 0 && len(groups) == 0 {
		if n.Text() == "" {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
		}
		return str(n.Text()), nil
	}

	ret := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range attrs {
		v, _ := n.Attr(name)
		ret.Content = append(ret.Content, str(attrPrefix+name), str(v))
	}
	if t := n.Text(); t != "" {
		ret.Content = append(ret.Content, str(textKey), str(t))
	}
	for _, g := range groups {
		if err := checkChildTag(n.Tag(), g.Tag); err != nil {
			return nil, err
		}
		if len(g.Nodes) == 1 {
			k, err := encode(g.Nodes[0])
			if err != nil {
				return nil, err
			}
			ret.Content = append(ret.Content, str(g.Tag), k)
			continue
		}
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, k := range g.Nodes {
			y, err := encode(k)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, y)
		}
		ret.Content = append(ret.Content, str(g.Tag), seq)
	}
	return ret, nil
}

// Bytes returns the document as YAML.
func (d *Document) Bytes() ([]byte, error) {
	root := d.d.Root()
	body, err := encode(root)
	if err != nil {
		return nil, err
	}
	y := &yaml.Node{
		Kind: yaml.DocumentNode,
		Content: []*yaml.Node{{
			Kind:    yaml.MappingNode,
			Content: []*yaml.Node{str(root.Tag()), body},
		}},
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(y); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the document to w as YAML.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	bs, err := d.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(bs)
	return int64(n), err
}

// WriteFile writes the document to the named file as YAML.
func (d *Document) WriteFile(path string) error {
	bs, err := d.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, bs, 0o644)
}
