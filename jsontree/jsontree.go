// Package jsontree stores trees as JSON documents.
//
// A document is an object with a single property, named by the root
// tag. Each node is then written as:
//
//   - null, if it has no text, attributes or children;
//   - a string, if it has only text;
//   - otherwise an object. Attributes are properties prefixed with
//     "@", text is the "#text" property, and children are properties
//     named by their tag. A tag that occurs several times becomes an
//     array.
//
// When loading, numbers and booleans are accepted wherever a string
// is, and become node text spelled as in the document.
//
// A child whose tag starts with "@" or is "#text" cannot be told apart
// from an attribute or text, so [Document.Bytes] rejects it.
package jsontree

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/danderson/objtree/internal/doc"
	"github.com/danderson/objtree/tree"
)

const (
	attrPrefix = "@"
	textKey    = "#text"
)

// checkChildTag returns an error if a child tagged tag would be read
// back as an attribute or as text.
func checkChildTag(parent, tag string) error {
	if strings.HasPrefix(tag, attrPrefix) || tag == textKey {
		return fmt.Errorf("child %q of %s cannot be written as JSON: the name is reserved for attributes and text", tag, parent)
	}
	return nil
}

// Document is a JSON document.
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

// Load parses a JSON document from r. If root is non-empty, the
// document's root property must have that name, or Load returns an
// error wrapping [tree.ErrRootMismatch].
func Load(r io.Reader, root string) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	p := parser{dec}

	if err := p.expectDelim('{'); err != nil {
		return nil, err
	}
	tok, err := p.token()
	if err != nil {
		return nil, err
	}
	name, ok := tok.(string)
	if !ok {
		return nil, fmt.Errorf("parsing JSON: document has no root property")
	}
	if err := doc.CheckRoot(root, name); err != nil {
		return nil, err
	}
	ret := doc.New(name)
	tok, err = p.token()
	if err != nil {
		return nil, err
	}
	if err := p.value(ret.Root(), tok); err != nil {
		return nil, err
	}
	if err := p.expectDelim('}'); err != nil {
		return nil, fmt.Errorf("%w (documents have exactly one root property)", err)
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

type parser struct {
	dec *json.Decoder
}

func (p parser) token() (json.Token, error) {
	tok, err := p.dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing JSON: %w", io.ErrUnexpectedEOF)
	} else if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return tok, nil
}

func (p parser) expectDelim(want json.Delim) error {
	tok, err := p.token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("parsing JSON: got %v, want %q", tok, want)
	}
	return nil
}

// scalar returns the text of a non-container token.
func scalar(tok json.Token) (text string, ok bool) {
	switch v := tok.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	case nil:
		return "", true
	}
	return "", false
}

// value reads the node n, whose first token tok has already been
// consumed.
func (p parser) value(n doc.Node, tok json.Token) error {
	if s, ok := scalar(tok); ok {
		if s != "" {
			n.SetText(s)
		}
		return nil
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("parsing JSON: unexpected %v in %s", tok, n.Tag())
	}
	for {
		tok, err := p.token()
		if err != nil {
			return err
		}
		if tok == json.Delim('}') {
			return nil
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("parsing JSON: unexpected %v in %s", tok, n.Tag())
		}
		if tok, err = p.token(); err != nil {
			return err
		}
		switch {
		case strings.HasPrefix(key, attrPrefix):
			s, ok := scalar(tok)
			if !ok {
				return fmt.Errorf("parsing JSON: attribute %s of %s is not a scalar", key, n.Tag())
			}
			n.SetAttr(strings.TrimPrefix(key, attrPrefix), s)
		case key == textKey:
			s, ok := scalar(tok)
			if !ok {
				return fmt.Errorf("parsing JSON: text of %s is not a scalar", n.Tag())
			}
			n.SetText(s)
		case tok == json.Delim('['):
			if err := p.array(n, key); err != nil {
				return err
			}
		default:
			if err := p.value(n.Add(key), tok); err != nil {
				return err
			}
		}
	}
}

// array reads the elements of an array property of n as repeated
// children tagged key.
func (p parser) array(n doc.Node, key string) error {
	for {
		tok, err := p.token()
		if err != nil {
			return err
		}
		if tok == json.Delim(']') {
			return nil
		}
		if tok == json.Delim('[') {
			return fmt.Errorf("parsing JSON: nested arrays are not supported (in %s.%s)", n.Tag(), key)
		}
		if err := p.value(n.Add(key), tok); err != nil {
			return err
		}
	}
}

// Bytes returns the document as indented JSON.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeString(&buf, d.d.Root().Tag()); err != nil {
		return nil, err
	}
	buf.WriteByte(':')
	if err := encode(&buf, d.d.Root()); err != nil {
		return nil, err
	}
	buf.WriteByte('}')

	var ret bytes.Buffer
	if err := json.Indent(&ret, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	ret.WriteByte('\n')
	return ret.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	bs, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(bs)
	return nil
}

func encode(buf *bytes.Buffer, n doc.Node) error {
	attrs, groups := n.AttrNames(), n.Groups()
	if len(attrs) == 0 && len(groups) == 0 {
		if n.Text() == "" {
			buf.WriteString("null")
			return nil
		}
		return writeString(buf, n.Text())
	}

	buf.WriteByte('{')
	first := true
	key := func(k string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		return nil
	}
	for _, name := range attrs {
		v, _ := n.Attr(name)
		if err := key(attrPrefix + name); err != nil {
			return err
		}
		if err := writeString(buf, v); err != nil {
			return err
		}
	}
	if t := n.Text(); t != "" {
		if err := key(textKey); err != nil {
			return err
		}
		if err := writeString(buf, t); err != nil {
			return err
		}
	}
	for _, g := range groups {
		if err := checkChildTag(n.Tag(), g.Tag); err != nil {
			return err
		}
		if err := key(g.Tag); err != nil {
			return err
		}
		if len(g.Nodes) == 1 {
			if err := encode(buf, g.Nodes[0]); err != nil {
				return err
			}
			continue
		}
		buf.WriteByte('[')
		for i, k := range g.Nodes {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, k); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return nil
}

// WriteTo writes the document to w as JSON.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	bs, err := d.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(bs)
	return int64(n), err
}

// WriteFile writes the document to the named file as JSON.
func (d *Document) WriteFile(path string) error {
	bs, err := d.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, bs, 0o644)
}
