// Package xmltree stores trees as XML documents.
//
// Each node is an element, attributes are XML attributes, and node
// text is the element's character data. Comments, processing
// instructions and namespaces are not preserved.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danderson/objtree/internal/doc"
	"github.com/danderson/objtree/tree"
)

// Document is an XML document.
type Document struct {
	d *doc.Document
}

// New returns an empty document whose root element has the given
// tag.
func New(root string) *Document {
	return &Document{doc.New(root)}
}

// Root returns the document's root element.
func (d *Document) Root() tree.Node {
	return d.d.Root()
}

// Load parses an XML document from r. If root is non-empty, the
// document's root element must have that tag, or Load returns an
// error wrapping [tree.ErrRootMismatch].
func Load(r io.Reader, root string) (*Document, error) {
	dec := xml.NewDecoder(r)

	var (
		ret   *doc.Document
		stack []doc.Node
		texts []*strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("parsing XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			var n doc.Node
			switch {
			case len(stack) > 0:
				n = stack[len(stack)-1].Add(t.Name.Local)
			case ret != nil:
				return nil, fmt.Errorf("parsing XML: multiple root elements")
			default:
				if err := doc.CheckRoot(root, t.Name.Local); err != nil {
					return nil, err
				}
				ret = doc.New(t.Name.Local)
				n = ret.Root()
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				n.SetAttr(a.Name.Local, a.Value)
			}
			stack = append(stack, n)
			texts = append(texts, &strings.Builder{})
		case xml.CharData:
			if len(texts) > 0 {
				texts[len(texts)-1].Write(t)
			}
		case xml.EndElement:
			n, text := stack[len(stack)-1], texts[len(texts)-1].String()
			stack, texts = stack[:len(stack)-1], texts[:len(texts)-1]
			switch {
			case strings.TrimSpace(text) == "":
			case len(n.Kids()) > 0:
				// Mixed content picks up indentation around the
				// child elements.
				n.SetText(strings.TrimSpace(text))
			default:
				n.SetText(text)
			}
		}
	}
	if ret == nil {
		return nil, fmt.Errorf("parsing XML: no root element")
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

// Bytes returns the document as indented XML, with an XML
// declaration.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := encode(enc, d.d.Root()); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func encode(enc *xml.Encoder, n doc.Node) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Tag()}}
	for _, name := range n.AttrNames() {
		v, _ := n.Attr(name)
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: name}, Value: v})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if t := n.Text(); t != "" {
		if err := enc.EncodeToken(xml.CharData(t)); err != nil {
			return err
		}
	}
	for _, k := range n.Kids() {
		if err := encode(enc, k); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// WriteTo writes the document to w as XML.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	bs, err := d.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(bs)
	return int64(n), err
}

// WriteFile writes the document to the named file as XML.
func (d *Document) WriteFile(path string) error {
	bs, err := d.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, bs, 0o644)
}
