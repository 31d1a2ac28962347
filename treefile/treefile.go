// Package treefile loads and saves tree documents in any of the
// supported formats.
package treefile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/danderson/objtree/jsontree"
	"github.com/danderson/objtree/tree"
	"github.com/danderson/objtree/xmltree"
	"github.com/danderson/objtree/yamltree"
)

// Document is a tree document in some format.
type Document interface {
	// Root returns the document's root node.
	Root() tree.Node
	// Bytes returns the encoded document.
	Bytes() ([]byte, error)
	// WriteTo writes the encoded document to w.
	WriteTo(w io.Writer) (int64, error)
	// WriteFile writes the encoded document to the named file.
	WriteFile(path string) error
}

var (
	_ Document = (*xmltree.Document)(nil)
	_ Document = (*jsontree.Document)(nil)
	_ Document = (*yamltree.Document)(nil)
)

// Format is a document format.
type Format int

const (
	Unknown Format = iota
	XML
	JSON
	YAML
)

var formatNames = map[Format]string{
	Unknown: "unknown",
	XML:     "xml",
	JSON:    "json",
	YAML:    "yaml",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns the format with the given name, as returned by
// Format.String. "yml" is accepted as a synonym of "yaml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "xml":
		return XML, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return Unknown, fmt.Errorf("unknown format %q", s)
}

// FormatOf returns the format implied by path's extension, or Unknown.
func FormatOf(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return Unknown
	}
	return f
}

// Sniff guesses the format of an encoded document from its first
// non-space byte: '<' is XML, '{' is JSON, and anything else is
// assumed to be YAML.
func Sniff(bs []byte) Format {
	bs = bytes.TrimLeft(bs, " \t\r\n\ufeff")
	switch {
	case len(bs) == 0:
		return Unknown
	case bs[0] == '<':
		return XML
	case bs[0] == '{':
		return JSON
	default:
		return YAML
	}
}

// New returns an empty document of the given format, with the given
// root tag.
func New(f Format, root string) (Document, error) {
	switch f {
	case XML:
		return xmltree.New(root), nil
	case JSON:
		return jsontree.New(root), nil
	case YAML:
		return yamltree.New(root), nil
	}
	return nil, fmt.Errorf("unknown format %v", f)
}

// Parse decodes bs as a document in format f. If f is Unknown, the
// format is sniffed from the content. If root is non-empty, the
// document's root must have that tag.
func Parse(bs []byte, f Format, root string) (Document, Format, error) {
	if f == Unknown {
		f = Sniff(bs)
	}
	r := bytes.NewReader(bs)
	var (
		ret Document
		err error
	)
	switch f {
	case XML:
		ret, err = xmltree.Load(r, root)
	case JSON:
		ret, err = jsontree.Load(r, root)
	case YAML:
		ret, err = yamltree.Load(r, root)
	default:
		return nil, Unknown, fmt.Errorf("cannot determine document format")
	}
	if err != nil {
		return nil, f, err
	}
	return ret, f, nil
}

// Load reads a document from r, sniffing its format.
func Load(r io.Reader, root string) (Document, Format, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, Unknown, err
	}
	return Parse(bs, Unknown, root)
}

// LoadFile reads the named file. The format is chosen by the file's
// extension, or sniffed from its content if the extension is not
// recognized.
func LoadFile(path, root string) (Document, Format, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, Unknown, err
	}
	ret, f, err := Parse(bs, FormatOf(path), root)
	if err != nil {
		return nil, f, fmt.Errorf("loading %s: %w", path, err)
	}
	return ret, f, nil
}

// Convert returns a new document of format f holding a copy of src.
func Convert(src Document, f Format) (Document, error) {
	ret, err := New(f, src.Root().Tag())
	if err != nil {
		return nil, err
	}
	tree.Copy(ret.Root(), src.Root())
	return ret, nil
}
