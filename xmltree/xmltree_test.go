package xmltree_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/danderson/objtree/tree"
	"github.com/danderson/objtree/treetest"
	"github.com/danderson/objtree/xmltree"
	"github.com/google/go-cmp/cmp"
)

var sample = tree.Elem{
	Tag:   "Root",
	Attrs: map[string]string{"id": "1"},
	Children: []tree.Elem{
		{Tag: "Name", Text: "Alice & <Bob>"},
		{Tag: "Tags", Children: []tree.Elem{
			{Tag: "Tag", Text: "x"},
			{Tag: "Tag", Text: "y"},
		}},
		{Tag: "Flag"},
		{Tag: "Price", Text: "9.99", Attrs: map[string]string{"currency": "USD"}},
		{Tag: "Note", Text: "  padded  "},
		{Tag: "Mixed", Text: "hello", Children: []tree.Elem{
			{Tag: "Sub", Text: "x"},
		}},
	},
}

func TestRoundTrip(t *testing.T) {
	d := xmltree.New("Root")
	tree.Copy(d.Root(), treetest.Build(sample))

	bs, err := d.Bytes()
	if err != nil {
		t.Fatalf("Bytes() got err: %v", err)
	}
	if !strings.HasPrefix(string(bs), "<?xml") {
		t.Errorf("Bytes() has no XML declaration:\n%s", bs)
	}

	got, err := xmltree.Load(strings.NewReader(string(bs)), "Root")
	if err != nil {
		t.Fatalf("Load() got err: %v\ndocument:\n%s", err, bs)
	}
	if diff := cmp.Diff(tree.Snapshot(got.Root()), sample); diff != "" {
		t.Errorf("round trip changed the document (-got+want):\n%s\ndocument:\n%s", diff, bs)
	}
}

func TestLoad(t *testing.T) {
	const in = `<?xml version="1.0"?>
<!-- comment -->
<Root xmlns="urn:example" xmlns:p="urn:p" a="1">
  <A>text</A>
  <B/>
  <C><![CDATA[<raw>]]></C>
</Root>`
	d, err := xmltree.Load(strings.NewReader(in), "")
	if err != nil {
		t.Fatalf("Load() got err: %v", err)
	}
	want := tree.Elem{
		Tag:   "Root",
		Attrs: map[string]string{"a": "1"},
		Children: []tree.Elem{
			{Tag: "A", Text: "text"},
			{Tag: "B"},
			{Tag: "C", Text: "<raw>"},
		},
	}
	if diff := cmp.Diff(tree.Snapshot(d.Root()), want); diff != "" {
		t.Errorf("Load() wrong tree (-got+want):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		root string
	}{
		{"empty", "", ""},
		{"no root", "<!-- nothing -->", ""},
		{"two roots", "<A/><B/>", ""},
		{"malformed", "<A><B></A>", ""},
		{"wrong root", "<A/>", "B"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := xmltree.Load(strings.NewReader(tc.in), tc.root)
			if err == nil {
				t.Fatalf("Load(%q) succeeded, want error. Got:\n%v", tc.in, tree.Snapshot(d.Root()))
			}
		})
	}

	_, err := xmltree.Load(strings.NewReader("<A/>"), "B")
	if !errors.Is(err, tree.ErrRootMismatch) {
		t.Errorf("Load with wrong root got err %v, want ErrRootMismatch", err)
	}
}
