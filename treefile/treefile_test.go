package treefile_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danderson/objtree/tree"
	"github.com/danderson/objtree/treefile"
	"github.com/danderson/objtree/treetest"
	"github.com/google/go-cmp/cmp"
)

func TestFormats(t *testing.T) {
	for _, f := range []treefile.Format{treefile.XML, treefile.JSON, treefile.YAML} {
		got, err := treefile.ParseFormat(f.String())
		if err != nil {
			t.Errorf("ParseFormat(%q) got err: %v", f, err)
		} else if got != f {
			t.Errorf("ParseFormat(%q) = %v, want %v", f, got, f)
		}
	}
	if got, err := treefile.ParseFormat("YML"); err != nil || got != treefile.YAML {
		t.Errorf("ParseFormat(YML) = %v, %v, want yaml", got, err)
	}
	if _, err := treefile.ParseFormat("toml"); err == nil {
		t.Error("ParseFormat(toml) succeeded, want error")
	}

	paths := map[string]treefile.Format{
		"a/b.xml":   treefile.XML,
		"b.JSON":    treefile.JSON,
		"c.yml":     treefile.YAML,
		"d.yaml":    treefile.YAML,
		"e.txt":     treefile.Unknown,
		"noext":     treefile.Unknown,
		"dir.xml/f": treefile.Unknown,
	}
	for path, want := range paths {
		if got := treefile.FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		in   string
		want treefile.Format
	}{
		{"", treefile.Unknown},
		{"  \n\t", treefile.Unknown},
		{"<Root/>", treefile.XML},
		{"\ufeff<?xml version=\"1.0\"?><Root/>", treefile.XML},
		{"\n  {\"Root\": null}", treefile.JSON},
		{"Root: x", treefile.YAML},
		{"---\nRoot: x", treefile.YAML},
	}
	for _, tc := range tests {
		if got := treefile.Sniff([]byte(tc.in)); got != tc.want {
			t.Errorf("Sniff(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

var sample = tree.Elem{
	Tag:   "Config",
	Attrs: map[string]string{"version": "2"},
	Children: []tree.Elem{
		{Tag: "Name", Text: "demo"},
		{Tag: "Servers", Children: []tree.Elem{
			{Tag: "Server", Attrs: map[string]string{"host": "a"}},
			{Tag: "Server", Attrs: map[string]string{"host": "b"}},
		}},
		{Tag: "Debug"},
	},
}

func TestConvert(t *testing.T) {
	formats := []treefile.Format{treefile.XML, treefile.JSON, treefile.YAML}
	for _, from := range formats {
		for _, to := range formats {
			t.Run(from.String()+"-"+to.String(), func(t *testing.T) {
				src, err := treefile.New(from, "Config")
				if err != nil {
					t.Fatalf("New(%v) got err: %v", from, err)
				}
				tree.Copy(src.Root(), treetest.Build(sample))

				dst, err := treefile.Convert(src, to)
				if err != nil {
					t.Fatalf("Convert(%v) got err: %v", to, err)
				}
				bs, err := dst.Bytes()
				if err != nil {
					t.Fatalf("Bytes() got err: %v", err)
				}

				got, f, err := treefile.Load(strings.NewReader(string(bs)), "Config")
				if err != nil {
					t.Fatalf("Load() got err: %v\ndocument:\n%s", err, bs)
				}
				if f != to {
					t.Errorf("Load() sniffed %v, want %v", f, to)
				}
				if diff := cmp.Diff(tree.Snapshot(got.Root()), sample); diff != "" {
					t.Errorf("conversion changed the document (-got+want):\n%s\ndocument:\n%s", diff, bs)
				}
			})
		}
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.xml", "c.json", "c.yaml"} {
		path := filepath.Join(dir, name)
		d, err := treefile.New(treefile.FormatOf(path), "Config")
		if err != nil {
			t.Fatalf("New(%s) got err: %v", name, err)
		}
		tree.Copy(d.Root(), treetest.Build(sample))
		if err := d.WriteFile(path); err != nil {
			t.Fatalf("WriteFile(%s) got err: %v", name, err)
		}

		got, f, err := treefile.LoadFile(path, "Config")
		if err != nil {
			t.Fatalf("LoadFile(%s) got err: %v", name, err)
		}
		if want := treefile.FormatOf(path); f != want {
			t.Errorf("LoadFile(%s) format = %v, want %v", name, f, want)
		}
		if diff := cmp.Diff(tree.Snapshot(got.Root()), sample); diff != "" {
			t.Errorf("LoadFile(%s) wrong tree (-got+want):\n%s", name, diff)
		}

		if _, _, err := treefile.LoadFile(path, "Other"); !errors.Is(err, tree.ErrRootMismatch) {
			t.Errorf("LoadFile(%s) with wrong root got err %v, want ErrRootMismatch", name, err)
		}
	}
}

func TestErrors(t *testing.T) {
	if _, err := treefile.New(treefile.Unknown, "Root"); err == nil {
		t.Error("New(Unknown) succeeded, want error")
	}
	if _, _, err := treefile.Parse(nil, treefile.Unknown, ""); err == nil {
		t.Error("Parse of empty input succeeded, want error")
	}
	if _, _, err := treefile.Parse([]byte("<Root/>"), treefile.JSON, ""); err == nil {
		t.Error("Parse of XML as JSON succeeded, want error")
	}
	if _, _, err := treefile.LoadFile(filepath.Join(t.TempDir(), "missing.xml"), ""); err == nil {
		t.Error("LoadFile of missing file succeeded, want error")
	}
}
