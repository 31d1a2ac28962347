package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/danderson/objtree"
	"github.com/danderson/objtree/tree"
	"github.com/danderson/objtree/treefile"
	"github.com/fatih/color"
	"github.com/kr/pretty"
)

var globalArgs struct {
	Root string `flag:"root,Require documents to have this root tag"`
}

func main() {
	root := &command.C{
		Name:     "objtree",
		Usage:    "command args...",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:  "convert",
				Usage: "convert input output",
				Help: `Convert a document between formats.

The formats of input and output are chosen by file extension (.xml,
.json, .yaml or .yml). An input with an unrecognized extension is
sniffed from its content. An output of "-" writes to stdout, in the
format given by --to.`,
				SetFlags: command.Flags(flax.MustBind, &convertArgs),
				Run:      command.Adapt(runConvert),
			},
			{
				Name:     "dump",
				Usage:    "dump file",
				Help:     "Print the node structure of a document.",
				SetFlags: command.Flags(flax.MustBind, &dumpArgs),
				Run:      command.Adapt(runDump),
			},
			{
				Name:  "get",
				Usage: "get file path",
				Help: `Print the text of the nodes at a path.

The path is a list of tags separated by '/'. All but the last tag
select the first matching child, and the last tag selects every
matching child.`,
				Run: command.Adapt(runGet),
			},
			{
				Name:     "float",
				Usage:    "float value...",
				Help:     "Format floating point values the way documents store them.",
				SetFlags: command.Flags(flax.MustBind, &floatArgs),
				Run:      runFloat,
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	env := root.NewEnv(nil).SetContext(ctx)
	command.RunOrFail(env, os.Args[1:])
}

var convertArgs struct {
	To string `flag:"to,default=xml,Output format when writing to stdout"`
}

func runConvert(env *command.Env, in, out string) error {
	src, _, err := treefile.LoadFile(in, globalArgs.Root)
	if err != nil {
		return err
	}

	var to treefile.Format
	if out == "-" {
		to, err = treefile.ParseFormat(convertArgs.To)
		if err != nil {
			return env.Usagef("%v", err)
		}
	} else if to = treefile.FormatOf(out); to == treefile.Unknown {
		return env.Usagef("cannot determine output format of %q", out)
	}

	dst, err := treefile.Convert(src, to)
	if err != nil {
		return err
	}
	if out == "-" {
		_, err = dst.WriteTo(os.Stdout)
		return err
	}
	if err := dst.WriteFile(out); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}

var dumpArgs struct {
	Go      bool `flag:"go,Print the document as a Go value"`
	NoColor bool `flag:"no-color,Disable colored output"`
}

func runDump(env *command.Env, path string) error {
	doc, format, err := treefile.LoadFile(path, globalArgs.Root)
	if err != nil {
		return err
	}
	if dumpArgs.Go {
		fmt.Printf("%# v\n", pretty.Formatter(tree.Snapshot(doc.Root())))
		return nil
	}
	if dumpArgs.NoColor {
		color.NoColor = true
	}
	out := indenter{out: os.Stdout, indentNext: true}
	out.f("%s (%s)", path, format)
	dumpNode(&out, doc.Root(), 1)
	return nil
}

func dumpNode(out *indenter, n tree.Node, depth int) {
	out.indent(depth)
	line := color.BlueString(n.Tag())
	for _, name := range n.AttrNames() {
		v, _ := n.Attr(name)
		line += fmt.Sprintf(" %s=%s", color.CyanString(name), color.GreenString("%q", v))
	}
	if t := n.Text(); t != "" {
		line += fmt.Sprintf(" %q", t)
	}
	out.s(line)
	for _, c := range n.Children() {
		dumpNode(out, c, depth+1)
	}
}

func runGet(env *command.Env, path, loc string) error {
	doc, _, err := treefile.LoadFile(path, globalArgs.Root)
	if err != nil {
		return err
	}
	p := tree.ParsePath(loc)
	if len(p) == 0 {
		return env.Usagef("empty path")
	}
	parent, ok := tree.FindParentOfLast(doc.Root(), p)
	if !ok {
		return fmt.Errorf("no nodes at %s", p)
	}
	nodes := parent.ChildrenNamed(p.Last())
	if len(nodes) == 0 {
		return fmt.Errorf("no nodes at %s", p)
	}
	for _, n := range nodes {
		fmt.Println(n.Text())
	}
	return nil
}

var floatArgs struct {
	Precision int     `flag:"precision,default=6,Digits after the decimal point"`
	SciBelow  float64 `flag:"below,default=0.001,Use scientific notation below this magnitude"`
	SciAbove  float64 `flag:"above,default=100000,Use scientific notation above this magnitude"`
}

func runFloat(env *command.Env) error {
	if len(env.Args) == 0 {
		return env.Usagef("no values given")
	}
	format := objtree.FloatFormat{
		Precision: floatArgs.Precision,
		SciBelow:  floatArgs.SciBelow,
		SciAbove:  floatArgs.SciAbove,
	}
	for _, arg := range env.Args {
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("parsing %q: %w", arg, err)
		}
		fmt.Printf("%s\t%s\n", arg, format.Format(f))
	}
	return nil
}
