package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/danderson/jsonmap/schemafile"
	"github.com/kr/pretty"
)

var showArgs struct {
	Pretty bool `flag:"pretty,Dump the parsed document instead of listing mappings"`
}

var fmtArgs struct {
	Write bool `flag:"w,Write the result back to the source file instead of stdout"`
}

func main() {
	root := &command.C{
		Name:  "jsonmap",
		Usage: "command args...",
		Commands: []*command.C{
			{
				Name:  "check",
				Usage: "check file...",
				Help: `Check schema files for structural problems.

Reports duplicate schema names, unknown parent schemas, parent
cycles, mappings that can neither encode nor decode, and nested
codecs that refer to unknown schemas. Names bound to Go types and
functions are not checked, since they only exist in the program that
loads the file.`,
				Run: runCheck,
			},
			{
				Name:  "show",
				Usage: "show file [schema]",
				Help: `Show the flattened mappings of schemas.

With one argument, shows every schema in the file. With two, shows
only the named schema. Inherited mappings are listed first, in the
order in which they apply.`,
				SetFlags: command.Flags(flax.MustBind, &showArgs),
				Run:      command.Adapt(runShow),
			},
			{
				Name:     "fmt",
				Usage:    "fmt file",
				Help:     "Reformat a schema file in canonical form.",
				SetFlags: command.Flags(flax.MustBind, &fmtArgs),
				Run:      command.Adapt(runFmt),
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	env := root.NewEnv(nil)
	command.RunOrFail(env, os.Args[1:])
}

func runCheck(env *command.Env) error {
	if len(env.Args) == 0 {
		return env.Usagef("check requires at least one file.")
	}
	failed := 0
	for _, path := range env.Args {
		doc, err := schemafile.LoadFile(path)
		if err == nil {
			err = doc.Check()
		}
		if err != nil {
			failed++
			fmt.Printf("%s:\n", path)
			for _, e := range unjoin(err) {
				printIndented(os.Stdout, 1, "%v", e)
			}
			continue
		}
		fmt.Printf("%s: ok, %d schemas\n", path, len(doc.Schemas))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files have problems", failed, len(env.Args))
	}
	return nil
}

func runShow(env *command.Env, path string, rest ...string) error {
	if len(rest) > 1 {
		return env.Usagef("show takes at most one schema name.")
	}
	doc, err := schemafile.LoadFile(path)
	if err != nil {
		return err
	}
	if showArgs.Pretty {
		fmt.Printf("%# v\n", pretty.Formatter(doc))
		return nil
	}

	names := make([]string, 0, len(doc.Schemas))
	if len(rest) == 1 {
		names = append(names, rest[0])
	} else {
		for _, s := range doc.Schemas {
			names = append(names, s.Name)
		}
	}

	for _, name := range names {
		decl, ok := doc.Lookup(name)
		if !ok {
			return fmt.Errorf("no schema %q in %s", name, path)
		}
		printIndented(os.Stdout, 0, "%s", describe(decl))
		ms, err := doc.Flatten(name)
		if err != nil {
			return err
		}
		if len(ms) == 0 {
			printIndented(os.Stdout, 1, "(no mappings)")
		}
		for i, m := range ms {
			printIndented(os.Stdout, 1, "#%d %s", i, m)
		}
	}
	return nil
}

func runFmt(env *command.Env, path string) error {
	doc, err := schemafile.LoadFile(path)
	if err != nil {
		return err
	}
	bs, err := schemafile.Marshal(doc)
	if err != nil {
		return fmt.Errorf("formatting %s: %w", path, err)
	}
	if !fmtArgs.Write {
		_, err := os.Stdout.Write(bs)
		return err
	}
	if err := os.WriteFile(path, bs, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func describe(s *schemafile.SchemaDecl) string {
	var attrs []string
	if s.Type != s.Name {
		attrs = append(attrs, "type "+s.Type)
	}
	if s.Parent != "" {
		attrs = append(attrs, "parent "+s.Parent)
	}
	if s.Constructor != "" {
		attrs = append(attrs, "constructor "+s.Constructor)
	}
	if len(attrs) == 0 {
		return s.Name
	}
	return fmt.Sprintf("%s (%s)", s.Name, strings.Join(attrs, ", "))
}

// unjoin returns the errors joined into err by errors.Join, or err
// alone.
func unjoin(err error) []error {
	var j interface{ Unwrap() []error }
	if errors.As(err, &j) {
		return j.Unwrap()
	}
	return []error{err}
}
