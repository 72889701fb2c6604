package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/peterh/liner"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"
	"gopkg.in/yaml.v2"

	aerrors "github.com/ambralang/ambra/errors"
	"github.com/ambralang/ambra/eval"
	"github.com/ambralang/ambra/ir"
	"github.com/ambralang/ambra/lexer"
	"github.com/ambralang/ambra/lower"
	"github.com/ambralang/ambra/parser"
	"github.com/ambralang/ambra/resolver"
	"github.com/ambralang/ambra/typecheck"
)

const moduleInfoFile = "Ambra Module Information"

type ambraModule struct {
	Package string `yaml:"Package"`
}

// compile runs the whole front end over one source text. A nil program
// with diagnostics means some pass rejected the input.
func compile(src string, filename string) (*ir.Program, []aerrors.Diagnostic) {
	toks := lexer.LexFile(src, filename)
	prog, diags := parser.Parse(toks)
	if prog.HadError {
		return nil, diags
	}
	res := resolver.Resolve(prog)
	diags = append(diags, res.Diagnostics...)
	typed := typecheck.Check(prog, res)
	diags = append(diags, typed.Diagnostics...)
	if len(diags) > 0 {
		return nil, diags
	}
	lowered, internal := lower.Program(prog, res, typed)
	if len(internal) > 0 {
		return nil, internal
	}
	for _, fault := range ir.Validate(lowered) {
		diags = append(diags, aerrors.Diagnostic{Message: "ir: " + fault.String()})
	}
	if len(diags) > 0 {
		return nil, diags
	}
	return lowered, nil
}

func reportDiagnostics(diags []aerrors.Diagnostic) {
	aerrors.Sort(diags)
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d)
	}
}

func readSources(dir string) (string, string, error) {
	fis, err := ioutil.ReadDir(dir)
	if err != nil {
		return "", "", tracerr.Wrap(err)
	}
	var names []string
	for _, fi := range fis {
		if strings.HasSuffix(fi.Name(), ".ambra") {
			names = append(names, fi.Name())
		}
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		data, err := ioutil.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", "", tracerr.Wrap(err)
		}
		sb.Write(data)
		if !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}
	if len(names) == 0 {
		return "", "", tracerr.New("no .ambra source files found")
	}
	return sb.String(), names[0], nil
}

func sourceArg(c *cli.Context) (string, string, error) {
	file := c.Args().First()
	if file == "" {
		return readSources(".")
	}
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return "", "", tracerr.Wrap(err)
	}
	return string(data), file, nil
}

func main() {
	app := &cli.App{
		Name:  "ambra",
		Usage: "ambra compiler",
		ExitErrHandler: func(context *cli.Context, err error) {
			if err != nil {
				log.Fatalf("error with ambra: %s", err)
			}
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "init a directory",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						fmt.Printf("no module name provided")
						os.Exit(1)
					}
					out, err := yaml.Marshal(ambraModule{Package: name})
					if err != nil {
						return tracerr.Wrap(err)
					}
					if err := ioutil.WriteFile(moduleInfoFile, out, 0644); err != nil {
						return tracerr.Wrap(err)
					}
					return nil
				},
			},
			{
				Name:  "build",
				Usage: "compile sources to IR text",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name: "output",
					},
					&cli.BoolFlag{
						Name:  "dump",
						Value: false,
					},
				},
				Action: func(c *cli.Context) error {
					out := c.String("output")
					if out == "" {
						data, err := ioutil.ReadFile(moduleInfoFile)
						if err != nil {
							fmt.Printf("error reading %s: %s\n", moduleInfoFile, err)
							os.Exit(1)
						}
						var doc ambraModule
						if err := yaml.Unmarshal(data, &doc); err != nil {
							fmt.Printf("error reading %s: %s\n", moduleInfoFile, err)
							os.Exit(1)
						}
						out = doc.Package + ".ambrair"
					}

					src, filename, err := sourceArg(c)
					if err != nil {
						tracerr.PrintSourceColor(err)
						os.Exit(1)
					}
					prog, diags := compile(src, filename)
					if prog == nil {
						reportDiagnostics(diags)
						os.Exit(1)
					}
					if c.Bool("dump") {
						fmt.Print(prog.Format())
						return nil
					}
					return tracerr.Wrap(ioutil.WriteFile(out, []byte(prog.Format()), 0644))
				},
			},
			{
				Name:  "run",
				Usage: "compile and execute a file",
				Action: func(c *cli.Context) error {
					src, filename, err := sourceArg(c)
					if err != nil {
						tracerr.PrintSourceColor(err)
						os.Exit(1)
					}
					prog, diags := compile(src, filename)
					if prog == nil {
						reportDiagnostics(diags)
						os.Exit(1)
					}
					if err := eval.Run(prog, os.Stdout); err != nil {
						tracerr.PrintSourceColor(tracerr.Wrap(err))
						os.Exit(1)
					}
					return nil
				},
			},
			{
				Name:  "tokens",
				Usage: "dump the token stream of a file",
				Action: func(c *cli.Context) error {
					src, filename, err := sourceArg(c)
					if err != nil {
						tracerr.PrintSourceColor(err)
						os.Exit(1)
					}
					repr.Println(lexer.LexFile(src, filename))
					return nil
				},
			},
			{
				Name:  "ast",
				Usage: "dump the parsed AST of a file",
				Action: func(c *cli.Context) error {
					src, filename, err := sourceArg(c)
					if err != nil {
						tracerr.PrintSourceColor(err)
						os.Exit(1)
					}
					toks := lexer.LexFile(src, filename)
					prog, diags := parser.Parse(toks)
					if prog.HadError {
						reportDiagnostics(diags)
						os.Exit(1)
					}
					repr.Println(prog)
					return nil
				},
			},
			{
				Name:  "repl",
				Usage: "interactive session",
				Action: func(c *cli.Context) error {
					return repl()
				},
			},
		},
	}
	app.Run(os.Args)
}

// repl keeps a growing source buffer; each accepted line re-runs the whole
// pipeline and prints only the output the new line produced. Lines that
// fail to compile are reported and dropped from the buffer.
func repl() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	var buffer []string
	var lastOutput string

	for {
		input, err := line.Prompt("ambra> ")
		if err != nil {
			// io.EOF and liner.ErrPromptAborted both end the session
			fmt.Println()
			return nil
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		attempt := append(append([]string{}, buffer...), input)
		prog, diags := compile(strings.Join(attempt, "\n")+"\n", "repl")
		if prog == nil {
			reportDiagnostics(diags)
			continue
		}
		var sb strings.Builder
		if err := eval.Run(prog, &sb); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		buffer = attempt
		fmt.Print(strings.TrimPrefix(sb.String(), lastOutput))
		lastOutput = sb.String()
	}
}
