package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/midbel/cli"
)

var (
	errFail = errors.New("fail")

	summary = "xq evaluates xpath expressions against xml documents"
	help    = ""
)

func main() {
	set := cli.NewFlagSet("xq")
	if err := set.Parse(os.Args[1:]); errors.Is(err, flag.ErrHelp) {
		commands().Help()
		os.Exit(2)
	}
	if err := run(set.Args()); err != nil {
		os.Exit(1)
	}
}

func run(args []string) error {
	root := commands()
	root.SetSummary(summary)
	root.SetHelp(help)

	err := root.Execute(args)
	if err == nil {
		return nil
	}
	var sugg cli.SuggestionError
	if errors.As(err, &sugg) && len(sugg.Others) > 0 {
		fmt.Fprintln(os.Stderr, "similar command(s)")
		for _, n := range sugg.Others {
			fmt.Fprintln(os.Stderr, "-", n)
		}
	}
	if !errors.Is(err, errFail) {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}

func commands() *cli.CommandTrie {
	root := cli.New()
	root.Register([]string{"query"}, &queryCmd)
	root.Register([]string{"query", "execute"}, &queryCmd)
	root.Register([]string{"eval"}, &evalCmd)
	root.Register([]string{"lex"}, &lexCmd)

	return root
}

var queryCmd = cli.Command{
	Name:    "query",
	Alias:   []string{"q", "select"},
	Summary: "select nodes matching an xpath expression",
	Handler: &QueryCmd{},
}

var evalCmd = cli.Command{
	Name:    "eval",
	Summary: "evaluate an xpath expression and print its typed result",
	Handler: &EvalCmd{},
}

var lexCmd = cli.Command{
	Name:    "lex",
	Alias:   []string{"tokens"},
	Summary: "print the token stream of an xpath expression",
	Handler: &LexCmd{},
}
