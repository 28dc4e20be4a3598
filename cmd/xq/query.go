package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/midbel/xpath"
	"github.com/midbel/xpath/xml"
)

type ParserOptions struct {
	OmitProlog bool
	StrictNS   bool
	KeepEmpty  bool
}

func parseDocument(file string, opts ParserOptions) (*xml.Document, error) {
	r := os.Stdin
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	p := xml.NewParser(r)
	p.OmitProlog = opts.OmitProlog
	p.StrictNS = opts.StrictNS
	p.KeepEmpty = opts.KeepEmpty
	return p.Parse()
}

type nsFlag struct {
	options []xpath.Option
}

func (n *nsFlag) add(bind string) error {
	prefix, uri, ok := strings.Cut(bind, "=")
	if !ok {
		return fmt.Errorf("%s: expected prefix=uri", bind)
	}
	n.options = append(n.options, xpath.WithNamespace(prefix, uri))
	return nil
}

type QueryCmd struct {
	Noout bool
	Limit int
	Text  bool
	Html  bool
	ParserOptions
}

const queryInfo = "query took %s - %d nodes matching %q"

func (q *QueryCmd) Run(args []string) error {
	var (
		set = flag.NewFlagSet("query", flag.ContinueOnError)
		ns  nsFlag
	)
	set.IntVar(&q.Limit, "limit", 0, "limit number of results returned by query")
	set.BoolVar(&q.Noout, "quiet", false, "suppress output - default is to print the result nodes")
	set.BoolVar(&q.Text, "text", false, "print only value of node")
	set.BoolVar(&q.Html, "html", false, "case insensitive name tests, any namespace for unprefixed tests")
	set.BoolVar(&q.StrictNS, "strict-ns", false, "strict namespace checking")
	set.BoolVar(&q.OmitProlog, "omit-prolog", false, "omit xml prolog")
	set.Func("ns", "namespace binding (prefix=uri)", ns.add)
	if err := set.Parse(args); err != nil {
		return err
	}
	doc, err := parseDocument(set.Arg(1), q.ParserOptions)
	if err != nil {
		return err
	}
	options := ns.options
	if q.Html {
		options = append(options, xpath.WithHTML())
	}
	results, elapsed, err := runQuery(set.Arg(0), doc, options)
	if err != nil {
		return err
	}
	nodes := results.Sorted()
	if q.Limit > 0 && len(nodes) > q.Limit {
		nodes = nodes[:q.Limit]
	}
	if !q.Noout {
		for _, n := range nodes {
			if q.Text {
				fmt.Fprintln(os.Stdout, n.Value())
			} else {
				fmt.Fprintln(os.Stdout, renderNode(n))
			}
		}
	}
	fmt.Fprintf(os.Stdout, queryInfo+"\n", elapsed, results.Len(), set.Arg(0))
	if results.Empty() {
		return errFail
	}
	return nil
}

func runQuery(expr string, doc *xml.Document, options []xpath.Option) (*xpath.NodeSet, time.Duration, error) {
	begin := time.Now()
	query, err := xpath.BuildWith(expr, options...)
	if err != nil {
		return nil, 0, err
	}
	results, err := query.Find(doc)
	return results, time.Since(begin), err
}

type EvalCmd struct {
	ParserOptions
}

func (e *EvalCmd) Run(args []string) error {
	var (
		set = flag.NewFlagSet("eval", flag.ContinueOnError)
		ns  nsFlag
	)
	set.BoolVar(&e.StrictNS, "strict-ns", false, "strict namespace checking")
	set.BoolVar(&e.OmitProlog, "omit-prolog", false, "omit xml prolog")
	set.Func("ns", "namespace binding (prefix=uri)", ns.add)
	if err := set.Parse(args); err != nil {
		return err
	}
	query, err := xpath.BuildWith(set.Arg(0), ns.options...)
	if err != nil {
		return err
	}
	opts := xpath.Options{}
	if file := set.Arg(1); file != "" {
		doc, err := parseDocument(file, e.ParserOptions)
		if err != nil {
			return err
		}
		opts.Node = doc
	}
	value, err := query.Evaluate(&opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, renderValue(value))
	return nil
}

type LexCmd struct{}

func (LexCmd) Run(args []string) error {
	set := flag.NewFlagSet("lex", flag.ContinueOnError)
	if err := set.Parse(args); err != nil {
		return err
	}
	scan := xpath.Scan(strings.NewReader(set.Arg(0)))
	for {
		tok := scan.Scan()
		fmt.Fprintln(os.Stdout, tok)
		if tok.Type == xpath.EOF || tok.Type == xpath.Invalid {
			break
		}
	}
	return nil
}
