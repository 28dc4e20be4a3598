package xpath

import (
	"fmt"
	"math"
	"strings"

	"github.com/midbel/xpath/environ"
	"github.com/midbel/xpath/xml"
)

// Func is a callable XPath function. Arguments arrive already
// evaluated; the context supplies the focus for the zero-argument
// forms.
type Func func(ctx *Context, args []Value) (Value, error)

// defaultFunctions is the core library, registered under the empty
// namespace.
var defaultFunctions = createBuiltins()

// DefaultFunctions exposes the names of the core library.
func DefaultFunctions() []string {
	return defaultFunctions.Names()
}

func createBuiltins() environ.Environ[Func] {
	env := environ.Empty[Func]()
	register := func(name string, min, max int, fn Func) {
		env.Define(name, checkArity(name, min, max, fn))
	}
	register("last", 0, 0, callLast)
	register("position", 0, 0, callPosition)
	register("count", 1, 1, callCount)
	register("id", 1, 1, callId)
	register("local-name", 0, 1, callLocalName)
	register("namespace-uri", 0, 1, callNamespaceUri)
	register("name", 0, 1, callName)
	register("string", 0, 1, callString)
	register("concat", 2, -1, callConcat)
	register("starts-with", 2, 2, callStartsWith)
	register("contains", 2, 2, callContains)
	register("substring-before", 2, 2, callSubstringBefore)
	register("substring-after", 2, 2, callSubstringAfter)
	register("substring", 2, 3, callSubstring)
	register("string-length", 0, 1, callStringLength)
	register("normalize-space", 0, 1, callNormalizeSpace)
	register("translate", 3, 3, callTranslate)
	register("boolean", 1, 1, callBoolean)
	register("not", 1, 1, callNot)
	register("true", 0, 0, callTrue)
	register("false", 0, 0, callFalse)
	register("lang", 1, 1, callLang)
	register("number", 0, 1, callNumber)
	register("sum", 1, 1, callSum)
	register("floor", 1, 1, callFloor)
	register("ceiling", 1, 1, callCeiling)
	register("round", 1, 1, callRound)
	return env
}

// checkArity rejects calls outside [min, max] arguments with an error
// naming the function; max < 0 means variadic.
func checkArity(name string, min, max int, fn Func) Func {
	do := func(ctx *Context, args []Value) (Value, error) {
		if len(args) < min || (max >= 0 && len(args) > max) {
			return nil, fmt.Errorf("%s: %w", name, errArgument)
		}
		return fn(ctx, args)
	}
	return do
}

// argOrContext returns the first argument or the context node wrapped
// as a node-set for the zero-argument forms.
func argOrContext(ctx *Context, args []Value) (Value, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if ctx.Node == nil {
		return nil, fmt.Errorf("missing context node")
	}
	return NewNodeSet(ctx.Node), nil
}

// argNode resolves the optional node-set argument of the name
// functions to a single node; nil when the set is empty.
func argNode(ctx *Context, args []Value) (xml.Node, error) {
	if len(args) == 0 {
		if ctx.Node == nil {
			return nil, fmt.Errorf("missing context node")
		}
		return ctx.Node, nil
	}
	ns, err := toNodeSet(args[0])
	if err != nil {
		return nil, err
	}
	return ns.First(), nil
}

func callLast(ctx *Context, _ []Value) (Value, error) {
	return Number(ctx.Size), nil
}

func callPosition(ctx *Context, _ []Value) (Value, error) {
	return Number(ctx.Position), nil
}

func callCount(_ *Context, args []Value) (Value, error) {
	ns, err := toNodeSet(args[0])
	if err != nil {
		return nil, err
	}
	return Number(ns.Len()), nil
}

func callId(ctx *Context, args []Value) (Value, error) {
	var tokens []string
	if ns, ok := args[0].(*NodeSet); ok {
		for _, n := range ns.Sorted() {
			tokens = append(tokens, splitBlank(stringValue(n))...)
		}
	} else {
		tokens = splitBlank(args[0].String())
	}
	set := NewNodeSet()
	if ctx.Node == nil {
		return set, nil
	}
	for _, id := range tokens {
		if n := getElementById(ctx.Node, id); n != nil {
			set.Add(n)
		}
	}
	return set, nil
}

func getElementById(node xml.Node, id string) xml.Node {
	switch root := xml.Root(node).(type) {
	case *xml.Document:
		return root.GetElementById(id)
	case *xml.Element:
		return root.GetElementById(id)
	default:
		return nil
	}
}

func splitBlank(s string) []string {
	return strings.FieldsFunc(s, isBlank)
}

func callLocalName(ctx *Context, args []Value) (Value, error) {
	n, err := argNode(ctx, args)
	if err != nil || n == nil {
		return String(""), err
	}
	return String(n.LocalName()), nil
}

func callNamespaceUri(ctx *Context, args []Value) (Value, error) {
	n, err := argNode(ctx, args)
	if err != nil || n == nil {
		return String(""), err
	}
	return String(nodeURI(n)), nil
}

func callName(ctx *Context, args []Value) (Value, error) {
	n, err := argNode(ctx, args)
	if err != nil || n == nil {
		return String(""), err
	}
	return String(n.QualifiedName()), nil
}

func callString(ctx *Context, args []Value) (Value, error) {
	v, err := argOrContext(ctx, args)
	if err != nil {
		return nil, err
	}
	return String(v.String()), nil
}

func callConcat(_ *Context, args []Value) (Value, error) {
	var str strings.Builder
	for i := range args {
		str.WriteString(args[i].String())
	}
	return String(str.String()), nil
}

func callStartsWith(_ *Context, args []Value) (Value, error) {
	return Boolean(strings.HasPrefix(args[0].String(), args[1].String())), nil
}

func callContains(_ *Context, args []Value) (Value, error) {
	return Boolean(strings.Contains(args[0].String(), args[1].String())), nil
}

func callSubstringBefore(_ *Context, args []Value) (Value, error) {
	before, _, ok := strings.Cut(args[0].String(), args[1].String())
	if !ok {
		return String(""), nil
	}
	return String(before), nil
}

func callSubstringAfter(_ *Context, args []Value) (Value, error) {
	_, after, ok := strings.Cut(args[0].String(), args[1].String())
	if !ok {
		return String(""), nil
	}
	return String(after), nil
}

// callSubstring selects the 1-based character range [round(start),
// round(start)+round(length)). NaN bounds select nothing; a missing
// length runs to the end.
func callSubstring(_ *Context, args []Value) (Value, error) {
	var (
		runes = []rune(args[0].String())
		start = xpathRound(args[1].Number())
		end   = math.Inf(1)
	)
	if len(args) > 2 {
		end = start + xpathRound(args[2].Number())
	}
	var str strings.Builder
	for i, r := range runes {
		pos := float64(i + 1)
		if pos >= start && pos < end {
			str.WriteRune(r)
		}
	}
	return String(str.String()), nil
}

func callStringLength(ctx *Context, args []Value) (Value, error) {
	v, err := argOrContext(ctx, args)
	if err != nil {
		return nil, err
	}
	return Number(len([]rune(v.String()))), nil
}

func callNormalizeSpace(ctx *Context, args []Value) (Value, error) {
	v, err := argOrContext(ctx, args)
	if err != nil {
		return nil, err
	}
	return String(strings.Join(splitBlank(v.String()), " ")), nil
}

// callTranslate maps characters of the first string through the
// second and third: the first occurrence in the map string wins, and
// characters mapping past the end of the replacement string are
// dropped.
func callTranslate(_ *Context, args []Value) (Value, error) {
	var (
		from = []rune(args[1].String())
		to   = []rune(args[2].String())
		subs = make(map[rune]rune, len(from))
		drop = make(map[rune]struct{})
	)
	for i, r := range from {
		if _, seen := subs[r]; seen {
			continue
		}
		if _, seen := drop[r]; seen {
			continue
		}
		if i < len(to) {
			subs[r] = to[i]
		} else {
			drop[r] = struct{}{}
		}
	}
	var str strings.Builder
	for _, r := range args[0].String() {
		if _, ok := drop[r]; ok {
			continue
		}
		if s, ok := subs[r]; ok {
			r = s
		}
		str.WriteRune(r)
	}
	return String(str.String()), nil
}

func callBoolean(_ *Context, args []Value) (Value, error) {
	return Boolean(args[0].Boolean()), nil
}

func callNot(_ *Context, args []Value) (Value, error) {
	return Boolean(!args[0].Boolean()), nil
}

func callTrue(_ *Context, _ []Value) (Value, error) {
	return Boolean(true), nil
}

func callFalse(_ *Context, _ []Value) (Value, error) {
	return Boolean(false), nil
}

// callLang tests the language of the context node against the closest
// xml:lang in scope; a sublanguage suffix on the declared language is
// ignored.
func callLang(ctx *Context, args []Value) (Value, error) {
	want := args[0].String()
	for n := ctx.Node; n != nil; n = parentOf(n) {
		el, ok := n.(*xml.Element)
		if !ok {
			continue
		}
		attr, ok := el.GetAttributeNS(xml.NamespaceXML, "lang")
		if !ok {
			continue
		}
		have := attr.Value()
		if strings.EqualFold(have, want) {
			return Boolean(true), nil
		}
		if sub, _, ok := strings.Cut(have, "-"); ok && strings.EqualFold(sub, want) {
			return Boolean(true), nil
		}
		return Boolean(false), nil
	}
	return Boolean(false), nil
}

func callNumber(ctx *Context, args []Value) (Value, error) {
	v, err := argOrContext(ctx, args)
	if err != nil {
		return nil, err
	}
	return Number(v.Number()), nil
}

func callSum(_ *Context, args []Value) (Value, error) {
	ns, err := toNodeSet(args[0])
	if err != nil {
		return nil, err
	}
	var sum float64
	for _, n := range ns.Sorted() {
		sum += parseNumber(stringValue(n))
	}
	return Number(sum), nil
}

func callFloor(_ *Context, args []Value) (Value, error) {
	return Number(math.Floor(args[0].Number())), nil
}

func callCeiling(_ *Context, args []Value) (Value, error) {
	return Number(math.Ceil(args[0].Number())), nil
}

func callRound(_ *Context, args []Value) (Value, error) {
	return Number(xpathRound(args[0].Number())), nil
}

// xpathRound is round-half-up, NaN and infinities passing through.
func xpathRound(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Floor(f + 0.5)
}
