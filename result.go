package xpath

import (
	"fmt"

	"github.com/midbel/xpath/xml"
)

// DOM-3 XPathResult types.
const (
	AnyType = iota
	NumberType
	StringType
	BooleanType
	UnorderedNodeIteratorType
	OrderedNodeIteratorType
	UnorderedNodeSnapshotType
	OrderedNodeSnapshotType
	AnyUnorderedNodeType
	FirstOrderedNodeType
)

// Result is the DOM-3 style view over an evaluation result. Scalar
// accessors on a node-set result, or node accessors on a scalar
// result, raise the type error (code 52).
type Result struct {
	resultType int
	value      Value

	nodes []xml.Node
	next  int
}

// NewResult wraps a value as the requested result type. Requesting a
// type outside [AnyType, FirstOrderedNodeType] is an error; requesting
// a node flavour for a scalar value is a type error.
func NewResult(value Value, resultType int) (*Result, error) {
	if resultType < AnyType || resultType > FirstOrderedNodeType {
		return nil, fmt.Errorf("%d: unknown result type", resultType)
	}
	if resultType == AnyType {
		switch value.(type) {
		case String:
			resultType = StringType
		case Number:
			resultType = NumberType
		case Boolean:
			resultType = BooleanType
		default:
			resultType = UnorderedNodeIteratorType
		}
	}
	res := Result{
		resultType: resultType,
		value:      value,
	}
	switch resultType {
	case NumberType, StringType, BooleanType:
		return &res, nil
	}
	ns, ok := value.(*NodeSet)
	if !ok {
		return nil, typeError("result is not a node-set")
	}
	switch resultType {
	case UnorderedNodeIteratorType, UnorderedNodeSnapshotType, AnyUnorderedNodeType:
		res.nodes = ns.Nodes()
	default:
		res.nodes = ns.Sorted()
	}
	return &res, nil
}

func (r *Result) ResultType() int {
	return r.resultType
}

func (r *Result) NumberValue() (float64, error) {
	if r.resultType != NumberType {
		return 0, typeError("result is not a number")
	}
	return r.value.Number(), nil
}

func (r *Result) StringValue() (string, error) {
	if r.resultType != StringType {
		return "", typeError("result is not a string")
	}
	return r.value.String(), nil
}

func (r *Result) BooleanValue() (bool, error) {
	if r.resultType != BooleanType {
		return false, typeError("result is not a boolean")
	}
	return r.value.Boolean(), nil
}

// IterateNext returns the next node of an iterator result, nil once
// exhausted.
func (r *Result) IterateNext() (xml.Node, error) {
	switch r.resultType {
	case UnorderedNodeIteratorType, OrderedNodeIteratorType:
	default:
		return nil, typeError("result is not an iterator")
	}
	if r.next >= len(r.nodes) {
		return nil, nil
	}
	n := r.nodes[r.next]
	r.next++
	return n, nil
}

func (r *Result) SnapshotLength() (int, error) {
	switch r.resultType {
	case UnorderedNodeSnapshotType, OrderedNodeSnapshotType:
	default:
		return 0, typeError("result is not a snapshot")
	}
	return len(r.nodes), nil
}

func (r *Result) SnapshotItem(i int) (xml.Node, error) {
	switch r.resultType {
	case UnorderedNodeSnapshotType, OrderedNodeSnapshotType:
	default:
		return nil, typeError("result is not a snapshot")
	}
	if i < 0 || i >= len(r.nodes) {
		return nil, nil
	}
	return r.nodes[i], nil
}

// SingleNodeValue returns the single node of a first-ordered-node or
// any-unordered-node result, nil when the set is empty.
func (r *Result) SingleNodeValue() (xml.Node, error) {
	switch r.resultType {
	case AnyUnorderedNodeType, FirstOrderedNodeType:
	default:
		return nil, typeError("result is not a single node")
	}
	if len(r.nodes) == 0 {
		return nil, nil
	}
	return r.nodes[0], nil
}
