package xpath

import (
	"math"
	"strings"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	data := []struct {
		Value float64
		Want  string
	}{
		{Value: 0, Want: "0"},
		{Value: math.Copysign(0, -1), Want: "0"},
		{Value: 1, Want: "1"},
		{Value: -1, Want: "-1"},
		{Value: 1.5, Want: "1.5"},
		{Value: 0.5, Want: "0.5"},
		{Value: 1e-7, Want: "0.0000001"},
		{Value: 1e21, Want: "1" + strings.Repeat("0", 21)},
		{Value: math.NaN(), Want: "NaN"},
		{Value: math.Inf(1), Want: "Infinity"},
		{Value: math.Inf(-1), Want: "-Infinity"},
	}
	for _, d := range data {
		got := Number(d.Value).String()
		if got != d.Want {
			t.Errorf("%v: got %q, want %q", d.Value, got, d.Want)
		}
	}
}

func TestNumberRoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 0.5, -0.5, 1.25, 123456789, 1e-7, 1e21, 3.141592653589793}
	for _, f := range values {
		str := Number(f).String()
		if got := parseNumber(str); got != f {
			t.Errorf("%v: round trip through %q gave %v", f, str, got)
		}
	}
}

func TestParseNumber(t *testing.T) {
	data := []struct {
		Value string
		Want  float64
		NaN   bool
	}{
		{Value: "1", Want: 1},
		{Value: "-1", Want: -1},
		{Value: "1.5", Want: 1.5},
		{Value: ".5", Want: 0.5},
		{Value: "12.", Want: 12},
		{Value: "  42  ", Want: 42},
		{Value: "1.5e2", NaN: true},
		{Value: "0x10", NaN: true},
		{Value: "1 2", NaN: true},
		{Value: "", NaN: true},
		{Value: "-", NaN: true},
		{Value: ".", NaN: true},
		{Value: "1.2.3", NaN: true},
		{Value: "+1", NaN: true},
	}
	for _, d := range data {
		got := parseNumber(d.Value)
		if d.NaN {
			if !math.IsNaN(got) {
				t.Errorf("%q: got %v, want NaN", d.Value, got)
			}
			continue
		}
		if got != d.Want {
			t.Errorf("%q: got %v, want %v", d.Value, got, d.Want)
		}
	}
}

func TestScalarCompare(t *testing.T) {
	data := []struct {
		Op    rune
		Left  Value
		Right Value
		Want  bool
	}{
		{Op: opEq, Left: String("a"), Right: String("a"), Want: true},
		{Op: opNe, Left: String("a"), Right: String("b"), Want: true},
		{Op: opEq, Left: Number(1), Right: String("1"), Want: true},
		{Op: opEq, Left: Boolean(true), Right: String("yes"), Want: true},
		{Op: opEq, Left: Boolean(false), Right: String(""), Want: true},
		{Op: opLt, Left: String("1"), Right: String("2"), Want: true},
		{Op: opLe, Left: Number(2), Right: Number(2), Want: true},
		{Op: opGt, Left: Number(3), Right: String("2"), Want: true},
		{Op: opEq, Left: Number(math.NaN()), Right: Number(math.NaN()), Want: false},
		{Op: opNe, Left: Number(math.NaN()), Right: Number(1), Want: true},
		{Op: opLt, Left: String("a"), Right: Number(1), Want: false},
	}
	for _, d := range data {
		got, err := compare(d.Op, d.Left, d.Right)
		if err != nil {
			t.Errorf("compare failed: %s", err)
			continue
		}
		if got != d.Want {
			t.Errorf("%v %s %v: got %t, want %t", d.Left, Token{Type: d.Op}, d.Right, got, d.Want)
		}
	}
}

func TestBooleanCoercion(t *testing.T) {
	if Number(0).Boolean() {
		t.Errorf("0 should be false")
	}
	if Number(math.NaN()).Boolean() {
		t.Errorf("NaN should be false")
	}
	if !Number(-1).Boolean() {
		t.Errorf("-1 should be true")
	}
	if String("").Boolean() {
		t.Errorf("empty string should be false")
	}
	if !String("false").Boolean() {
		t.Errorf("non empty string should be true")
	}
	if got := Boolean(true).Number(); got != 1 {
		t.Errorf("true as number: got %v", got)
	}
	if got := Boolean(true).String(); got != "true" {
		t.Errorf("true as string: got %q", got)
	}
	if got := Boolean(false).String(); got != "false" {
		t.Errorf("false as string: got %q", got)
	}
}
