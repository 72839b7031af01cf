package fem

import (
	"fmt"
	"sort"
)

// Kind tags the variant held by a Coefficient
type Kind uint8

const (
	ConstantKind Kind = iota
	FunctionKind
	ExpressionKind
	FacetFunctionKind
)

func (k Kind) String() string {
	switch k {
	case ConstantKind:
		return "Constant"
	case FunctionKind:
		return "Function"
	case ExpressionKind:
		return "Expression"
	case FacetFunctionKind:
		return "FacetFunction"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Coefficient is a value attached to a named form slot. Exactly one of the
// payload fields matching Kind is set.
type Coefficient struct {
	Kind          Kind
	Constant      []float64
	Function      *Function
	Expression    *Expression
	FacetFunction *FacetFunction
}

func Constant(vals ...float64) Coefficient {
	return Coefficient{Kind: ConstantKind, Constant: vals}
}

func Func(f *Function) Coefficient {
	return Coefficient{Kind: FunctionKind, Function: f}
}

func Expr(e *Expression) Coefficient {
	return Coefficient{Kind: ExpressionKind, Expression: e}
}

func Facets(ff *FacetFunction) Coefficient {
	return Coefficient{Kind: FacetFunctionKind, FacetFunction: ff}
}

func (c Coefficient) ValueSize() int {
	switch c.Kind {
	case ConstantKind:
		return len(c.Constant)
	case FunctionKind:
		return c.Function.ValueSize()
	case ExpressionKind:
		return c.Expression.ValueSize()
	case FacetFunctionKind:
		return c.FacetFunction.Space.valueSize()
	}
	return 0
}

// Eval evaluates the coefficient at reference point r of cell. Facet
// function coefficients require the local facet; pass -1 inside the cell.
func (c Coefficient) Eval(cell Cell, facet int, r []float64, out []float64) {
	switch c.Kind {
	case ConstantKind:
		copy(out, c.Constant)
	case FunctionKind:
		c.Function.EvalCell(cell, r, out)
	case ExpressionKind:
		c.Expression.EvalCell(cell, r, out)
	case FacetFunctionKind:
		if facet < 0 {
			panic(fmt.Errorf("facet function evaluated without a facet on cell %d", cell.Index))
		}
		c.FacetFunction.EvalFacet(cell, facet, r, out)
	}
}

// Grad evaluates the physical gradient, laid out [component][direction]
func (c Coefficient) Grad(cell Cell, r []float64, out []float64) (err error) {
	switch c.Kind {
	case ConstantKind:
		for i := range out {
			out[i] = 0
		}
	case FunctionKind:
		err = c.Function.Gradient(cell, r, out)
	default:
		err = fmt.Errorf("%w: gradient of a %v coefficient", ErrSlotKind, c.Kind)
	}
	return
}

// Slot declares a named coefficient input of a form. Function and facet
// function slots may name the space they expect. Expression slots also
// accept functions.
type Slot struct {
	Name  string
	Kind  Kind
	Space *FunctionSpace
}

func (s Slot) Accepts(c Coefficient) (err error) {
	switch {
	case s.Kind == ExpressionKind && c.Kind == FunctionKind:
	case s.Kind != c.Kind:
		return fmt.Errorf("%w: slot %q expects a %v, got a %v", ErrSlotKind, s.Name, s.Kind, c.Kind)
	}
	switch c.Kind {
	case ConstantKind:
		if len(c.Constant) == 0 {
			err = fmt.Errorf("%w: slot %q given an empty constant", ErrSlotKind, s.Name)
		}
	case FunctionKind:
		switch {
		case c.Function == nil:
			err = fmt.Errorf("%w: slot %q given a nil function", ErrSlotKind, s.Name)
		case s.Kind == FunctionKind && s.Space != nil && !s.Space.Compatible(c.Function.Space):
			err = fmt.Errorf("%w: slot %q expects space %v, got %v", ErrSlotKind, s.Name, s.Space, c.Function.Space)
		}
	case ExpressionKind:
		if c.Expression == nil {
			err = fmt.Errorf("%w: slot %q given a nil expression", ErrSlotKind, s.Name)
		}
	case FacetFunctionKind:
		switch {
		case c.FacetFunction == nil:
			err = fmt.Errorf("%w: slot %q given a nil facet function", ErrSlotKind, s.Name)
		case s.Space != nil && !s.Space.Compatible(c.FacetFunction.Space):
			err = fmt.Errorf("%w: slot %q expects members on %v, got %v", ErrSlotKind, s.Name, s.Space, c.FacetFunction.Space)
		}
	}
	return
}

// Coefficients is a set of slot bindings keyed by slot name
type Coefficients map[string]Coefficient

func (w Coefficients) Names() (names []string) {
	for name := range w {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

func (w Coefficients) Get(name string) Coefficient {
	c, ok := w[name]
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrUnboundSlot, name))
	}
	return c
}

// Scalar evaluates a scalar coefficient inside a cell
func (w Coefficients) Scalar(name string, cell Cell, r []float64) float64 {
	return w.ScalarFacet(name, cell, -1, r)
}

// ScalarFacet evaluates a scalar coefficient on a local facet of a cell
func (w Coefficients) ScalarFacet(name string, cell Cell, facet int, r []float64) float64 {
	var (
		c   = w.Get(name)
		out = make([]float64, c.ValueSize())
	)
	c.Eval(cell, facet, r, out)
	return out[0]
}

// ScalarGrad evaluates the physical gradient of a scalar coefficient
func (w Coefficients) ScalarGrad(name string, cell Cell, r []float64) (grad []float64) {
	grad = make([]float64, cell.GeometricDim())
	if err := w.Get(name).Grad(cell, r, grad); err != nil {
		panic(err)
	}
	return
}

// Merge returns the union of a and b, the entries of b taking precedence
func Merge(a, b Coefficients) (w Coefficients) {
	w = make(Coefficients, len(a)+len(b))
	for name, c := range a {
		w[name] = c
	}
	for name, c := range b {
		w[name] = c
	}
	return
}

// Subset returns the entries of w with the given names
func (w Coefficients) Subset(names ...string) (sub Coefficients) {
	sub = make(Coefficients, len(names))
	for _, name := range names {
		if c, ok := w[name]; ok {
			sub[name] = c
		}
	}
	return
}
