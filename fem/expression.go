package fem

// Expression is a closed form function of physical coordinates
type Expression struct {
	Shape []int
	F     func(x []float64, values []float64)
}

func ScalarExpression(f func(x []float64) float64) *Expression {
	return &Expression{
		F: func(x []float64, values []float64) { values[0] = f(x) },
	}
}

func (e *Expression) ValueRank() int { return len(e.Shape) }

func (e *Expression) ValueSize() (size int) {
	size = 1
	for _, n := range e.Shape {
		size *= n
	}
	return
}

func (e *Expression) Eval(x []float64, values []float64) { e.F(x, values) }

func (e *Expression) EvalCell(cell Cell, r []float64, values []float64) {
	e.F(cell.PushForward(r), values)
}
