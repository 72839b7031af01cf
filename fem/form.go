package fem

import (
	"fmt"

	"github.com/notargets/godwr/utils"
)

// Domains carries cell markers for forms that integrate over a subdomain.
// A nil Domains marks every cell 0.
type Domains struct {
	Cells []int
}

func (d *Domains) CellMarker(k int) int {
	if d == nil || len(d.Cells) == 0 {
		return 0
	}
	return d.Cells[k]
}

// Form is a multilinear form of rank 0, 1 or 2 with named coefficient slots.
// Argument 0 is the test space, argument 1 the trial space. LocalTensor
// writes the cell tensor, laid out [test dof][trial dof], into A.
type Form interface {
	Name() string
	Rank() int
	Space(i int) *FunctionSpace
	Mesh() Mesh
	Slots() []Slot
	LocalTensor(cell Cell, w Coefficients, dom *Domains, A []float64) error
}

// TensorSize is the length of the local tensor of f
func TensorSize(f Form) (n int) {
	n = 1
	for i := 0; i < f.Rank(); i++ {
		n *= f.Space(i).Element.SpaceDimension()
	}
	return
}

func slotByName(f Form, name string) (s Slot, ok bool) {
	for _, s = range f.Slots() {
		if s.Name == name {
			return s, true
		}
	}
	return
}

// Template is a form with the coefficients fixed at construction. The form
// itself stays immutable; every call binds the remaining slots into a fresh
// BoundForm.
type Template struct {
	Form  Form
	Fixed Coefficients
}

func NewTemplate(f Form, fixed Coefficients) (t Template, err error) {
	if f == nil {
		err = fmt.Errorf("%w: nil form", ErrUnboundSlot)
		return
	}
	for name, c := range fixed {
		s, ok := slotByName(f, name)
		if !ok {
			err = fmt.Errorf("%w: form %q has no slot %q", ErrUnknownSlot, f.Name(), name)
			return
		}
		if err = s.Accepts(c); err != nil {
			err = fmt.Errorf("form %q: %w", f.Name(), err)
			return
		}
	}
	t = Template{Form: f, Fixed: fixed}
	return
}

func (t Template) IsFixed(name string) (ok bool) {
	_, ok = t.Fixed[name]
	return
}

func (t Template) HasSlot(name string) (ok bool) {
	_, ok = slotByName(t.Form, name)
	return
}

func (t Template) Slot(name string) (Slot, bool) { return slotByName(t.Form, name) }

// FreeSlots lists the slots that must be supplied per call
func (t Template) FreeSlots() (free []Slot) {
	for _, s := range t.Form.Slots() {
		if !t.IsFixed(s.Name) {
			free = append(free, s)
		}
	}
	return
}

// Bind validates the per call coefficients against the free slots
func (t Template) Bind(free Coefficients) (b BoundForm, err error) {
	for _, name := range free.Names() {
		s, ok := slotByName(t.Form, name)
		switch {
		case !ok:
			err = fmt.Errorf("%w: form %q has no slot %q", ErrUnknownSlot, t.Form.Name(), name)
			return
		case t.IsFixed(name):
			err = fmt.Errorf("%w: %q of form %q", ErrSlotConflict, name, t.Form.Name())
			return
		}
		if err = s.Accepts(free[name]); err != nil {
			err = fmt.Errorf("form %q: %w", t.Form.Name(), err)
			return
		}
	}
	for _, s := range t.FreeSlots() {
		if _, ok := free[s.Name]; !ok {
			err = fmt.Errorf("%w: %q of form %q", ErrUnboundSlot, s.Name, t.Form.Name())
			return
		}
	}
	b = BoundForm{
		Form:         t.Form,
		Coefficients: Merge(t.Fixed, free),
	}
	return
}

// BoundForm is a form with every slot bound, ready for assembly
type BoundForm struct {
	Form         Form
	Coefficients Coefficients
}

func (b BoundForm) LocalTensor(cell Cell, dom *Domains, A []float64) error {
	for i := range A {
		A[i] = 0
	}
	return b.Form.LocalTensor(cell, b.Coefficients, dom, A)
}

// LocalMatrix evaluates a bilinear form on one cell
func LocalMatrix(b BoundForm, k int, dom *Domains) (A utils.Matrix, err error) {
	if b.Form.Rank() != 2 {
		err = fmt.Errorf("%w: form %q has rank %d, want 2", ErrShape, b.Form.Name(), b.Form.Rank())
		return
	}
	A = utils.NewMatrix(b.Form.Space(0).Element.SpaceDimension(), b.Form.Space(1).Element.SpaceDimension())
	err = b.LocalTensor(b.Form.Mesh().Cell(k), dom, A.Data())
	return
}

// LocalVector evaluates a linear form on one cell
func LocalVector(b BoundForm, k int, dom *Domains) (v utils.Vector, err error) {
	if b.Form.Rank() != 1 {
		err = fmt.Errorf("%w: form %q has rank %d, want 1", ErrShape, b.Form.Name(), b.Form.Rank())
		return
	}
	v = utils.NewVector(b.Form.Space(0).Element.SpaceDimension())
	err = b.LocalTensor(b.Form.Mesh().Cell(k), dom, v.DataP)
	return
}
