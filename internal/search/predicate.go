package search

// Predicate is a boolean condition over the event graph. Stores translate it
// into their own query language; Evaluate gives the reference semantics.
type Predicate interface {
	predicate()
}

// Const is the always-true or always-false predicate.
type Const bool

// And is a conjunction. An empty And is true.
type And []Predicate

// Or is a disjunction. An empty Or is false.
type Or []Predicate

// Contains is a case-insensitive substring match. Pattern is already escaped
// with Sanitize, so it can be embedded in a LIKE pattern as-is.
type Contains struct {
	Field   Field
	Pattern string
}

type Op int

const (
	OpEq Op = iota + 1
	OpLt
	OpLe
	OpGt
	OpGe
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	}
	return "?"
}

// Compare holds Field Op Value. Value is a time.Time (date or instant),
// domain.TimeOfDay, bool, string or domain.EventType depending on Field.
// A missing field value never satisfies a comparison.
type Compare struct {
	Field Field
	Op    Op
	Value any
}

type IsNull struct {
	Field Field
}

// AnyDay holds when at least one of the event's day-details satisfies Where.
type AnyDay struct {
	Where Predicate
}

// HasAnyTag holds when the event is linked to at least one of TagIDs.
type HasAnyTag struct {
	TagIDs []int64
}

func (Const) predicate()     {}
func (And) predicate()       {}
func (Or) predicate()        {}
func (Contains) predicate()  {}
func (Compare) predicate()   {}
func (IsNull) predicate()    {}
func (AnyDay) predicate()    {}
func (HasAnyTag) predicate() {}

func True() Predicate  { return Const(true) }
func False() Predicate { return Const(false) }

func Eq(f Field, v any) Predicate { return Compare{Field: f, Op: OpEq, Value: v} }
func Lt(f Field, v any) Predicate { return Compare{Field: f, Op: OpLt, Value: v} }
func Le(f Field, v any) Predicate { return Compare{Field: f, Op: OpLe, Value: v} }
func Gt(f Field, v any) Predicate { return Compare{Field: f, Op: OpGt, Value: v} }
func Ge(f Field, v any) Predicate { return Compare{Field: f, Op: OpGe, Value: v} }

// AllOf conjoins ps, dropping true operands and collapsing to false
// as soon as one operand is false.
func AllOf(ps ...Predicate) Predicate {
	out := make(And, 0, len(ps))
	for _, p := range ps {
		switch v := p.(type) {
		case nil:
			continue
		case Const:
			if !v {
				return False()
			}
			continue
		case And:
			out = append(out, v...)
			continue
		}
		out = append(out, p)
	}
	switch len(out) {
	case 0:
		return True()
	case 1:
		return out[0]
	}
	return out
}

// AnyOf disjoins ps, dropping false operands and collapsing to true
// as soon as one operand is true.
func AnyOf(ps ...Predicate) Predicate {
	out := make(Or, 0, len(ps))
	for _, p := range ps {
		switch v := p.(type) {
		case nil:
			continue
		case Const:
			if v {
				return True()
			}
			continue
		case Or:
			out = append(out, v...)
			continue
		}
		out = append(out, p)
	}
	switch len(out) {
	case 0:
		return False()
	case 1:
		return out[0]
	}
	return out
}

// IsTrue reports whether p is the constant true predicate.
func IsTrue(p Predicate) bool {
	c, ok := p.(Const)
	return ok && bool(c)
}

// IsFalse reports whether p is the constant false predicate.
func IsFalse(p Predicate) bool {
	c, ok := p.(Const)
	return ok && !bool(c)
}
