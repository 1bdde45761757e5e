package fibonacci

// Matrix2x2 is a 2x2 matrix over the wrapping 128-bit domain:
//
//	[ A B ]
//	[ C D ]
//
// Products of Fibonacci matrices stay Fibonacci matrices, so the type is
// closed under Mul.
type Matrix2x2 struct {
	A, B, C, D Value
}

// IdentityMatrix returns the multiplicative identity.
func IdentityMatrix() Matrix2x2 {
	return Matrix2x2{A: one, B: zero, C: zero, D: one}
}

// QMatrix returns the Fibonacci generator [[1,1],[1,0]]. Its n-th power is
// [[F(n+1), F(n)], [F(n), F(n-1)]].
func QMatrix() Matrix2x2 {
	return Matrix2x2{A: one, B: one, C: one, D: zero}
}

// Mul returns m × o.
func (m Matrix2x2) Mul(o Matrix2x2) Matrix2x2 {
	return Matrix2x2{
		A: m.A.Mul(o.A).Add(m.B.Mul(o.C)),
		B: m.A.Mul(o.B).Add(m.B.Mul(o.D)),
		C: m.C.Mul(o.A).Add(m.D.Mul(o.C)),
		D: m.C.Mul(o.B).Add(m.D.Mul(o.D)),
	}
}

// Pow returns m^n by binary exponentiation: O(log n) multiplications.
func (m Matrix2x2) Pow(n uint64) Matrix2x2 {
	result := IdentityMatrix()
	base := m
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		n >>= 1
	}
	return result
}

// Equal reports whether every entry matches.
func (m Matrix2x2) Equal(o Matrix2x2) bool {
	return m.A.Equal(o.A) && m.B.Equal(o.B) && m.C.Equal(o.C) && m.D.Equal(o.D)
}

// MatrixPower computes F(n) as the off-diagonal entry of QMatrix()^n. It does
// the same work as FastDoubling with explicit matrix storage and is kept as
// the comparison point for it.
func MatrixPower(n uint64) Value {
	return QMatrix().Pow(n).B
}
