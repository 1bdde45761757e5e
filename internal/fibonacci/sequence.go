package fibonacci

import "context"

// Generator produces consecutive Fibonacci numbers. It keeps O(1) state and
// is not safe for concurrent use.
//
//	gen := fibonacci.NewGenerator()
//	for range 10 {
//		v, _ := gen.Next(ctx)
//		fmt.Println(v)
//	}
type Generator struct {
	current Value
	next    Value
	index   uint64
	started bool
}

// NewGenerator returns a generator whose first Next yields F(0).
func NewGenerator() *Generator {
	return &Generator{current: zero, next: one}
}

// Next returns the next term: F(0) on the first call, then F(1), and so on.
func (g *Generator) Next(ctx context.Context) (Value, error) {
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if !g.started {
		g.started = true
		return g.current, nil
	}
	g.index++
	g.current, g.next = g.next, g.current.Add(g.next)
	return g.current, nil
}

// Current returns the last value produced, or 0 before the first Next.
func (g *Generator) Current() Value { return g.current }

// Index returns the index of Current.
func (g *Generator) Index() uint64 { return g.index }

// Reset rewinds the generator to F(0).
func (g *Generator) Reset() {
	*g = Generator{current: zero, next: one}
}

// Skip positions the generator on F(n) in O(log n) and returns it. The
// following Next yields F(n+1).
func (g *Generator) Skip(ctx context.Context, n uint64) (Value, error) {
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	g.current, g.next = fastDoublingPair(n)
	g.index = n
	g.started = true
	return g.current, nil
}

// Term is one entry of a generated sequence.
type Term struct {
	Index uint64
	Value Value
	// Ratio is F(Index)/F(Index-1); HasRatio is false where it is undefined.
	Ratio    float64
	HasRatio bool
}

// Sequence returns count consecutive terms starting at F(start).
func Sequence(ctx context.Context, start, count uint64) ([]Term, error) {
	g := NewGenerator()
	terms := make([]Term, 0, count)
	if count == 0 {
		return terms, nil
	}
	if _, err := g.Skip(ctx, start); err != nil {
		return nil, err
	}
	for i := uint64(0); i < count; i++ {
		if i > 0 {
			if _, err := g.Next(ctx); err != nil {
				return nil, err
			}
		}
		r, ok := Ratio(g.Index())
		terms = append(terms, Term{Index: g.Index(), Value: g.Current(), Ratio: r, HasRatio: ok})
	}
	return terms, nil
}
