// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package wrapper

import (
	"fmt"
	"io"
	"strings"

	"github.com/descent-ml/descent/internal/method"
	"github.com/descent-ml/descent/internal/objective"
)

// Tracker streams one line per objective evaluation (trial point, value,
// gradient) and a separator per outer step to an append-only text sink.
// Purely observational: it never alters control flow or numeric results.
// At verbosity ≥ 2 the driver additionally routes the line-search
// bracketing/zoom trace into the same sink.
type Tracker struct {
	Base
	sink      io.Writer
	verbosity int
	point     []float64
}

// NewTracker wraps inner with a tracking sink.
func NewTracker(inner Method, sink io.Writer, verbosity int) *Tracker {
	return &Tracker{Base: NewBase(inner), sink: sink, verbosity: verbosity}
}

// Verbosity returns the configured tracking verbosity.
func (w *Tracker) Verbosity() int { return w.verbosity }

func (w *Tracker) Call(fdf objective.Func, x []float64, alpha float64, dir []float64) (float64, []float64, error) {
	y, g, err := w.Base.Call(fdf, x, alpha, dir)
	if err != nil {
		return y, g, err
	}
	if len(w.point) != len(x) {
		w.point = make([]float64, len(x))
	}
	for i := range w.point {
		w.point[i] = x[i]
		if dir != nil {
			w.point[i] += alpha * dir[i]
		}
	}
	fmt.Fprintf(w.sink, "%s\t%.17g\t%s\n", joinFloats(w.point), y, joinFloats(g))
	return y, g, err
}

func (w *Tracker) Step(eval method.EvalFunc, bound method.StepBound) (float64, error) {
	alpha, err := w.Base.Step(eval, bound)
	if err == nil {
		fmt.Fprintln(w.sink)
	}
	return alpha, err
}

func joinFloats(v []float64) string {
	var b strings.Builder
	for i, x := range v {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.17g", x)
	}
	return b.String()
}
