package planner

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/stompplan/robotmodel"
)

const (
	// polynomial degree used to smooth seed trajectories.
	smoothingDegree = 5

	// interior updates smaller than this are not applied.
	smoothingTolerance = 1e-5
)

// smoothParameters fits a low-degree polynomial to each joint's row of the
// parameter matrix by least squares and replaces the interior columns with
// the fit, corrected so the endpoints are never altered. Smoothed values are
// clamped into the joint limits. Seeds short enough for the fit to
// interpolate exactly pass through unchanged.
func smoothParameters(params *mat.Dense, limits []robotmodel.Limit) error {
	rows, cols := params.Dims()
	if rows != len(limits) {
		return &DimensionMismatchError{Want: len(limits), Got: rows}
	}
	if cols < 3 {
		// nothing interior to smooth
		return nil
	}

	degree := smoothingDegree
	if degree > cols-1 {
		degree = cols - 1
	}

	// Vandermonde basis over normalized time
	vandermonde := mat.NewDense(cols, degree+1, nil)
	for t := 0; t < cols; t++ {
		x := float64(t) / float64(cols-1)
		basis := 1.0
		for d := 0; d <= degree; d++ {
			vandermonde.Set(t, d, basis)
			basis *= x
		}
	}

	row := make([]float64, cols)
	for j := 0; j < rows; j++ {
		mat.Row(row, j, params)

		var coeffs mat.Dense
		if err := coeffs.Solve(vandermonde, mat.NewDense(cols, 1, append([]float64(nil), row...))); err != nil {
			return errors.Wrapf(err, "polynomial fit failed for joint row %d", j)
		}
		var fit mat.Dense
		fit.Mul(vandermonde, &coeffs)

		// linear correction pinning both endpoints to their original values
		startErr := row[0] - fit.At(0, 0)
		endErr := row[cols-1] - fit.At(cols-1, 0)
		for t := 1; t < cols-1; t++ {
			x := float64(t) / float64(cols-1)
			v := fit.At(t, 0) + (1-x)*startErr + x*endErr
			if v < limits[j].Min {
				v = limits[j].Min
			} else if v > limits[j].Max {
				v = limits[j].Max
			}
			if math.Abs(v-row[t]) > smoothingTolerance {
				params.Set(j, t, v)
			}
		}
	}
	return nil
}
