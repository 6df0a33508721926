// SPDX-License-Identifier: MIT
// Package matrix - numerical routines backed by gonum/mat: PSD projection,
// spectral maps, inverse, linear solve and log-determinant.
//
// Purpose:
//   - gonum/mat works on real matrices only. A complex n×n matrix A = X + iY is
//     lifted to the real 2n×2n embedding E(A) = [[X, −Y], [Y, X]], which is a ring
//     homomorphism: E(AB) = E(A)E(B), E(A⁻¹) = E(A)⁻¹, E(Aᴴ) = E(A)ᵀ.
//   - For Hermitian A, E(A) is real symmetric with the same eigenvalues, each
//     repeated twice, so any spectral function commutes with the embedding:
//     f(E(A)) = E(f(A)). This lets mat.EigenSym do the Hermitian work.
//   - det E(A) = |det A|², hence log|det A| = ½·log det E(A).
//
// Notes:
//   - Results are folded back by averaging the two redundant copies of each
//     block, which also removes rounding asymmetry.
//   - Ill-conditioned but factorable matrices are inverted without error
//     (gonum reports them through mat.Condition); only an infinite condition
//     number maps to ErrSingular.

package matrix

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// embed lifts a (any shape) into its real 2r×2c representation.
// Complexity: O(r*c).
func embed(a *Dense) *mat.Dense {
	r, c := a.r, a.c
	e := mat.NewDense(2*r, 2*c, nil)
	var (
		i, j int
		x, y float64
	)
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			x, y = real(a.data[i*c+j]), imag(a.data[i*c+j])
			e.Set(i, j, x)
			e.Set(i, c+j, -y)
			e.Set(r+i, j, y)
			e.Set(r+i, c+j, x)
		}
	}

	return e
}

// embedHermitian lifts the Hermitian part of a into a symmetric 2n×2n matrix.
// Only the upper triangle is written, as mat.SymDense requires.
func embedHermitian(a *Dense) *mat.SymDense {
	h := Hermitize(a)
	n := h.r
	s := mat.NewSymDense(2*n, nil)
	var (
		i, j int
		x, y float64
	)
	for i = 0; i < n; i++ {
		for j = i; j < n; j++ {
			x, y = real(h.data[i*n+j]), imag(h.data[i*n+j])
			s.SetSym(i, j, x)
			s.SetSym(n+i, n+j, x)
			// Upper-right block is −Y; its (i, n+j) and (j, n+i) entries.
			s.SetSym(i, n+j, -y)
			if j != i {
				s.SetSym(j, n+i, y)
			}
		}
	}

	return s
}

// fold maps a real 2r×2c embedding back to an r×c complex matrix.
// Re = (E11 + E22)/2, Im = (E21 − E12)/2.
func fold(e mat.Matrix, r, c int) *Dense {
	out := Zeros(r, c)
	var (
		i, j   int
		re, im float64
	)
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			re = (e.At(i, j) + e.At(r+i, c+j)) / 2
			im = (e.At(r+i, j) - e.At(i, c+j)) / 2
			out.data[i*c+j] = complex(re, im)
		}
	}

	return out
}

// conditionError classifies errors from gonum's LU-based routines.
// A finite mat.Condition is a warning only; the result is usable.
func conditionError(err error) error {
	if err == nil {
		return nil
	}
	var cond mat.Condition
	if errors.As(err, &cond) {
		if math.IsInf(float64(cond), 1) || math.IsNaN(float64(cond)) {
			return ErrSingular
		}
		return nil
	}
	if errors.Is(err, mat.ErrSingular) {
		return ErrSingular
	}

	return err
}

// eigenEmbedded factorises the symmetric embedding of the Hermitian part of h.
func eigenEmbedded(h *Dense) (*mat.EigenSym, error) {
	var es mat.EigenSym
	if ok := es.Factorize(embedHermitian(h), true); !ok {
		return nil, ErrEigenFailed
	}

	return &es, nil
}

// EigenvaluesHermitian returns the n eigenvalues of the Hermitian part of h in
// ascending order.
// Implementation:
//   - Stage 1: factorise the 2n×2n embedding (eigenvalues come in equal pairs).
//   - Stage 2: sort ascending and keep every other value.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrEigenFailed (wrapped with "Eigen").
//
// Complexity:
//   - Time O(n^3), Space O(n^2).
func EigenvaluesHermitian(h *Dense) ([]float64, error) {
	if err := ValidateSquareNonNil(h); err != nil {
		return nil, matrixErrorf(opEigen, err)
	}
	var es mat.EigenSym
	if ok := es.Factorize(embedHermitian(h), false); !ok {
		return nil, matrixErrorf(opEigen, ErrEigenFailed)
	}
	all := es.Values(nil)
	sort.Float64s(all)
	out := make([]float64, h.r)
	for i := range out {
		out[i] = all[2*i]
	}

	return out, nil
}

// SpectralMap applies f to the eigenvalues of the Hermitian part of h:
// returns V·diag(f(λ))·Vᴴ, exactly Hermitian.
// MAIN DESCRIPTION:
//   - Shared engine of ProjectPSD, SqrtPSD and InvSqrtPSD.
//
// Implementation:
//   - Stage 1: symmetric embedding of (h + hᴴ)/2 and mat.EigenSym.
//   - Stage 2: reconstruct Σ_k f(λ_k) v_k v_kᵀ in the real domain.
//   - Stage 3: fold back to complex and Hermitize exactly.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrEigenFailed (wrapped with "SpectralMap").
//
// Complexity:
//   - Time O(n^3) (8× the complex flop count because of the embedding), Space O(n^2).
func SpectralMap(h *Dense, f func(float64) float64) (*Dense, error) {
	if err := ValidateSquareNonNil(h); err != nil {
		return nil, matrixErrorf(opSpectral, err)
	}
	es, err := eigenEmbedded(h)
	if err != nil {
		return nil, matrixErrorf(opSpectral, err)
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// scaled = V·diag(f(λ)); recon = scaled·Vᵀ
	n2 := len(vals)
	scaled := mat.NewDense(n2, n2, nil)
	scaled.Apply(func(i, j int, v float64) float64 { return v * f(vals[j]) }, &vecs)
	var recon mat.Dense
	recon.Mul(scaled, vecs.T())

	return Hermitize(fold(&recon, h.r, h.c)), nil
}

// ProjectPSD returns the nearest (in Frobenius norm) Hermitian matrix whose
// eigenvalues are all ≥ floor.
// Implementation:
//   - Stage 1: take the Hermitian part and eigen-decompose.
//   - Stage 2: raise eigenvalues below floor to floor.
//   - Stage 3: reconstruct and symmetrise exactly.
//
// Behavior highlights:
//   - Idempotent up to rounding.
//   - With floor > 0 the result is strictly positive definite, hence invertible.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrEigenFailed (wrapped with "ProjectPSD").
func ProjectPSD(h *Dense, floor float64) (*Dense, error) {
	out, err := SpectralMap(h, func(l float64) float64 { return math.Max(l, floor) })
	if err != nil {
		return nil, matrixErrorf(opProject, err)
	}

	return out, nil
}

// ProjectPSDBatch maps ProjectPSD over hs. Each entry is projected
// independently; the first failure aborts with its index in the message.
func ProjectPSDBatch(hs []*Dense, floor float64) ([]*Dense, error) {
	out := make([]*Dense, len(hs))
	for i, h := range hs {
		p, err := ProjectPSD(h, floor)
		if err != nil {
			return nil, fmt.Errorf("batch[%d]: %w", i, err)
		}
		out[i] = p
	}

	return out, nil
}

// SqrtPSD returns the principal square root of the Hermitian part of h with
// negative eigenvalues clipped to 0 first.
func SqrtPSD(h *Dense) (*Dense, error) {
	return SpectralMap(h, func(l float64) float64 { return math.Sqrt(math.Max(l, 0)) })
}

// InvSqrtPSD returns (h)^{-1/2} with eigenvalues floored at floor (> 0) first.
func InvSqrtPSD(h *Dense, floor float64) (*Dense, error) {
	return SpectralMap(h, func(l float64) float64 { return 1 / math.Sqrt(math.Max(l, floor)) })
}

// Inverse returns a⁻¹ via LU on the real embedding.
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrSingular (wrapped with "Inverse").
//
// Complexity:
//   - Time O(n^3), Space O(n^2).
func Inverse(a *Dense) (*Dense, error) {
	if err := ValidateSquareNonNil(a); err != nil {
		return nil, matrixErrorf(opInverse, err)
	}
	var inv mat.Dense
	if err := conditionError(inv.Inverse(embed(a))); err != nil {
		return nil, matrixErrorf(opInverse, err)
	}

	return fold(&inv, a.r, a.c), nil
}

// Solve returns x with a·x = b.
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrDimensionMismatch, ErrSingular (wrapped with "Solve").
func Solve(a *Dense, b []complex128) ([]complex128, error) {
	if err := ValidateSquareNonNil(a); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	if err := ValidateVecLen(b, a.r); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	n := a.r
	rhs := mat.NewVecDense(2*n, nil)
	for i, v := range b {
		rhs.SetVec(i, real(v))
		rhs.SetVec(n+i, imag(v))
	}
	var x mat.VecDense
	if err := conditionError(x.SolveVec(embed(a), rhs)); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(x.AtVec(i), x.AtVec(n+i))
	}

	return out, nil
}

// LogAbsDet returns log|det a|; −Inf for a singular matrix.
// Panics on non-square input (structural misuse).
func LogAbsDet(a *Dense) float64 {
	mustSquare(opLogDet, a)
	ld, _ := mat.LogDet(embed(a))

	return ld / 2
}
