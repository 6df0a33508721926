// Package matrix provides the small complex linear-algebra kernel used by the
// IPSDTA separation engine.
//
// Dense is a row-major complex128 matrix. The package offers:
//
//   - Structural kernels (Mul, Add, Sub, Scale, ConjTranspose, Hermitize, Trace,
//     TraceMul, Outer, Quad, MulVec). Shapes are the caller's responsibility;
//     a mismatch panics with a wrapped ErrDimensionMismatch, the way gonum/mat
//     does for its own structural methods.
//   - Numerical routines (Inverse, Solve, LogAbsDet, EigenvaluesHermitian,
//     SpectralMap, ProjectPSD, SqrtPSD, InvSqrtPSD) that return sentinel errors.
//     They run on gonum/mat through the real 2n×2n embedding of a complex matrix.
//   - Validators (ValidateHermitian, ValidateSquare, …) shared by callers that
//     accept external input.
//
// ProjectPSD is the projector every covariance update leans on: it takes the
// Hermitian part of its argument, raises eigenvalues below a floor to the floor
// and reconstructs. It is idempotent and returns an exactly Hermitian matrix.
package matrix
