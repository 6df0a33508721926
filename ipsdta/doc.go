// Package ipsdta separates a multichannel mixture with Independent
// Positive Semidefinite Tensor Analysis (IPSDTA).
//
// 🚀 What is IPSDTA?
//
//	The mixture is observed as a complex STFT tensor X[channel][bin][frame].
//	IPSDTA jointly estimates
//	  • a demixing matrix W_f per frequency bin (sources = channels), and
//	  • a low-rank model of each source's covariance across frequency:
//	    R_n(t) = Σ_k U_{n,k} · V_{n,k}(t), where every U is block-diagonal
//	    over contiguous frequency blocks and captures inter-bin correlation.
//
// ✨ Key features:
//   - two source-model updates: EM (Ikeshita) and MM (Kondo)
//   - two demixing updates: fixed point with auxiliary Λ, and vector-wise
//     coordinate descent (VCD, uniform partitions only)
//   - one algorithm over ragged block partitions (see package blocks)
//   - every covariance-like quantity is PSD-projected with an eps floor
//   - deterministic seeded initialisation, warm starts, per-iteration observers
//
// ⚙️ Usage:
//
//	cfg := ipsdta.DefaultConfig(ipsdta.Ikeshita)
//	cfg.NumBasis, cfg.NumBlocks = 2, 64
//
//	eng, err := ipsdta.New(X, cfg, ipsdta.WithLogger(logger))
//	if err != nil { … }
//	if err := eng.Run(ctx, 50); err != nil { … }
//	Y := eng.Estimate() // [source][bin][frame]
//
// Concurrency:
//
//	Iterations are sequential. Inside an update the work fans out over
//	sources or blocks with errgroup, bounded by Config.Workers; reductions
//	happen in a fixed order so results do not depend on scheduling.
//	An Engine itself must not be shared between goroutines.
//
// Performance (S sources, B blocks of size k, K atoms, T frames):
//
//   - Source update: O(S·B·K·T·k³)
//   - Fixed point:   O(S·B·T·k²·S² + S·B·(kS)³)
//   - VCD:           O(S·B·k·T·(k + S²) + S·B·k·S³)
package ipsdta
