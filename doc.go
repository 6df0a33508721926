// Package ipsdta is a toolkit for determined blind source separation of
// multichannel audio with independent positive semidefinite tensor analysis.
//
// 🚀 What is ipsdta?
//
//	A pure-Go separator that models every source as a sum of low-rank
//	Hermitian PSD basis matrices over blocks of adjacent frequency bins, and
//	alternates two updates until the sources fall apart:
//		• Source model: EM or MM updates of the bases U and activations V
//		• Spatial model: fixed-point or vector-wise coordinate descent on W
//		• Loss: the negative log-likelihood, recorded per iteration
//
// ✨ Why choose ipsdta?
//
//   - Deterministic – seeded initialisation, order-fixed reductions, Workers-independent results
//   - Explicit – a value-type Config, sentinel errors, no hidden global state
//   - Complete – STFT, projection back, WAV I/O, synthetic rooms, a CLI and Prometheus metrics
//
// Packages:
//
//	ipsdta/     the separation engine: Config, New, Run, Step, Estimate, observers
//	matrix/     complex linear algebra on gonum: PSD projection, inverse, solve, log-det
//	blocks/     the canonical partition of frequency bins into blocks
//	stft/       Hann-windowed STFT and its weighted overlap-add inverse
//	projback/   least-squares projection of estimates onto a reference microphone
//	wavio/      multichannel PCM WAV read and write
//	mixer/      seeded synthetic convolutive mixtures
//	metrics/    Prometheus observer for iterations, loss and timing
//	cmd/ipsdta  the command-line front end (separate, mix, version)
//
// Pipeline:
//
//	wav ─▶ stft ─▶ ipsdta.Engine ─▶ projback ─▶ istft ─▶ wav per source
//
//	go install github.com/katalvlaran/ipsdta/cmd/ipsdta@latest
package ipsdta
