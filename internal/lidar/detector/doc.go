// Package detector adapts general-purpose outlier detectors to the
// outlier.Filter contract.
//
// The detectors themselves (elliptic envelope, one-class SVM, local outlier
// factor, isolation forest) live in an external toolkit. This package owns
// their per-family configuration, validates it, and bridges to an
// implementation through the Backend capability interface: either an
// in-process function or an external process speaking a small binary
// protocol on stdin/stdout.
//
// Backends are treated as opaque, expensive and possibly non-deterministic.
// Results are never cached.
package detector
