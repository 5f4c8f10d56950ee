//go:build accelerate

package main

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/netlib/blas/netlib"
)

// Swaps in the cgo BLAS backend when built with `-tags accelerate`.
// Matrix-heavy training benefits from a native BLAS.
func init() {
	blas64.Use(netlib.Implementation{})
}
