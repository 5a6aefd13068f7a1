// Package visualiser renders range images, filtered clouds and per-sequence
// reports to files.
//
// A Session owns the output directory, canvas size, colour palette and the
// non-linearity used to compress range values, plus a frame cursor for
// stepping through a sequence. There is no package-level state: callers
// create a Session and pass it to whatever needs to render.
//
// Range images are written as PNG heat maps with gonum/plot; clouds and
// reports as standalone HTML pages with go-echarts.
package visualiser
