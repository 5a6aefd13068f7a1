package projection

import "fmt"

// Channel selects one value of a range image cell.
type Channel int

const (
	ChannelRemission Channel = iota
	ChannelRange
	ChannelX
	ChannelY
	ChannelZ
	ChannelIndex // position of the point in the projected cloud

	NumChannels = 6
)

func (c Channel) String() string {
	switch c {
	case ChannelRemission:
		return "remission"
	case ChannelRange:
		return "range"
	case ChannelX:
		return "x"
	case ChannelY:
		return "y"
	case ChannelZ:
		return "z"
	case ChannelIndex:
		return "index"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// Sentinel marks every channel of a cell that no point landed in.
const Sentinel float32 = -1

// RangeImage is a Height x Width x NumChannels float32 image stored
// row-major in Data.
type RangeImage struct {
	Height int
	Width  int
	Data   []float32
}

// NewRangeImage returns an image with every cell set to Sentinel.
func NewRangeImage(height, width int) *RangeImage {
	data := make([]float32, height*width*NumChannels)
	for i := range data {
		data[i] = Sentinel
	}
	return &RangeImage{Height: height, Width: width, Data: data}
}

func (img *RangeImage) offset(row, col int) int {
	return (row*img.Width + col) * NumChannels
}

// At returns channel ch of the cell at (row, col).
func (img *RangeImage) At(row, col int, ch Channel) float32 {
	return img.Data[img.offset(row, col)+int(ch)]
}

// Cell returns the six channel values of (row, col). The slice aliases Data.
func (img *RangeImage) Cell(row, col int) []float32 {
	o := img.offset(row, col)
	return img.Data[o : o+NumChannels : o+NumChannels]
}

// Filled reports whether a point was written to (row, col).
func (img *RangeImage) Filled(row, col int) bool {
	return img.At(row, col, ChannelIndex) != Sentinel
}

// Plane copies one channel into a Height*Width row-major slice.
func (img *RangeImage) Plane(ch Channel) []float32 {
	out := make([]float32, img.Height*img.Width)
	for i := range out {
		out[i] = img.Data[i*NumChannels+int(ch)]
	}
	return out
}

// FilledCount returns the number of cells that hold a point.
func (img *RangeImage) FilledCount() int {
	n := 0
	for i := 0; i < img.Height*img.Width; i++ {
		if img.Data[i*NumChannels+int(ChannelIndex)] != Sentinel {
			n++
		}
	}
	return n
}
