package kitti

import (
	"encoding/binary"
	"math"

	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
)

const (
	// PointStride is the encoded size of one point.
	PointStride = 16
	// LabelStride is the encoded size of one label.
	LabelStride = 4
)

// Label is a SemanticKITTI point label: the low 16 bits hold the semantic
// class, the high 16 bits the instance id.
type Label uint32

// NewLabel packs a semantic class and instance id.
func NewLabel(semantic, instance uint16) Label {
	return Label(uint32(instance)<<16 | uint32(semantic))
}

// Semantic returns the class id.
func (l Label) Semantic() uint16 { return uint16(l) }

// Instance returns the instance id.
func (l Label) Instance() uint16 { return uint16(l >> 16) }

// DecodeScan parses a velodyne .bin payload.
func DecodeScan(data []byte) (pointcloud.Cloud, error) {
	if len(data)%PointStride != 0 {
		return nil, &ShapeError{What: "scan", Bytes: len(data), Stride: PointStride}
	}
	out := make(pointcloud.Cloud, len(data)/PointStride)
	for i := range out {
		b := data[i*PointStride:]
		out[i] = pointcloud.Point{
			X:         math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
			Y:         math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
			Z:         math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
			Remission: math.Float32frombits(binary.LittleEndian.Uint32(b[12:])),
		}
	}
	return out, nil
}

// EncodeScan is the inverse of DecodeScan.
func EncodeScan(cloud pointcloud.Cloud) []byte {
	out := make([]byte, len(cloud)*PointStride)
	for i, p := range cloud {
		b := out[i*PointStride:]
		binary.LittleEndian.PutUint32(b[0:], math.Float32bits(p.X))
		binary.LittleEndian.PutUint32(b[4:], math.Float32bits(p.Y))
		binary.LittleEndian.PutUint32(b[8:], math.Float32bits(p.Z))
		binary.LittleEndian.PutUint32(b[12:], math.Float32bits(p.Remission))
	}
	return out
}

// DecodeLabels parses a .label payload.
func DecodeLabels(data []byte) ([]Label, error) {
	if len(data)%LabelStride != 0 {
		return nil, &ShapeError{What: "labels", Bytes: len(data), Stride: LabelStride}
	}
	out := make([]Label, len(data)/LabelStride)
	for i := range out {
		out[i] = Label(binary.LittleEndian.Uint32(data[i*LabelStride:]))
	}
	return out, nil
}

// EncodeLabels is the inverse of DecodeLabels.
func EncodeLabels(labels []Label) []byte {
	out := make([]byte, len(labels)*LabelStride)
	for i, l := range labels {
		binary.LittleEndian.PutUint32(out[i*LabelStride:], uint32(l))
	}
	return out
}

// KeepLabels returns the labels of the points not marked in mask.
func KeepLabels(labels []Label, mask pointcloud.Mask) ([]Label, error) {
	if len(labels) != len(mask) {
		return nil, &MismatchError{Points: len(mask), Labels: len(labels)}
	}
	out := make([]Label, 0, len(labels)-mask.Count())
	for i, l := range labels {
		if !mask[i] {
			out = append(out, l)
		}
	}
	return out, nil
}
