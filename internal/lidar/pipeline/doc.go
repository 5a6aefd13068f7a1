// Package pipeline runs outlier filters over dataset sequences.
//
// It is the composition root for the lidar packages: it builds a filter
// from the tuning config, applies it frame by frame, projects the filtered
// cloud, scores masks against labels and fans results out to the optional
// sinks (filtered dataset writer, visualiser session, run store). None of
// the packages it wires import pipeline/.
package pipeline
