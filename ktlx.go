// Package ktlx provides convenience entry points for reading segmented KTLX
// EEG recordings. The full API lives in pkg/ktlx; this package re-exports
// the common types for callers that only need the basics.
//
// Example usage:
//
//	rec, err := ktlx.Open("/data/study/study.stc")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	samples, err := rec.ReadSamples([]int{0, 1}, 0, 5000)
package ktlx

import (
	core "github.com/eegio/ktlx/pkg/ktlx"
)

// Recording provides random access to a recording's sample stream.
type Recording = core.Recording

// Header is the parsed header of one KTLX file.
type Header = core.Header

// SegmentIndex is the parsed segment table of contents.
type SegmentIndex = core.SegmentIndex

// Matrix is a channel-major block of decoded samples in volts.
type Matrix = core.Matrix

// Summary condenses a recording's header, index and sidecar files.
type Summary = core.Summary

// Option configures a Recording; see pkg/ktlx for the available options.
type Option = core.Option

// Open opens a recording given the path of its .stc file.
func Open(stcPath string, opts ...Option) (*Recording, error) {
	return core.OpenRecording(stcPath, opts...)
}

// Summarize opens a recording and builds its summary in one call.
func Summarize(stcPath string, opts ...Option) (*Summary, error) {
	rec, err := core.OpenRecording(stcPath, opts...)
	if err != nil {
		return nil, err
	}
	return rec.Summary(), nil
}
