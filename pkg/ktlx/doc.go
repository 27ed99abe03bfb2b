// Package ktlx reads segmented KTLX EEG recordings: the container produced
// by long-term monitoring systems that split one sample stream across
// numbered raw-data files, indexed by a segment table of contents.
//
// A recording is a directory of files sharing one base name:
//
//	.erd  raw sample data, delta-coded, one file per segment
//	.etc  per-segment sidecar (undocumented trailer, surfaced raw)
//	.stc  segment table of contents
//	.snc  sample-stamp to wall-clock synchronization
//	.vtc  video table of contents
//	.ent  annotations ("notes"), sometimes with an .ent.old backup
//	.eeg  patient information text blob (not parsed here)
//
// # Usage
//
// Open a recording through its .stc file and read sample ranges:
//
//	rec, err := ktlx.OpenRecording("/data/study.stc")
//	if err != nil {
//	    return err
//	}
//	m, err := rec.ReadSamples([]int{0, 1, 2}, 0, 5000)
//	if err != nil {
//	    return err
//	}
//	// m.Row(0) is channel 0 in volts.
//
// Covering segments decode concurrently and are memoized by the recording's
// cache, so overlapping reads decode each segment once. The lower-level
// ReadHeader, ReadIndex, DecodeSegment, ReadNotes, ReadTimeSync,
// ReadVideoIndex and ReadETC functions expose the individual files.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package ktlx
