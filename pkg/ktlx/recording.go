package ktlx

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/eegio/ktlx/pkg/log"
)

// Option configures optional behavior of a Recording.
type Option func(*options)

type options struct {
	logger       log.Logger
	cachedDecode int
	workers      int
}

func defaultOptions() options {
	return options{
		logger:       log.NewNoopLogger(),
		cachedDecode: 0, // retain every decoded segment
		workers:      runtime.NumCPU(),
	}
}

// WithLogger sets the logger used for degraded-read warnings.
// Without it, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithCachedSegments bounds how many decoded segments the recording retains.
// Zero or negative keeps every decoded segment until the Recording is
// garbage collected. The bound is an eviction policy only: concurrent reads
// of one segment always share a single decode.
func WithCachedSegments(n int) Option {
	return func(o *options) { o.cachedDecode = n }
}

// WithWorkers caps how many segments decode concurrently during one
// ReadSamples call. Defaults to the number of CPUs.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// Recording provides random access to the sample stream of one segmented
// KTLX recording. It owns the decoded-segment cache; matrices it returns are
// read-only to consumers.
type Recording struct {
	dir      string
	basePath string // recording path without extension, for sidecar files
	hdr      *Header
	index    *SegmentIndex
	cache    *segmentCache
	logger   log.Logger
	workers  int
}

// OpenRecording opens a recording given the path of its segment
// table-of-contents (.stc) file. Sibling files are resolved from the index
// entries and the recording base name; no directory scanning is performed.
func OpenRecording(stcPath string, opts ...Option) (*Recording, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	index, err := ReadIndex(stcPath)
	if err != nil {
		return nil, err
	}
	if len(index.Entries) == 0 {
		return nil, fmt.Errorf("%s: segment index is empty", stcPath)
	}

	dir := filepath.Dir(stcPath)
	erdPath := filepath.Join(dir, index.Entries[0].Name+".erd")
	hdr, err := ReadHeader(erdPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingSegment, erdPath)
	}
	if err != nil {
		return nil, err
	}

	return &Recording{
		dir:      dir,
		basePath: strings.TrimSuffix(stcPath, filepath.Ext(stcPath)),
		hdr:      hdr,
		index:    index,
		cache:    newSegmentCache(o.cachedDecode),
		logger:   o.logger,
		workers:  o.workers,
	}, nil
}

// Header returns the recording header, read from the first raw-data segment.
func (r *Recording) Header() *Header { return r.hdr }

// Index returns the recording's segment index.
func (r *Recording) Index() *SegmentIndex { return r.index }

// ReadSamples reads the half-open global sample range [start, end) for the
// given channel subset and returns a len(channels) x (end-start) matrix in
// volts. Covering segments decode whole, concurrently, through the segment
// cache; repeated identical calls return identical matrices without decoding
// again. A requested range the index does not cover fails with ErrOutOfRange;
// a referenced raw-data file absent from disk fails with ErrMissingSegment.
// Samples lost to a truncated segment stay zero in the output.
func (r *Recording) ReadSamples(channels []int, start, end int64) (*Matrix, error) {
	if end <= start {
		return nil, fmt.Errorf("ktlx: invalid sample range [%d, %d)", start, end)
	}
	for _, c := range channels {
		if c < 0 || c >= r.hdr.NumChannels {
			return nil, fmt.Errorf("ktlx: channel %d outside 0..%d", c, r.hdr.NumChannels-1)
		}
	}

	first, err := r.index.locateStart(start)
	if err != nil {
		return nil, err
	}
	last, err := r.index.locateEnd(end)
	if err != nil {
		return nil, err
	}

	out := newMatrix(len(channels), int(end-start))

	type job struct {
		segment int
		locBeg  int64 // local sample range within the segment
		locEnd  int64
		dstCol  int64 // output column the range lands at
	}
	jobs := make([]job, 0, last-first+1)
	dst := int64(0)
	for seg := first; seg <= last; seg++ {
		locBeg, locEnd := int64(0), int64(r.index.Entries[seg].SampleSpan)
		if seg == first {
			locBeg = start - r.index.starts[seg]
		}
		if seg == last {
			locEnd = end - r.index.starts[seg]
		}
		jobs = append(jobs, job{seg, locBeg, locEnd, dst})
		dst += locEnd - locBeg
	}

	// Segments carry independent codec state, so they decode in parallel.
	// Each job writes a disjoint column range of the shared output.
	sem := make(chan struct{}, r.workers)
	errc := make(chan error, len(jobs))
	for _, j := range jobs {
		sem <- struct{}{}
		go func(j job) {
			defer func() { <-sem }()

			m, err := r.decodeSegment(j.segment)
			if err != nil {
				errc <- err
				return
			}
			for row, ch := range channels {
				src := m.Row(ch)
				hi := j.locEnd
				if hi > int64(len(src)) {
					hi = int64(len(src)) // segment truncated on disk
				}
				if j.locBeg < hi {
					copy(out.Row(row)[j.dstCol:j.dstCol+hi-j.locBeg], src[j.locBeg:hi])
				}
			}
			errc <- nil
		}(j)
	}
	for range jobs {
		if jerr := <-errc; jerr != nil && err == nil {
			err = jerr
		}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// decodeSegment decodes one indexed segment through the cache.
func (r *Recording) decodeSegment(segment int) (*Matrix, error) {
	entry := r.index.Entries[segment]
	path := filepath.Join(r.dir, entry.Name+".erd")
	return r.cache.get(path, func() (*Matrix, error) {
		m, err := DecodeSegment(path, int(entry.SampleSpan))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSegment, path)
		}
		return m, err
	})
}

// sidecar returns the path of a sibling file sharing the recording base name.
func (r *Recording) sidecar(ext string) string { return r.basePath + ext }

// Summary condenses a recording: identity and timing from the header, totals
// from the index, channel names and annotations from the notes file, video
// spans from the sync and video index files.
type Summary struct {
	SubjectID    string
	StartTime    time.Time
	SampleRate   float64
	ChannelNames []string
	TotalSamples int64
	Notes        []NoteRecord
	Videos       []VideoSpan
}

// Summary builds the recording summary. Auxiliary files (.ent, .snc, .vtc)
// degrade gracefully: a missing or malformed one logs a warning and leaves
// its part of the summary empty, it never fails the call.
func (r *Recording) Summary() *Summary {
	s := &Summary{
		SubjectID:    r.hdr.PatientID,
		StartTime:    r.hdr.CreationTime,
		SampleRate:   r.hdr.SampleRate,
		TotalSamples: r.index.TotalSamples(),
	}
	if s.SubjectID == "" {
		s.SubjectID = r.hdr.PatientFirstName + r.hdr.PatientMiddleName + r.hdr.PatientLastName
	}

	notes, err := ReadNotes(r.sidecar(".ent"))
	if err != nil {
		notes, err = ReadNotes(r.sidecar(".ent.old"))
	}
	if err != nil {
		r.logger.Warn("notes unavailable, channels get synthetic names", log.Err(err))
	} else {
		s.Notes = notes
	}

	s.ChannelNames = channelNamesFromNotes(s.Notes, r.hdr.NumChannels)
	if s.ChannelNames == nil {
		s.ChannelNames = syntheticChannelNames(r.hdr.NumChannels)
	}

	s.Videos, err = r.videoSpans()
	if err != nil {
		r.logger.Warn("video timing unavailable", log.Err(err))
	}
	return s
}

func (r *Recording) videoSpans() ([]VideoSpan, error) {
	points, err := ReadTimeSync(r.sidecar(".snc"))
	if err != nil {
		return nil, err
	}
	segments, err := ReadVideoIndex(r.sidecar(".vtc"))
	if err != nil {
		return nil, err
	}
	sync, err := NewTimeSync(points)
	if err != nil {
		return nil, err
	}
	return sync.MapVideo(segments, r.index.Entries[0].StartStamp), nil
}

// channelNamesFromNotes scans the notes for the montage note, the one whose
// raw text carries the ChanNames group. Structured notes never hold it.
func channelNamesFromNotes(notes []NoteRecord, numChannels int) []string {
	for _, n := range notes {
		raw, ok := n.Value.(Raw)
		if !ok {
			continue
		}
		names, err := FindChannelNames(string(raw))
		if err != nil {
			continue
		}
		if len(names) > numChannels {
			names = names[:numChannels]
		}
		return names
	}
	return nil
}

func syntheticChannelNames(numChannels int) []string {
	names := make([]string, numChannels)
	for i := range names {
		names[i] = fmt.Sprintf("chan%03d", i)
	}
	return names
}
