// Package filecompressor is the public orchestration layer: it takes a
// resolved config.Config and drives dedup, the primitive codecs (direct
// or through the worker pool), encryption, and the progressive/split
// containers in the order spec.md §4.11 defines, source → [dedup] →
// [codec or parallel driver] → [encryption] → [progressive | split |
// raw] → sink. Grounded on the teacher's pkg/godelta progress-event
// shape, generalized from a multi-file archive job to a single-stream
// compression job.
package filecompressor

import (
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// EventType identifies a stage of the pipeline reporting progress.
type EventType int

const (
	EventStart EventType = iota
	EventStageStart
	EventStageProgress
	EventStageComplete
	EventComplete
	EventError
)

// ProgressEvent is a generic progress notification, works for both
// compression and decompression jobs.
type ProgressEvent struct {
	Type    EventType
	Stage   string
	Current int64
	Total   int64
	Err     error
}

// ProgressCallback receives ProgressEvents. A nil callback means no
// caller is listening; the orchestrator never touches stdout/stderr
// itself — that is the CLI adapter's job.
type ProgressCallback func(ProgressEvent)

func emit(cb ProgressCallback, ev ProgressEvent) {
	if cb != nil {
		cb(ev)
	}
}

// ProgressBarCallback builds a ProgressCallback that renders one mpb.Bar
// per pipeline stage, grounded on the teacher's pkg/godelta.ProgressBarCallback
// (overall bar plus per-item bars). Callers must call Wait() on the
// returned *mpb.Progress once the job finishes.
func ProgressBarCallback() (ProgressCallback, *mpb.Progress) {
	progress := mpb.New(mpb.WithWidth(60), mpb.WithRefreshRate(100))
	var stageBar *mpb.Bar

	cb := func(ev ProgressEvent) {
		switch ev.Type {
		case EventStageStart:
			stageBar = progress.AddBar(0,
				mpb.PrependDecorators(decor.Name(ev.Stage, decor.WC{C: decor.DindentRight | decor.DextraSpace})),
				mpb.AppendDecorators(decor.Elapsed(decor.ET_STYLE_GO)),
				mpb.BarRemoveOnComplete(),
			)
		case EventStageComplete:
			if stageBar != nil {
				stageBar.SetCurrent(stageBar.Current() + 1)
				stageBar = nil
			}
		}
	}
	return cb, progress
}
