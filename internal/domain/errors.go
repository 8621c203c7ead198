package domain

import "fmt"

// InputError reports an unreadable or malformed raster input. It is fatal:
// the run aborts before any overlay work happens.
type InputError struct {
	Path   string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("input %s: %s", e.Path, e.Reason)
}

func (e *InputError) Unwrap() error { return e.Err }

// FetchError reports an unreachable or timed-out external source (road or
// flood-warning API). It is fatal and is never retried automatically; the
// caller re-invokes the run.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// GeometryError reports a single malformed road segment. It is recoverable:
// the segment is skipped, the skip is logged, and the run continues with
// reduced road coverage.
type GeometryError struct {
	SegmentID string
	Reason    string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("segment %s: %s", e.SegmentID, e.Reason)
}

// ProjectionError reports a CRS mismatch between the mask and the road
// network that could not be resolved by reprojection. Fatal.
type ProjectionError struct {
	FromEPSG int
	ToEPSG   int
	Err      error
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("reproject EPSG:%d to EPSG:%d: %v", e.FromEPSG, e.ToEPSG, e.Err)
}

func (e *ProjectionError) Unwrap() error { return e.Err }

// IOError reports a failure persisting the analysis result. Fatal.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
