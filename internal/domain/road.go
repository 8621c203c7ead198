package domain

import "github.com/paulmach/orb"

// DefaultRoadClasses is the OSM highway whitelist used when configuration
// does not override it.
var DefaultRoadClasses = []string{"motorway", "trunk", "primary", "secondary"}

// RoadSegment is one OSM way: an ordered polyline with a classification tag
// and a stable identifier. Treated as immutable geometry.
type RoadSegment struct {
	ID    string
	Class string
	Line  orb.LineString
}

// Bound returns the segment's bounding box.
func (s RoadSegment) Bound() orb.Bound {
	return s.Line.Bound()
}

// RoadNetwork is the set of road segments inside an area of interest,
// unique by ID, with vertices expressed in CRS. Built once per run.
type RoadNetwork struct {
	CRS      CRS
	Segments []RoadSegment
}

// NewRoadNetwork builds a network from segments, dropping duplicate IDs
// while preserving first-seen order so repeated runs stay deterministic.
func NewRoadNetwork(crs CRS, segments []RoadSegment) RoadNetwork {
	seen := make(map[string]struct{}, len(segments))
	out := make([]RoadSegment, 0, len(segments))
	for _, s := range segments {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return RoadNetwork{CRS: crs, Segments: out}
}

// Empty reports whether the network has no segments.
func (n RoadNetwork) Empty() bool { return len(n.Segments) == 0 }

// InCRS returns the network re-expressed in the target CRS, reprojecting
// every segment when the systems differ. rp may be nil when they already
// match; a mismatch without a reprojector is a *ProjectionError.
func (n RoadNetwork) InCRS(to CRS, rp Reprojector) (RoadNetwork, error) {
	if n.CRS.EPSG == to.EPSG {
		return n, nil
	}
	if rp == nil {
		return RoadNetwork{}, &ProjectionError{FromEPSG: n.CRS.EPSG, ToEPSG: to.EPSG, Err: errNoReprojector}
	}

	segments := make([]RoadSegment, len(n.Segments))
	for i, s := range n.Segments {
		line, err := rp.Reproject(s.Line, n.CRS.EPSG, to.EPSG)
		if err != nil {
			return RoadNetwork{}, &ProjectionError{FromEPSG: n.CRS.EPSG, ToEPSG: to.EPSG, Err: err}
		}
		segments[i] = RoadSegment{ID: s.ID, Class: s.Class, Line: line}
	}
	return RoadNetwork{CRS: to, Segments: segments}, nil
}
