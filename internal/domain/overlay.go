package domain

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// Reprojector converts polyline vertices between coordinate reference
// systems. The projection adapter provides the GDAL-backed implementation;
// tests supply fakes or keep mask and roads in the same CRS.
type Reprojector interface {
	Reproject(line orb.LineString, fromEPSG, toEPSG int) (orb.LineString, error)
}

// OverlayConfig carries the per-run knobs for Analyze. No ambient or global
// configuration is consulted.
type OverlayConfig struct {
	// DensifyStepM is the sub-segment sampling step in meters. Analyze
	// clamps it to one pixel's ground size so sampling never undershoots
	// the grid.
	DensifyStepM float64

	// Reprojector resolves a CRS mismatch between mask and roads. May be
	// nil when the caller guarantees matching CRSs.
	Reprojector Reprojector
}

var errNoReprojector = errors.New("no reprojector available")

// Analyze derives flood-impact metrics from a mask and a road network. It
// is a pure function of its inputs: no state survives the call and repeated
// runs over identical inputs produce identical results.
//
// Degenerate segments are skipped and reported in AnalysisResult.Skipped;
// a CRS mismatch that cannot be reprojected is a fatal *ProjectionError.
func Analyze(mask *FloodMask, roads RoadNetwork, cfg OverlayConfig) (AnalysisResult, error) {
	pxW, pxH := mask.PixelSizeMeters()
	pixelArea := pxW * pxH

	step := cfg.DensifyStepM
	if minPx := math.Min(pxW, pxH); step <= 0 || step > minPx {
		step = minPx
	}

	aligned, err := roads.InCRS(mask.CRS(), cfg.Reprojector)
	if err != nil {
		return AnalysisResult{}, err
	}

	length := planar.Length
	distance := planar.Distance
	if mask.CRS().Geographic {
		length = geo.Length
		distance = geo.Distance
	}

	res := AnalysisResult{
		FloodedPixels: mask.FloodedPixels(),
		PixelAreaM2:   pixelArea,
		FloodedAreaM2: float64(mask.FloodedPixels()) * pixelArea,
	}

	transform := mask.Transform()
	var total, flooded float64
	for _, seg := range aligned.Segments {
		if len(seg.Line) < 2 {
			res.Skipped = append(res.Skipped, &GeometryError{SegmentID: seg.ID, Reason: "fewer than two vertices"})
			continue
		}
		segLen := length(seg.Line)
		if segLen == 0 {
			res.Skipped = append(res.Skipped, &GeometryError{SegmentID: seg.ID, Reason: "zero length"})
			continue
		}
		total += segLen

		for i := 0; i+1 < len(seg.Line); i++ {
			a, b := seg.Line[i], seg.Line[i+1]
			span := distance(a, b)
			if span == 0 {
				continue
			}
			n := int(math.Ceil(span / step))
			sub := span / float64(n)
			for k := 0; k < n; k++ {
				t := (float64(k) + 0.5) / float64(n)
				mid := orb.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
				col, row := transform.Locate(mid[0], mid[1])
				if mask.FloodedAt(col, row) {
					flooded += sub
				}
			}
		}
	}

	// Sub-segment sums can drift a few ulps past the exact polyline length.
	if flooded > total {
		flooded = total
	}

	res.TotalRoadLengthM = total
	res.FloodedRoadLengthM = flooded
	return res, nil
}

// ReprojectBound converts a bounding box between CRSs by reprojecting its
// four corners and taking their envelope.
func ReprojectBound(rp Reprojector, b orb.Bound, fromEPSG, toEPSG int) (orb.Bound, error) {
	if fromEPSG == toEPSG {
		return b, nil
	}
	if rp == nil {
		return orb.Bound{}, &ProjectionError{FromEPSG: fromEPSG, ToEPSG: toEPSG, Err: errNoReprojector}
	}

	corners := orb.LineString{
		{b.Min[0], b.Min[1]},
		{b.Min[0], b.Max[1]},
		{b.Max[0], b.Max[1]},
		{b.Max[0], b.Min[1]},
	}
	projected, err := rp.Reproject(corners, fromEPSG, toEPSG)
	if err != nil {
		return orb.Bound{}, &ProjectionError{FromEPSG: fromEPSG, ToEPSG: toEPSG, Err: err}
	}
	return projected.Bound(), nil
}
