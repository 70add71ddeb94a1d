package curve

import "chart-systemv1/internal/model"

// SegmentBySession splits the point series into contiguous same-session runs
// and builds one sub-path per run. A session boundary always forces a path
// break, even when the adjacent samples are numerically contiguous: visual
// continuity there would misrepresent the gap between a session close and
// trading resuming at a different price. No segment ever spans two tags.
//
// sessions[i] tags points[i]; the two slices must be the same length.
// Opacity is left at 1 for every segment — the compositor applies the
// session emphasis rule afterwards.
func SegmentBySession(points []model.Point, sessions []model.SessionTag, tensionHint float64) []model.PathSegment {
	if len(points) == 0 || len(points) != len(sessions) {
		return nil
	}

	var segs []model.PathSegment
	start := 0
	for i := 1; i <= len(points); i++ {
		if i < len(points) && sessions[i] == sessions[start] {
			continue
		}
		run := points[start:i]
		segs = append(segs, model.PathSegment{
			Session: sessions[start],
			Path:    BuildPath(run, tensionHint),
			Points:  append([]model.Point(nil), run...),
			Opacity: 1,
		})
		start = i
	}
	return segs
}
