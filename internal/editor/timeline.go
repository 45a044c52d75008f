package editor

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/trimline/trimline/internal/timecode"
)

func (s *Store) Tracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneTracks(s.tracks)
}

func (s *Store) ActiveTrack() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTrack
}

func (s *Store) SetActiveTrack(id string) error {
	return s.update("set_active_track", func() error {
		if s.indexOfTrackLocked(id) < 0 {
			return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
		}
		s.activeTrack = id
		return nil
	})
}

// AddTrack appends an empty track. An empty name becomes "Track N".
func (s *Store) AddTrack(name string) Track {
	var t Track
	_ = s.mutate("add_track", func() (string, error) {
		if name == "" {
			name = fmt.Sprintf("Track %d", len(s.tracks)+1)
		}
		t = Track{ID: uuid.NewString(), Name: name, Clips: []Clip{}}
		s.tracks = append(s.tracks, t)
		return fmt.Sprintf("Added %s", name), nil
	})
	return t
}

// RemoveTrack deletes a track and its clips. The last track cannot be
// removed. When the active track goes, the first remaining one takes over.
func (s *Store) RemoveTrack(id string) error {
	return s.mutate("remove_track", func() (string, error) {
		i := s.indexOfTrackLocked(id)
		if i < 0 {
			return "", fmt.Errorf("%w: %s", ErrTrackNotFound, id)
		}
		if len(s.tracks) == 1 {
			s.logger.Warn("refusing to remove last track", "track_id", id)
			return "", ErrLastTrack
		}

		removed := s.tracks[i]
		s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
		for _, c := range removed.Clips {
			if c.ID == s.selectedClip {
				s.selectedClip = ""
			}
		}
		if s.activeTrack == id {
			s.activeTrack = s.tracks[0].ID
		}
		return fmt.Sprintf("Removed %s", removed.Name), nil
	})
}

// AddClipToTrack places a video on a track. Trim fields missing from spec are
// filled from the video's trim point and the cached duration is derived from
// them.
func (s *Store) AddClipToTrack(trackID string, spec ClipSpec) (Clip, error) {
	var c Clip
	err := s.mutate("add_clip", func() (string, error) {
		ti := s.indexOfTrackLocked(trackID)
		if ti < 0 {
			return "", fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
		}
		v, err := s.videoLocked(spec.VideoPath)
		if err != nil {
			return "", err
		}

		tp := s.trimLocked(spec.VideoPath)
		in := tp.InPoint
		if spec.InPoint != nil {
			in = *spec.InPoint
		}
		out := tp.OutPoint
		if spec.OutPoint != nil {
			o := *spec.OutPoint
			out = &o
		}
		if out != nil && *out <= in {
			return "", fmt.Errorf("%w: in %.3f, out %.3f", ErrInvalidTrimRange, in, *out)
		}

		c = Clip{
			ID:        uuid.NewString(),
			VideoPath: spec.VideoPath,
			StartTime: math.Max(spec.StartTime, 0),
			InPoint:   in,
			OutPoint:  out,
		}
		c.Duration = clipDuration(c, v)
		s.tracks[ti].Clips = append(s.tracks[ti].Clips, c)
		c = cloneClip(c)
		return fmt.Sprintf("Added %s to %s", v.Name, s.tracks[ti].Name), nil
	})
	return c, err
}

func (s *Store) RemoveClipFromTrack(trackID, clipID string) error {
	return s.mutate("remove_clip", func() (string, error) {
		ti, ci, err := s.clipIndexLocked(trackID, clipID)
		if err != nil {
			return "", err
		}
		clips := s.tracks[ti].Clips
		s.tracks[ti].Clips = append(clips[:ci], clips[ci+1:]...)
		if s.selectedClip == clipID {
			s.selectedClip = ""
		}
		return "Removed clip", nil
	})
}

// UpdateClipPosition moves a clip on its track. Snapping is the caller's
// job; negative positions are pinned to zero.
func (s *Store) UpdateClipPosition(trackID, clipID string, startTime float64) error {
	return s.mutate("move_clip", func() (string, error) {
		ti, ci, err := s.clipIndexLocked(trackID, clipID)
		if err != nil {
			return "", err
		}
		startTime = math.Max(startTime, 0)
		s.tracks[ti].Clips[ci].StartTime = startTime
		return fmt.Sprintf("Moved clip to %s", timecode.FormatTimePrecise(startTime)), nil
	})
}

// MoveClipToTrack moves a clip onto another track at startTime.
func (s *Store) MoveClipToTrack(fromTrackID, clipID, toTrackID string, startTime float64) error {
	return s.mutate("move_clip", func() (string, error) {
		ti, ci, err := s.clipIndexLocked(fromTrackID, clipID)
		if err != nil {
			return "", err
		}
		dst := s.indexOfTrackLocked(toTrackID)
		if dst < 0 {
			return "", fmt.Errorf("%w: %s", ErrTrackNotFound, toTrackID)
		}

		c := s.tracks[ti].Clips[ci]
		c.StartTime = math.Max(startTime, 0)
		s.tracks[ti].Clips = append(s.tracks[ti].Clips[:ci], s.tracks[ti].Clips[ci+1:]...)
		s.tracks[dst].Clips = append(s.tracks[dst].Clips, c)
		return fmt.Sprintf("Moved clip to %s", s.tracks[dst].Name), nil
	})
}

func (s *Store) SelectClip(clipID string) error {
	return s.update("select_clip", func() error {
		if clipID != "" {
			if _, _, err := s.findClipLocked(clipID); err != nil {
				return err
			}
		}
		s.selectedClip = clipID
		return nil
	})
}

// ClipDuration is the clip's current effective length. A clip whose video is
// gone has zero length.
func (s *Store) ClipDuration(c Clip) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clipDurationLocked(c)
}

// TotalDuration is the end of the last clip across all tracks.
func (s *Store) TotalDuration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, t := range s.tracks {
		for _, c := range t.Clips {
			total = math.Max(total, c.StartTime+s.clipDurationLocked(c))
		}
	}
	return total
}

func (s *Store) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

func (s *Store) ZoomIn() float64 {
	return s.zoomBy(func(z float64) float64 { return z + ZoomStep })
}

func (s *Store) ZoomOut() float64 {
	return s.zoomBy(func(z float64) float64 { return z - ZoomStep })
}

func (s *Store) ResetZoom() float64 {
	return s.SetZoom(1.0)
}

// SetZoom clamps level to [0.25, 4] and returns the stored value.
func (s *Store) SetZoom(level float64) float64 {
	return s.zoomBy(func(float64) float64 { return level })
}

// zoomBy reads and writes the zoom level under one lock.
func (s *Store) zoomBy(next func(float64) float64) float64 {
	var z float64
	_ = s.update("zoom", func() error {
		s.zoom = timecode.Clamp(next(s.zoom), MinZoom, MaxZoom)
		z = s.zoom
		return nil
	})
	return z
}

func (s *Store) SetSnapEnabled(enabled bool) {
	_ = s.update("snap", func() error {
		s.snapEnabled = enabled
		return nil
	})
}

// SnapToGrid rounds t to the snap interval when snapping is on.
func (s *Store) SnapToGrid(t float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapToGridLocked(t)
}

// SnapToEdge finds the clip edge on the track nearest to t within the snap
// threshold, ignoring excludeClipID.
func (s *Store) SnapToEdge(t float64, trackID, excludeClipID string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapToEdgeLocked(t, trackID, excludeClipID)
}

// SnapPosition tries an edge first and falls back to the grid.
func (s *Store) SnapPosition(t float64, trackID, excludeClipID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if edge, ok := s.snapToEdgeLocked(t, trackID, excludeClipID); ok {
		return edge
	}
	return math.Max(s.snapToGridLocked(t), 0)
}

func (s *Store) snapToGridLocked(t float64) float64 {
	if !s.snapEnabled {
		return t
	}
	return math.Round(t/SnapInterval) * SnapInterval
}

func (s *Store) snapToEdgeLocked(t float64, trackID, excludeClipID string) (float64, bool) {
	ti := s.indexOfTrackLocked(trackID)
	if ti < 0 {
		return 0, false
	}

	best, bestDist, found := 0.0, SnapThreshold, false
	for _, c := range s.tracks[ti].Clips {
		if c.ID == excludeClipID {
			continue
		}
		for _, edge := range []float64{c.StartTime, c.StartTime + s.clipDurationLocked(c)} {
			if d := math.Abs(edge - t); d <= bestDist {
				best, bestDist, found = edge, d, true
			}
		}
	}
	return best, found
}

func (s *Store) clipDurationLocked(c Clip) float64 {
	i := s.indexOfVideoLocked(c.VideoPath)
	if i < 0 {
		return 0
	}
	return clipDuration(c, &s.videos[i])
}

func clipDuration(c Clip, v *Video) float64 {
	end := v.Duration
	if c.OutPoint != nil {
		end = *c.OutPoint
	}
	return math.Max(end-c.InPoint, 0)
}

func cloneClip(c Clip) Clip {
	if c.OutPoint != nil {
		o := *c.OutPoint
		c.OutPoint = &o
	}
	return c
}

func (s *Store) indexOfTrackLocked(id string) int {
	for i := range s.tracks {
		if s.tracks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) clipIndexLocked(trackID, clipID string) (int, int, error) {
	ti := s.indexOfTrackLocked(trackID)
	if ti < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	}
	for ci, c := range s.tracks[ti].Clips {
		if c.ID == clipID {
			return ti, ci, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
}

func (s *Store) findClipLocked(clipID string) (int, int, error) {
	for ti, t := range s.tracks {
		for ci, c := range t.Clips {
			if c.ID == clipID {
				return ti, ci, nil
			}
		}
	}
	return 0, 0, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
}
