package editor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/trimline/trimline/internal/suggest"
	"github.com/trimline/trimline/internal/timecode"
	"github.com/trimline/trimline/internal/transcript"
)

// Store owns one editing session. All methods are safe for concurrent use and
// every read returns a detached copy.
type Store struct {
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time

	videos        []Video
	trimPoints    map[string]TrimPoint
	tracks        []Track
	activeTrack   string
	selectedVideo string
	selectedClip  string
	zoom          float64
	snapEnabled   bool

	history      []HistoryEntry
	historyIndex int

	listenersMu sync.Mutex
	listeners   map[int]func(Change)
	nextID      int
}

type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{
		logger:       logger.With("component", "editor"),
		now:          time.Now,
		trimPoints:   make(map[string]TrimPoint),
		zoom:         1.0,
		snapEnabled:  true,
		historyIndex: -1,
		listeners:    make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}

	first := Track{ID: uuid.NewString(), Name: "Track 1", Clips: []Clip{}}
	s.tracks = []Track{first}
	s.activeTrack = first.ID
	s.recordLocked("initialize", "New session")
	return s
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn runs outside the store lock.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.listenersMu.Lock()
	fns := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// mutate runs fn under the lock and records a history entry when fn
// succeeds. fn returns the entry description.
func (s *Store) mutate(action string, fn func() (string, error)) error {
	s.mu.Lock()
	desc, err := fn()
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	s.recordLocked(action, desc)
	s.mu.Unlock()

	s.notify(Change{Action: action, Description: desc})
	return nil
}

// update is mutate for changes that stay out of history.
func (s *Store) update(action string, fn func() error) error {
	s.mu.Lock()
	err := fn()
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	s.notify(Change{Action: action})
	return nil
}

// AddVideo appends v to the library. It reports whether the video was added:
// a missing path or a duplicate path leaves the library unchanged. The new
// video is selected when it is the first one or autoSelect is set.
func (s *Store) AddVideo(v Video, autoSelect bool) bool {
	if v.Path == "" {
		s.logger.Warn("add video ignored: missing path", "name", v.Name)
		return false
	}

	added := false
	_ = s.mutate("add_video", func() (string, error) {
		if s.indexOfVideoLocked(v.Path) >= 0 {
			return "", errUnchanged
		}

		nv := v.Clone()
		if nv.ID == "" {
			nv.ID = uuid.NewString()
		}
		if nv.Name == "" {
			nv.Name = filepath.Base(nv.Path)
		}
		if nv.AddedAt.IsZero() {
			nv.AddedAt = s.now()
		}
		if nv.TrimSuggestions == nil {
			nv.TrimSuggestions = []suggest.Suggestion{}
		}

		first := len(s.videos) == 0
		s.videos = append(s.videos, nv)
		if first || autoSelect {
			s.selectedVideo = nv.Path
		}
		added = true
		return fmt.Sprintf("Added %s", nv.Name), nil
	})
	return added
}

// RemoveVideo drops the video from the library. Clips referencing it stay on
// their tracks and contribute nothing to durations or exports.
func (s *Store) RemoveVideo(path string) error {
	return s.mutate("remove_video", func() (string, error) {
		i := s.indexOfVideoLocked(path)
		if i < 0 {
			return "", fmt.Errorf("%w: %s", ErrVideoNotFound, path)
		}
		name := s.videos[i].Name
		s.videos = append(s.videos[:i], s.videos[i+1:]...)
		delete(s.trimPoints, path)

		if s.selectedVideo == path {
			s.selectedVideo = ""
			if len(s.videos) > 0 {
				s.selectedVideo = s.videos[0].Path
			}
		}
		return fmt.Sprintf("Removed %s", name), nil
	})
}

func (s *Store) SelectVideo(path string) error {
	return s.update("select_video", func() error {
		if path != "" && s.indexOfVideoLocked(path) < 0 {
			return fmt.Errorf("%w: %s", ErrVideoNotFound, path)
		}
		s.selectedVideo = path
		return nil
	})
}

func (s *Store) SelectedVideo() (Video, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedVideo == "" {
		return Video{}, false
	}
	i := s.indexOfVideoLocked(s.selectedVideo)
	if i < 0 {
		return Video{}, false
	}
	return s.videos[i].Clone(), true
}

func (s *Store) Video(path string) (Video, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOfVideoLocked(path)
	if i < 0 {
		return Video{}, false
	}
	return s.videos[i].Clone(), true
}

func (s *Store) Videos() []Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneVideos(s.videos)
}

// SetVideoDuration records the media length once it is known.
func (s *Store) SetVideoDuration(path string, duration float64) error {
	return s.update("video_metadata", func() error {
		v, err := s.videoLocked(path)
		if err != nil {
			return err
		}
		v.Duration = duration
		return nil
	})
}

func (s *Store) SetTranscript(path string, t *transcript.Transcript) error {
	return s.update("transcript", func() error {
		v, err := s.videoLocked(path)
		if err != nil {
			return err
		}
		v.Transcript = t.Clone()
		return nil
	})
}

func (s *Store) SetSummary(path string, sum *transcript.Summary) error {
	return s.update("summary", func() error {
		v, err := s.videoLocked(path)
		if err != nil {
			return err
		}
		v.Summary = sum.Clone()
		return nil
	})
}

func (s *Store) SetSuggestions(path string, suggestions []suggest.Suggestion) error {
	return s.update("suggestions", func() error {
		v, err := s.videoLocked(path)
		if err != nil {
			return err
		}
		v.TrimSuggestions = append([]suggest.Suggestion{}, suggestions...)
		v.SuggestionsGenerated = true
		return nil
	})
}

// GenerateSuggestions analyses the video's transcript and stores the result.
func (s *Store) GenerateSuggestions(path string, opts suggest.Options) ([]suggest.Suggestion, error) {
	v, ok := s.Video(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, path)
	}
	if v.Transcript == nil || len(v.Transcript.Segments) == 0 {
		return nil, ErrNoTranscript
	}

	out := suggest.GenerateTrimSuggestions(*v.Transcript, opts)
	if err := s.SetSuggestions(path, out); err != nil {
		return nil, err
	}
	return out, nil
}

// TrimPoint returns the trim for path, or the defaults when none is stored.
func (s *Store) TrimPoint(path string) TrimPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trimLocked(path)
}

func (s *Store) PlaybackSpeed(path string) float64 {
	return s.TrimPoint(path).PlaybackSpeed
}

func (s *Store) SetInPoint(path string, t float64) error {
	return s.mutate("set_in_point", func() (string, error) {
		v, err := s.videoLocked(path)
		if err != nil {
			return "", err
		}
		tp := s.trimLocked(path)
		t = timecode.Clamp(t, 0, maxTime(v.Duration))
		if end := tp.End(v.Duration); (tp.OutPoint != nil || v.Duration > 0) && t >= end {
			return "", fmt.Errorf("%w: in %.3f, out %.3f", ErrInvalidTrimRange, t, end)
		}
		tp.InPoint = t
		s.trimPoints[path] = tp
		return fmt.Sprintf("Set in point to %s", timecode.FormatTimePrecise(t)), nil
	})
}

func (s *Store) SetOutPoint(path string, t float64) error {
	return s.mutate("set_out_point", func() (string, error) {
		v, err := s.videoLocked(path)
		if err != nil {
			return "", err
		}
		tp := s.trimLocked(path)
		t = timecode.Clamp(t, 0, maxTime(v.Duration))
		if t <= tp.InPoint {
			return "", fmt.Errorf("%w: in %.3f, out %.3f", ErrInvalidTrimRange, tp.InPoint, t)
		}
		tp.OutPoint = &t
		s.trimPoints[path] = tp
		return fmt.Sprintf("Set out point to %s", timecode.FormatTimePrecise(t)), nil
	})
}

// SetPlaybackSpeed stores speed clamped to [0.5, 2].
func (s *Store) SetPlaybackSpeed(path string, speed float64) error {
	return s.mutate("set_speed", func() (string, error) {
		if _, err := s.videoLocked(path); err != nil {
			return "", err
		}
		tp := s.trimLocked(path)
		tp.PlaybackSpeed = timecode.Clamp(speed, MinPlaybackSpeed, MaxPlaybackSpeed)
		s.trimPoints[path] = tp
		return fmt.Sprintf("Set speed to %.2fx", tp.PlaybackSpeed), nil
	})
}

// SetTrimPoint replaces the whole trim for path.
func (s *Store) SetTrimPoint(path string, tp TrimPoint) error {
	return s.mutate("set_trim", func() (string, error) {
		if _, err := s.videoLocked(path); err != nil {
			return "", err
		}
		tp = tp.Clone()
		if tp.InPoint < 0 {
			tp.InPoint = 0
		}
		if tp.OutPoint != nil && *tp.OutPoint <= tp.InPoint {
			return "", fmt.Errorf("%w: in %.3f, out %.3f", ErrInvalidTrimRange, tp.InPoint, *tp.OutPoint)
		}
		if tp.PlaybackSpeed == 0 {
			tp.PlaybackSpeed = 1.0
		}
		tp.PlaybackSpeed = timecode.Clamp(tp.PlaybackSpeed, MinPlaybackSpeed, MaxPlaybackSpeed)
		s.trimPoints[path] = tp
		return "Set trim", nil
	})
}

func (s *Store) ResetTrim(path string) error {
	return s.mutate("reset_trim", func() (string, error) {
		if _, err := s.videoLocked(path); err != nil {
			return "", err
		}
		if _, ok := s.trimPoints[path]; !ok {
			return "", errUnchanged
		}
		delete(s.trimPoints, path)
		return "Reset trim", nil
	})
}

// EffectiveDuration is (out point or duration) minus in point, computed from
// the current state on every call.
func (s *Store) EffectiveDuration(path string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.videoLocked(path)
	if err != nil {
		return 0, err
	}
	tp := s.trimLocked(path)
	return tp.End(v.Duration) - tp.InPoint, nil
}

// SplitClip cuts the trimmed range of a video at splitTime into two new
// split videos. The source video and its clips are left alone.
func (s *Store) SplitClip(path string, splitTime float64) ([2]Video, error) {
	var parts [2]Video
	err := s.mutate("split", func() (string, error) {
		v, err := s.videoLocked(path)
		if err != nil {
			return "", err
		}
		tp := s.trimLocked(path)
		start, end := tp.InPoint, tp.End(v.Duration)
		if splitTime <= start || splitTime >= end {
			return "", fmt.Errorf("%w: %.3f not in (%.3f, %.3f)", ErrSplitOutOfBounds, splitTime, start, end)
		}

		ranges := [2][2]float64{{start, splitTime}, {splitTime, end}}
		src := *v
		for i, r := range ranges {
			p := Video{
				ID:              uuid.NewString(),
				Path:            "split:" + uuid.NewString(),
				Name:            fmt.Sprintf("%s (Part %d)", src.Name, i+1),
				Duration:        src.Duration,
				Size:            src.Size,
				MimeType:        src.MimeType,
				AddedAt:         s.now(),
				TrimSuggestions: []suggest.Suggestion{},
				IsSplit:         true,
				OriginalPath:    src.SourcePath(),
				SplitIndex:      i + 1,
			}
			out := r[1]
			s.trimPoints[p.Path] = TrimPoint{InPoint: r[0], OutPoint: &out, PlaybackSpeed: tp.PlaybackSpeed}
			s.videos = append(s.videos, p)
			parts[i] = p.Clone()
		}
		return fmt.Sprintf("Split %s at %s", src.Name, timecode.FormatTimePrecise(splitTime)), nil
	})
	return parts, err
}

// Snapshot returns a detached copy of the whole session.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Videos:        cloneVideos(s.videos),
		Tracks:        s.cloneTracks(s.tracks),
		TrimPoints:    cloneTrimPoints(s.trimPoints),
		SelectedVideo: s.selectedVideo,
		SelectedClip:  s.selectedClip,
		ActiveTrack:   s.activeTrack,
		Zoom:          s.zoom,
		SnapEnabled:   s.snapEnabled,
		CanUndo:       s.historyIndex > 0,
		CanRedo:       s.historyIndex < len(s.history)-1,
	}
}

func (s *Store) indexOfVideoLocked(path string) int {
	for i := range s.videos {
		if s.videos[i].Path == path {
			return i
		}
	}
	return -1
}

func (s *Store) videoLocked(path string) (*Video, error) {
	i := s.indexOfVideoLocked(path)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, path)
	}
	return &s.videos[i], nil
}

func (s *Store) trimLocked(path string) TrimPoint {
	if tp, ok := s.trimPoints[path]; ok {
		return tp.Clone()
	}
	return DefaultTrimPoint()
}

func maxTime(duration float64) float64 {
	if duration > 0 {
		return duration
	}
	return float64(1 << 31)
}

func cloneVideos(in []Video) []Video {
	out := make([]Video, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}

func cloneTrimPoints(in map[string]TrimPoint) map[string]TrimPoint {
	out := make(map[string]TrimPoint, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func (s *Store) cloneTracks(in []Track) []Track {
	var out []Track
	if err := copier.CopyWithOption(&out, in, copier.Option{DeepCopy: true}); err != nil {
		s.logger.Error("copy tracks", "error", err)
	}
	if out == nil {
		out = []Track{}
	}
	for i := range out {
		if out[i].Clips == nil {
			out[i].Clips = []Clip{}
		}
	}
	return out
}
