package editor

// recordLocked appends a snapshot of the current state, dropping any redo
// entries and the oldest entry past MaxHistory.
func (s *Store) recordLocked(action, description string) {
	entry := HistoryEntry{
		Action:      action,
		Description: description,
		Timestamp:   s.now(),
		state:       s.captureLocked(),
	}

	s.history = append(s.history[:s.historyIndex+1], entry)
	if len(s.history) > MaxHistory {
		s.history = s.history[len(s.history)-MaxHistory:]
	}
	s.historyIndex = len(s.history) - 1
}

func (s *Store) captureLocked() state {
	return state{
		videos:        cloneVideos(s.videos),
		tracks:        s.cloneTracks(s.tracks),
		trimPoints:    cloneTrimPoints(s.trimPoints),
		selectedVideo: s.selectedVideo,
		selectedClip:  s.selectedClip,
	}
}

// restoreLocked installs a history state directly, so a replay never writes
// history of its own. Metadata and analysis results
// written outside history (duration, transcript, summary, suggestions) are
// kept for videos that still exist.
func (s *Store) restoreLocked(st state) {
	live := make(map[string]Video, len(s.videos))
	for _, v := range s.videos {
		live[v.Path] = v
	}

	videos := cloneVideos(st.videos)
	for i := range videos {
		cur, ok := live[videos[i].Path]
		if !ok {
			continue
		}
		videos[i].Duration = cur.Duration
		videos[i].Transcript = cur.Transcript.Clone()
		videos[i].Summary = cur.Summary.Clone()
		videos[i].TrimSuggestions = cur.Clone().TrimSuggestions
		videos[i].SuggestionsGenerated = cur.SuggestionsGenerated
	}

	s.videos = videos
	s.tracks = s.cloneTracks(st.tracks)
	s.trimPoints = cloneTrimPoints(st.trimPoints)
	s.selectedVideo = st.selectedVideo
	s.selectedClip = st.selectedClip

	if s.indexOfTrackLocked(s.activeTrack) < 0 && len(s.tracks) > 0 {
		s.activeTrack = s.tracks[0].ID
	}
}

// Undo steps back one history entry and reports whether it did.
func (s *Store) Undo() bool {
	return s.step(-1, "undo")
}

// Redo steps forward one history entry and reports whether it did.
func (s *Store) Redo() bool {
	return s.step(1, "redo")
}

func (s *Store) step(delta int, action string) bool {
	s.mu.Lock()
	target := s.historyIndex + delta
	if target < 0 || target >= len(s.history) {
		s.mu.Unlock()
		return false
	}

	// Undo reverts the entry at the current index; redo re-applies the next.
	desc := s.history[target].Description
	if delta < 0 {
		desc = s.history[s.historyIndex].Description
	}
	s.historyIndex = target
	s.restoreLocked(s.history[target].state)
	s.mu.Unlock()

	s.notify(Change{Action: action, Description: desc, Replay: true})
	return true
}

func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyIndex > 0
}

func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyIndex < len(s.history)-1
}

// History lists the recorded entries oldest first with the current index.
func (s *Store) History() ([]HistoryEntry, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryEntry, len(s.history))
	for i, h := range s.history {
		out[i] = HistoryEntry{Action: h.Action, Description: h.Description, Timestamp: h.Timestamp}
	}
	return out, s.historyIndex
}
