// Package session holds the currently loaded classification and the
// user-editable site metadata layered on top of it.
package session

import (
	"sync"
	"time"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/diag"
	"github.com/hydroflow/hydroflow/pkg/errors"
)

// Store is the mutable session state shared between the CLI commands and
// the interactive surfaces. All methods are safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	file *model.ClassifiedFile
	diag *diag.Channel
}

// NewStore returns an empty store. Events raised by metadata edits go to
// ch; a nil channel disables them.
func NewStore(ch *diag.Channel) *Store {
	if ch == nil {
		ch = diag.NewChannel(0)
	}
	return &Store{diag: ch}
}

// Load replaces the session contents with a freshly classified file.
func (s *Store) Load(file *model.ClassifiedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = file
}

// Current returns the loaded file, or an error when nothing is loaded.
// Callers share the returned pointer; edits go through the Update methods.
func (s *Store) Current() (*model.ClassifiedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.file == nil {
		return nil, errors.New(errors.CodeNoFileLoaded, "no file loaded")
	}
	return s.file, nil
}

// Reset clears the session.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = nil
}

// UpdateSiteID overrides the site identifier detected during
// classification. Blank values are rejected so the FDV header never ends
// up with an empty identifier line.
func (s *Store) UpdateSiteID(id string) error {
	if id == "" {
		return errors.EmptyField("site id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New(errors.CodeNoFileLoaded, "no file loaded")
	}
	s.file.SiteID = id
	return nil
}

// UpdateSiteName overrides the human-readable site name.
func (s *Store) UpdateSiteName(name string) error {
	if name == "" {
		return errors.EmptyField("site name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New(errors.CodeNoFileLoaded, "no file loaded")
	}
	s.file.SiteName = name
	return nil
}

// UpdateTimestamps narrows (or widens) the export window. End must not
// precede start; a window reaching outside the data range is accepted with
// a warning, since operators regularly pad survey windows to whole days.
func (s *Store) UpdateTimestamps(start, end time.Time) error {
	if end.Before(start) {
		return errors.New(errors.CodeInvalidRange, "end timestamp must not precede start").
			WithContext("start", start.Format(model.TimeLayout)).
			WithContext("end", end.Format(model.TimeLayout))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New(errors.CodeNoFileLoaded, "no file loaded")
	}
	if s.file.Frame != nil && s.file.Frame.Len() > 0 {
		first := s.file.Frame.Timestamps[0]
		last := s.file.Frame.Timestamps[s.file.Frame.Len()-1]
		if start.Before(first) || end.After(last) {
			s.diag.Warnf("export window %s..%s extends beyond the data range %s..%s",
				start.Format(model.TimeLayout), end.Format(model.TimeLayout),
				first.Format(model.TimeLayout), last.Format(model.TimeLayout))
		}
	}
	s.file.StartTimestamp = start
	s.file.EndTimestamp = end
	return nil
}
