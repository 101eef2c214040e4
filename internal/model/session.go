package model

import "time"

// PageState is what one page remembers between interactions.
type PageState struct {
	Generated         bool    `json:"generated"`
	BinaryPath        *string `json:"binary_path,omitempty"`
	AsciiPath         *string `json:"ascii_path,omitempty"`
	ViewPath          string  `json:"view_path,omitempty"`
	Description       string  `json:"description,omitempty"`
	Summary           string  `json:"summary,omitempty"`
	AssistantResponse string  `json:"assistant_response,omitempty"`
}

func (s *PageState) Reset() {
	*s = PageState{}
}

// MarkGenerated records a finished generation. Empty paths stay unset.
func (s *PageState) MarkGenerated(binaryPath, asciiPath, viewPath string) {
	s.Generated = true
	s.BinaryPath = optional(binaryPath)
	s.AsciiPath = optional(asciiPath)
	s.ViewPath = viewPath
}

// PathFor returns the exported file for a single encoding.
func (s *PageState) PathFor(f Format) (string, bool) {
	var p *string
	switch f {
	case FormatBinary:
		p = s.BinaryPath
	case FormatASCII:
		p = s.AsciiPath
	}
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// Flash is a one-shot message shown on the next page render.
type Flash struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// SessionState is everything one browser session remembers.
type SessionState struct {
	ID         string                `json:"id"`
	ActivePage PageID                `json:"active_page"`
	Format     Format                `json:"format"`
	Pages      map[PageID]*PageState `json:"pages"`
	Uploads    []string              `json:"uploads,omitempty"`
	Flash      *Flash                `json:"flash,omitempty"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

func NewSessionState(id string, format Format) *SessionState {
	s := &SessionState{
		ID:         id,
		ActivePage: PageGenerate,
		Format:     format,
	}
	s.ensurePages()
	return s
}

func (s *SessionState) ensurePages() {
	if s.Pages == nil {
		s.Pages = make(map[PageID]*PageState, len(Pages))
	}
	for _, p := range Pages {
		if s.Pages[p] == nil {
			s.Pages[p] = &PageState{}
		}
	}
}

// Page returns the record for p, creating it if a decoded state lacks it.
func (s *SessionState) Page(p PageID) *PageState {
	s.ensurePages()
	return s.Pages[p]
}

// SwitchPage makes p active. Moving to a different page clears the page being left
// and the page being entered, so neither carries a stale model. It reports whether
// anything changed.
func (s *SessionState) SwitchPage(p PageID) bool {
	if s.ActivePage == p {
		return false
	}
	if s.ActivePage != "" {
		s.Page(s.ActivePage).Reset()
	}
	s.Page(p).Reset()
	s.ActivePage = p
	return true
}

// AddUploads remembers saved upload paths once each.
func (s *SessionState) AddUploads(paths ...string) {
	seen := make(map[string]struct{}, len(s.Uploads))
	for _, p := range s.Uploads {
		seen[p] = struct{}{}
	}
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		s.Uploads = append(s.Uploads, p)
	}
}

func (s *SessionState) SetFlash(level, text string) {
	s.Flash = &Flash{Level: level, Text: text}
}

func (s *SessionState) PopFlash() *Flash {
	f := s.Flash
	s.Flash = nil
	return f
}
