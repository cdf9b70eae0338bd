package model

// Track describes one library track as returned by the library script
type Track struct {
	ID     string `json:"id"` // Apple Music persistent ID
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

// Names returns the track names in order.
func Names(tracks []Track) []string {
	names := make([]string, 0, len(tracks))
	for _, t := range tracks {
		names = append(names, t.Name)
	}
	return names
}

// ActionResult is the uniform result of every action. Status is the HTTP status
// the action maps to and is not part of the body.
type ActionResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Match   *MatchDetail `json:"match,omitempty"`
	Status  int          `json:"-"`
}

// MatchDetail describes how a play request was resolved
type MatchDetail struct {
	Kind        string   `json:"kind"` // "exact", "fuzzy" or "not_found"
	Track       string   `json:"track,omitempty"`
	Artist      string   `json:"artist,omitempty"`
	MatchedWord string   `json:"matched_word,omitempty"`
	Available   []string `json:"available,omitempty"`
}
