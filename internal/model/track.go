package model

// Track is a single downloadable audio track.
//
// Tracks are created from a metadata response and never mutated afterwards.
// ID is unique within one Result and keys the per-item status map.
type Track struct {
	// ID is the opaque, stable identifier reported by the backend.
	ID string

	// Name is the track title.
	Name string

	// Artist is a display string; multiple artists are already joined.
	Artist string

	// Album is the album title, when the backend reports one.
	Album string

	// Cover is an image URL. Empty when no artwork is available.
	Cover string

	// SourceURL is the locator sent to the backend to request a download.
	SourceURL string
}

// HasCover reports whether the track carries cover art.
func (t Track) HasCover() bool {
	return t.Cover != ""
}

// DisplayName returns "Artist - Name", or just the name when the artist is unknown.
func (t Track) DisplayName() string {
	if t.Artist == "" {
		return t.Name
	}
	return t.Artist + " - " + t.Name
}
