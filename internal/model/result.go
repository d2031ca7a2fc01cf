package model

import "fmt"

// Kind tags the two shapes a Result can take.
type Kind int

const (
	// KindTrack is a single track. It never carries a track list.
	KindTrack Kind = iota

	// KindCollection is an album or playlist with an ordered track list.
	KindCollection
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindCollection:
		return "collection"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// CollectionInfo holds the collection-level fields of a Result.
type CollectionInfo struct {
	// Type is the backend's sub-kind, "album" or "playlist".
	Type string

	ID        string
	Name      string
	Artist    string
	Cover     string
	SourceURL string
}

// Result is the entity produced by a successful metadata fetch.
//
// The zero value is not useful; build one with NewTrackResult or
// NewCollectionResult. The track list is unexported so a track-kind result
// can never carry one.
type Result struct {
	kind       Kind
	track      Track
	collection CollectionInfo
	tracks     []Track
}

// NewTrackResult wraps a single track.
func NewTrackResult(t Track) *Result {
	return &Result{kind: KindTrack, track: t}
}

// NewCollectionResult builds a collection result. The track slice is copied.
// Tracks without cover art inherit the collection cover.
func NewCollectionResult(info CollectionInfo, tracks []Track) *Result {
	items := make([]Track, len(tracks))
	for i, t := range tracks {
		if t.Cover == "" {
			t.Cover = info.Cover
		}
		items[i] = t
	}
	if info.Type == "" {
		info.Type = "collection"
	}
	return &Result{kind: KindCollection, collection: info, tracks: items}
}

// Kind returns which variant the result is.
func (r *Result) Kind() Kind { return r.kind }

// IsCollection reports whether the result is an album or playlist.
func (r *Result) IsCollection() bool { return r.kind == KindCollection }

// Type returns the backend sub-kind: "track", "album" or "playlist".
func (r *Result) Type() string {
	if r.kind == KindTrack {
		return "track"
	}
	return r.collection.Type
}

// ID returns the identity used for history de-duplication.
func (r *Result) ID() string {
	if r.kind == KindTrack {
		return r.track.ID
	}
	if r.collection.ID != "" {
		return r.collection.ID
	}
	return r.collection.SourceURL
}

// Name returns the track or collection name.
func (r *Result) Name() string {
	if r.kind == KindTrack {
		return r.track.Name
	}
	return r.collection.Name
}

// Artist returns the track artist or collection owner.
func (r *Result) Artist() string {
	if r.kind == KindTrack {
		return r.track.Artist
	}
	return r.collection.Artist
}

// Cover returns the cover image URL.
func (r *Result) Cover() string {
	if r.kind == KindTrack {
		return r.track.Cover
	}
	return r.collection.Cover
}

// SourceURL returns the locator the result was fetched with.
func (r *Result) SourceURL() string {
	if r.kind == KindTrack {
		return r.track.SourceURL
	}
	return r.collection.SourceURL
}

// Len returns the number of downloadable items.
func (r *Result) Len() int {
	if r.kind == KindTrack {
		return 1
	}
	return len(r.tracks)
}

// Items returns the downloadable items: the track itself for a track
// result, the ordered track list for a collection.
func (r *Result) Items() []Track {
	if r.kind == KindTrack {
		return []Track{r.track}
	}
	out := make([]Track, len(r.tracks))
	copy(out, r.tracks)
	return out
}

// Item looks up a downloadable item by ID.
func (r *Result) Item(id string) (Track, bool) {
	if r.kind == KindTrack {
		if r.track.ID == id {
			return r.track, true
		}
		return Track{}, false
	}
	for _, t := range r.tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}
