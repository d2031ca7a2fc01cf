package dto

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/handiism/spotidown/internal/model"
)

var spotifyLink = regexp.MustCompile(`(?:open\.spotify\.com/(?:intl-[a-z]+/)?|spotify:)(track|album|playlist)(?:/|:)([A-Za-z0-9]+)`)

// LinkRequest is the body of every link-based request.
type LinkRequest struct {
	URL string `json:"url"`
}

// JSONError is the error payload. Flask backends send "error", FastAPI
// backends send "detail".
type JSONError struct {
	Error  string `json:"error"`
	Detail any    `json:"detail"`
}

// Message returns the server-provided message, if any.
func (je *JSONError) Message() string {
	if je.Error != "" {
		return je.Error
	}
	if s, ok := je.Detail.(string); ok {
		return s
	}
	return ""
}

// JSONTrack is one track as reported by /api/info.
type JSONTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	Cover      string `json:"cover"`
	CoverImage string `json:"cover_image"`
	URL        string `json:"url"`
	SpotifyURL string `json:"spotify_url"`
}

// JSONResult is the /api/info response.
type JSONResult struct {
	JSONTrack

	// Type is "track", "album" or "playlist".
	Type string `json:"type"`

	// TotalTracks, when present, must equal len(Tracks).
	TotalTracks *int `json:"total_tracks"`

	Tracks []JSONTrack `json:"tracks"`
}

// ToResult converts the payload into a model.Result. locator is the link
// the metadata was fetched with.
func (jr *JSONResult) ToResult(locator string) (*model.Result, error) {
	switch strings.ToLower(jr.Type) {
	case "track":
		if len(jr.Tracks) > 0 {
			return nil, fmt.Errorf("track response carries %d tracks", len(jr.Tracks))
		}
		track := jr.JSONTrack.toTrack()
		track.SourceURL = locator
		if track.ID == "" {
			track.ID = linkID(locator)
		}
		if track.ID == "" {
			return nil, fmt.Errorf("track response has no id")
		}
		return model.NewTrackResult(track), nil

	case "album", "playlist", "collection":
		if jr.TotalTracks != nil && *jr.TotalTracks != len(jr.Tracks) {
			return nil, fmt.Errorf("collection reports %d tracks but lists %d", *jr.TotalTracks, len(jr.Tracks))
		}
		tracks := make([]model.Track, 0, len(jr.Tracks))
		for i, jt := range jr.Tracks {
			t := jt.toTrack()
			if t.ID == "" {
				t.ID = linkID(t.SourceURL)
			}
			if t.ID == "" {
				return nil, fmt.Errorf("track %d has no id", i+1)
			}
			if t.SourceURL == "" {
				t.SourceURL = "https://open.spotify.com/track/" + t.ID
			}
			if t.Album == "" && strings.EqualFold(jr.Type, "album") {
				t.Album = jr.name()
			}
			tracks = append(tracks, t)
		}
		info := model.CollectionInfo{
			Type:      strings.ToLower(jr.Type),
			ID:        jr.ID,
			Name:      jr.name(),
			Artist:    jr.Artist,
			Cover:     jr.cover(),
			SourceURL: locator,
		}
		if info.ID == "" {
			info.ID = linkID(locator)
		}
		return model.NewCollectionResult(info, tracks), nil

	default:
		return nil, fmt.Errorf("unknown result type %q", jr.Type)
	}
}

func (jt *JSONTrack) toTrack() model.Track {
	source := jt.URL
	if source == "" {
		source = jt.SpotifyURL
	}
	return model.Track{
		ID:        jt.ID,
		Name:      jt.name(),
		Artist:    jt.Artist,
		Album:     jt.Album,
		Cover:     jt.cover(),
		SourceURL: source,
	}
}

func (jt *JSONTrack) name() string {
	if jt.Name != "" {
		return jt.Name
	}
	return jt.Title
}

func (jt *JSONTrack) cover() string {
	if jt.Cover != "" {
		return jt.Cover
	}
	return jt.CoverImage
}

// linkID extracts the entity id from a Spotify link, or "".
func linkID(link string) string {
	m := spotifyLink.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return m[2]
}
