package audio

import (
	"net/http"

	"github.com/bogem/id3v2"

	"github.com/handiism/spotidown/internal/model"
)

// TagEditAction defines how to handle individual ID3 tags.
type TagEditAction int

const (
	// TagEmpty clears the tag value.
	TagEmpty TagEditAction = iota

	// TagModify updates the tag with the value from the fetched metadata.
	TagModify

	// TagDoNotModify leaves the existing tag value unchanged.
	TagDoNotModify
)

// TagConfig holds tagging configuration for each ID3 field.
//
// The backend already tags the files it produces; these settings only
// decide which frames the client rewrites from the metadata it fetched.
type TagConfig struct {
	// ModifyTags is a master switch. If false, no text frames are touched.
	ModifyTags bool

	// Artist controls the TPE1 (Lead artist) frame.
	Artist TagEditAction

	// Album controls the TALB (Album title) frame.
	Album TagEditAction

	// TrackTitle controls the TIT2 (Title) frame.
	TrackTitle TagEditAction

	// Comments controls the COMM (Comments) frame.
	Comments TagEditAction
}

// DefaultTagConfig returns a configuration that rewrites artist, album and
// title and leaves comments alone.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		ModifyTags: true,
		Artist:     TagModify,
		Album:      TagModify,
		TrackTitle: TagModify,
		Comments:   TagDoNotModify,
	}
}

// Tagger writes ID3 tags to saved MP3 files.
//
//	tagger := NewTagger(DefaultTagConfig())
//	if err := tagger.SaveTags(path, track, coverJPEG); err != nil {
//	    ...
//	}
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger. If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// SaveTags writes the track's metadata, and the cover when artwork is not
// nil, into the MP3 file at path.
func (t *Tagger) SaveTags(path string, track model.Track, artwork []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	if t.config.ModifyTags {
		t.updateStringTags(tag, track)
	}

	if artwork != nil {
		t.updateArtwork(tag, artwork)
	}

	return tag.Save()
}

func (t *Tagger) updateStringTags(tag *id3v2.Tag, track model.Track) {
	apply(t.config.Artist, track.Artist, tag.SetArtist)
	apply(t.config.Album, track.Album, tag.SetAlbum)
	apply(t.config.TrackTitle, track.Name, tag.SetTitle)

	if t.config.Comments == TagEmpty {
		tag.DeleteFrames(tag.CommonID("Comments"))
	}
}

// apply sets a text frame according to action. An empty value never
// overwrites what the backend wrote.
func apply(action TagEditAction, value string, set func(string)) {
	switch action {
	case TagEmpty:
		set("")
	case TagModify:
		if value != "" {
			set(value)
		}
	}
}

// updateArtwork replaces any attached pictures with a front cover.
func (t *Tagger) updateArtwork(tag *id3v2.Tag, artwork []byte) {
	tag.DeleteFrames(tag.CommonID("Attached picture"))

	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    http.DetectContentType(artwork),
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     artwork,
	})
}
