package download

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/handiism/spotidown/internal/audio"
	"github.com/handiism/spotidown/internal/config"
	"github.com/handiism/spotidown/internal/http"
	ioutils "github.com/handiism/spotidown/internal/io"
	"github.com/handiism/spotidown/internal/model"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// transferStep is how many bytes pass between progress reports when the
// size of a transfer is unknown.
const transferStep = 1 << 20

// ProgressEvent is a message about a save in progress. It is delivered on
// the goroutine doing the save.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Saver performs the client-side file save: it streams a resolved backend
// location into the downloads directory and, for MP3 tracks, optionally
// rewrites their tags.
type Saver struct {
	settings     *config.Settings
	httpClient   *http.Client
	tagger       *audio.Tagger
	playlist     *audio.PlaylistCreator
	imageService *ioutils.ImageService

	onProgress func(ProgressEvent)
}

// NewSaver creates a Saver writing into settings.DownloadsPath. onProgress
// may be nil; it is called from worker goroutines.
//
// httpClient should come from http.NewStreamingClient: an overall request
// timeout would also cut off long transfers.
func NewSaver(settings *config.Settings, httpClient *http.Client, onProgress func(ProgressEvent)) *Saver {
	tagCfg := audio.DefaultTagConfig()
	tagCfg.ModifyTags = settings.ModifyTags

	return &Saver{
		settings:     settings,
		httpClient:   httpClient,
		tagger:       audio.NewTagger(tagCfg),
		playlist:     audio.NewPlaylistCreator(audio.ParseFormat(settings.PlaylistFormat), settings.M3UExtended),
		imageService: ioutils.NewImageService(),
		onProgress:   onProgress,
	}
}

// Dir returns the downloads directory.
func (s *Saver) Dir() string {
	return s.settings.DownloadsPath
}

// Save downloads location into the downloads directory and returns the
// path written. track is nil for archives. A tagging failure is reported
// but does not fail the save.
func (s *Saver) Save(ctx context.Context, location string, track *model.Track) (string, error) {
	s.progress(ProgressEvent{Message: "Downloading " + location, Level: LevelVerbose})

	path, n, err := s.httpClient.DownloadToDir(ctx, location, s.Dir(), s.transferProgress())
	if err != nil {
		return "", fmt.Errorf("save %s: %w", location, err)
	}
	s.progress(ProgressEvent{Message: fmt.Sprintf("Wrote %s (%s)", filepath.Base(path), humanize.Bytes(uint64(n))), Level: LevelVerbose})

	if track != nil && strings.EqualFold(filepath.Ext(path), ".mp3") && s.wantsTags() {
		if err := s.tag(ctx, path, *track); err != nil {
			s.progress(ProgressEvent{Message: fmt.Sprintf("Error tagging %s: %v", filepath.Base(path), err), Level: LevelWarning})
		}
	}

	return path, nil
}

// WritePlaylist writes a playlist of saved files next to them and returns
// its path.
func (s *Saver) WritePlaylist(title string, entries []audio.PlaylistEntry) (string, error) {
	name := ioutils.SanitizeFileName(title)
	if name == "" {
		name = "playlist"
	}
	path := filepath.Join(s.Dir(), name+s.playlist.Format().Extension())

	content := s.playlist.CreatePlaylist(title, entries)
	if err := ioutils.WriteFileAtomic(path, []byte(content)); err != nil {
		return "", fmt.Errorf("write playlist: %w", err)
	}
	s.progress(ProgressEvent{Message: "Created playlist " + filepath.Base(path), Level: LevelSuccess})
	return path, nil
}

func (s *Saver) wantsTags() bool {
	return s.settings.ModifyTags || s.settings.SaveCoverArtInTags
}

func (s *Saver) tag(ctx context.Context, path string, track model.Track) error {
	var artwork []byte
	if s.settings.SaveCoverArtInTags && track.HasCover() {
		var err error
		artwork, err = s.cover(ctx, track.Cover)
		if err != nil {
			s.progress(ProgressEvent{Message: fmt.Sprintf("Error downloading artwork for %s: %v", track.Name, err), Level: LevelWarning})
			artwork = nil
		}
	}
	if artwork == nil && !s.settings.ModifyTags {
		return nil
	}
	return s.tagger.SaveTags(path, track, artwork)
}

func (s *Saver) cover(ctx context.Context, url string) ([]byte, error) {
	data, err := s.httpClient.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.imageService.PrepareCover(ctx, data, s.settings.CoverArtInTagsMaxSize, s.settings.ConvertCoverArtToJPG)
}

// transferProgress reports received bytes at every quarter of a known size,
// or every transferStep bytes otherwise.
func (s *Saver) transferProgress() func(written, total int64) {
	if s.onProgress == nil {
		return nil
	}
	var next int64
	return func(written, total int64) {
		if written < next {
			return
		}
		if total > 0 {
			next = written + max(total/4, 1)
			s.progress(ProgressEvent{Message: fmt.Sprintf("Received %s of %s", humanize.Bytes(uint64(written)), humanize.Bytes(uint64(total))), Level: LevelVerbose})
			return
		}
		next = written + transferStep
		s.progress(ProgressEvent{Message: "Received " + humanize.Bytes(uint64(written)), Level: LevelVerbose})
	}
}

func (s *Saver) progress(event ProgressEvent) {
	if s.onProgress != nil {
		s.onProgress(event)
	}
}
