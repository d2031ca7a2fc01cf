// Package audio post-processes saved tracks: ID3 tagging and playlist
// generation.
//
// # ID3 Tagging
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	err := tagger.SaveTags(path, track, coverJPEG)
//
// # Playlist Generation
//
//	creator := audio.NewPlaylistCreator(audio.ParseFormat("m3u"), true)
//	content := creator.CreatePlaylist("LP", entries)
//
// Supported formats are M3U (optionally extended), PLS, WPL and ZPL.
package audio
