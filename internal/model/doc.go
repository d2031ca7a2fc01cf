// Package model defines the core data structures shared by the
// spotidown client.
//
// # Result
//
// Result is what a metadata fetch returns. It is a tagged variant with two
// cases: a single track, or a collection (album or playlist) carrying an
// ordered list of tracks. Use the constructors so the invariant holds:
//
//	single := model.NewTrackResult(model.Track{ID: "abc", Name: "X", Artist: "Y"})
//	album := model.NewCollectionResult(model.CollectionInfo{Name: "LP"}, tracks)
//	for _, t := range album.Items() {
//	    fmt.Println(t.ID, t.Name)
//	}
//
// # Statuses
//
// ItemStatus tracks one track's download lifecycle:
//
//	unstarted -> in-progress -> succeeded | failed
//
// ArchiveJob and JobPhase describe a server-side archive job as observed
// through polling.
package model
