// Package history keeps the persisted download history.
//
// The log is capped, most recent first, and holds at most one entry per
// identity: recording an id that is already present moves it to the front.
//
//	store, err := history.Open(path, 50)
//	if err != nil {
//	    return err
//	}
//	store.Record(history.Entry{ID: "abc", Name: "Song", URL: link, Timestamp: time.Now()})
//	for _, e := range store.List() {
//	    fmt.Println(e.Name)
//	}
package history
