// Package download performs the client-side save of files the backend
// produced.
//
// A Saver is handed an absolute location (a single track or a finished
// archive) and streams it into the downloads directory:
//
//	files := http.NewStreamingClient(settings.RequestTimeoutDuration())
//	saver := download.NewSaver(settings, files, func(e download.ProgressEvent) {
//	    log.Println(e.Message)
//	})
//	path, err := saver.Save(ctx, "https://backend/f/1.zip", nil)
//
// Received bytes are reported as verbose progress events while a file
// streams in. Saved MP3 tracks can have their ID3 tags rewritten from the
// fetched metadata, including cover art resized with ioutils.ImageService.
// Files are written under a temporary name and renamed into place, so an
// interrupted save never leaves a truncated file behind. There is no retry.
package download
