// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Atomic file writes
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation
//   - Cover art resizing and format conversion
//
// # File Operations
//
//	// Write data so readers never observe a half-written file
//	err := ioutils.WriteFileAtomic("/home/me/.spotidown/history.json", data)
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/path/to/new/directory")
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
//
// # Image Processing
//
// The ImageService prepares cover art before it is embedded in ID3 tags:
//
//	svc := ioutils.NewImageService()
//	jpeg, err := svc.PrepareCover(ctx, imageData, 1000, true)
package ioutils
