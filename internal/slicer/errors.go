package slicer

import "errors"

// Static errors classifying batch failures. Use errors.Is to test for them.
var (
	// ErrInputNotFound is returned when the input directory is missing or
	// unreadable. The run is aborted before any file is processed.
	ErrInputNotFound = errors.New("input directory not found")
	// ErrNoEligibleFiles is returned when the input directory holds no
	// .wav or .mp3 files. It is a terminal condition, not a crash.
	ErrNoEligibleFiles = errors.New("no audio files found in the input folder")
	// ErrDecodeFailure marks a file that could not be decoded. The file is
	// skipped and the batch continues.
	ErrDecodeFailure = errors.New("decode failure")
	// ErrWriteFailure marks a file whose clips could not be written. Its
	// remaining clips are abandoned; the batch continues.
	ErrWriteFailure = errors.New("write failure")
	// ErrDuplicateStem marks a file whose clip names would collide with an
	// earlier file of the same stem, such as talk.wav next to talk.mp3.
	// The later file is skipped.
	ErrDuplicateStem = errors.New("duplicate file stem")
)
