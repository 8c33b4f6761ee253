// Package app provides the core application service for Wails bindings.
package app

import "go.aimuz.me/omni/stt"

// Event names for frontend communication.
const (
	EventSessionChanged  = "session-changed"  // data: types.SessionSnapshot
	EventPlaybackChanged = "playback-changed" // data: types.PlaybackState
	EventAlert           = "alert"            // data: types.Alert
	EventCaptureStart    = stt.EventCaptureStart
	EventCaptureAbort    = stt.EventCaptureAbort
)

// Status messages shown while work is in progress.
const (
	StatusTranslating   = "Translating..."
	StatusExtractingURL = "Extracting content from URL..."
	StatusListenError   = "Error listening"
)

// Alert messages shown when an operation fails.
const (
	MsgTranslateFailed = "Translation failed."
	MsgFileTooLarge    = "File is too large. Please use a file smaller than 10MB."
	MsgLegacyDoc       = "Legacy .doc format is not supported. Please save your file as .docx (Word Document) and try again."
	MsgInvalidDocx     = "Failed to parse .docx file. Ensure it is a valid Word document."
	MsgProcessFailed   = "Could not process file. The format might not be supported or the file is corrupted."
	MsgURLFailed       = "Could not extract text from URL."
	MsgNoRecognizer    = "Speech recognition is not supported."
)
