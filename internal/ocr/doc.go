// Package ocr turns page images into fragment documents with Tesseract.
//
// It is the local alternative to a hosted text-detection service: a
// Recognizer reads a scan, optionally cleans it up, and reports one
// fragment per recognized word with its bounding box as a four-vertex
// polygon. The output feeds the timetable parser like any other OCR
// artifact.
//
// # Prerequisites
//
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-tha
//   - macOS: brew install tesseract tesseract-lang
//
// The default language is "tha+eng", matching the printed timetable forms.
//
// # Refinement
//
// Refine re-reads cells that came back empty from a full-page pass by
// cropping and enlarging each one, which recovers short entries Tesseract
// tends to drop on a dense page.
//
// # Concurrency
//
// A Recognizer holds only settings; each call opens its own Tesseract
// client, so one Recognizer may be shared across goroutines.
package ocr
