// Package batch processes whole directories: OCR artifacts into timetable
// files, and page images into OCR artifacts.
//
// Files are handled by a bounded pool of goroutines. A failing file is
// logged and recorded in the report; it never stops the others. Cancelling
// the context stops new files from being started, and files already running
// finish normally.
//
// Output files are named after the extracted room ("<room>.json"). When two
// inputs resolve to the same room, later inputs in file-name order get a
// numeric suffix instead of overwriting the first.
package batch
