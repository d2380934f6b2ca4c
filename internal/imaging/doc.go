// Package imaging handles the page images behind OCR artifacts.
//
// It loads and caches scans, draws the computed timetable grid over a page
// so a template can be checked by eye, crops single cells for re-recognition
// and converts scans between JPEG and PNG.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. This is the same space the
// OCR engines report fragment polygons in, so cell rectangles from the
// timetable package can be used directly. For regions, (x1,y1) is inclusive
// and (x2,y2) is exclusive.
//
// # Formats
//
// Decoding supports PNG, JPEG, GIF, TIFF, BMP and WebP. Encoding supports
// JPEG and PNG.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The other functions are stateless
// and never modify their input images.
package imaging
