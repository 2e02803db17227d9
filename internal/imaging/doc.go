// Package imaging handles the screenshot frames that feed chart detection.
//
// It provides a FrameCache for captured and file-loaded screenshots, clamped
// cropping of the chart region, PNG/base64 encoding for transport over MCP,
// and debug annotation that draws detections onto a frame.
//
// # Coordinate System
//
// All pixel coordinates are 0-based screen pixels:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive and Max is exclusive
//
// # Thread Safety
//
// FrameCache is safe for concurrent use. The remaining functions are
// stateless and never modify their input image.
//
// # Annotation Palette
//
// Class colors are spaced evenly around the HCL hue wheel so neighbouring
// class ids stay distinguishable, and the focus highlight is blended in Lab
// space so it reads the same over light and dark charts.
package imaging
