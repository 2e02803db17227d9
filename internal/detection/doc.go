// Package detection turns screenshots into chart detections.
//
// The package wraps a single-stage object detector (a YOLO-style export) and
// everything around it: input preprocessing, output decoding, per-class
// non-maximum suppression, and the orchestration that produces a
// chart.Result for the accessibility layer.
//
// # Pipeline
//
//  1. Preprocess: stretch the screenshot to S×S and write a planar RGB
//     float tensor scaled to [0, 1].
//  2. Runner: execute the model through an inference backend (an HTTP model
//     service, or OpenCV DNN when built with the gocv tag).
//  3. Transpose: convert [4+C, N] output to one row per box.
//  4. Decode: argmax class, confidence threshold, center-to-corner boxes
//     rescaled to the original image and clipped to its bounds.
//  5. NMS: keep the most confident detection among overlapping boxes of the
//     same class. Boxes of different classes never suppress each other.
//
// # Coordinate System
//
// All boxes use original-image pixels with the origin at the top-left:
//   - X increases rightward
//   - Y increases downward
//   - Right and Bottom are exclusive when converted to image.Rectangle
//
// # Failure Handling
//
// Detector.DetectSingleChart never returns an error. When the model cannot
// be loaded, or an inference fails, it answers with FallbackChart, a
// deterministic synthetic bar chart flagged as Synthetic. When inference
// succeeds but finds nothing it returns nil.
//
// # Class Tables
//
// Two taxonomies are built in: ChartTypes (bar, line, pie) and
// ChartElements (chart, bar, line_point, pie_slice, axis_label, legend,
// title, data_label). The table also owns the label template used for
// spoken node labels.
package detection
