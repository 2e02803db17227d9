// Package session runs one chart accessibility session.
//
// A Loop owns the node tree, the gesture and volume-key recognizers and the
// cached detection, and mutates them only on the goroutine running Run.
// Detection requests are debounced and rate limited, captured through a
// FrameSource and handed to a single-flight Worker; results come back to the
// loop as posted closures. Recognized gestures, voice phrases and key combos
// are mapped to Commands that drive the tree and the Panel.
package session
