// Package a11y exposes detected chart elements to assistive technology.
//
// A Tree holds the NodeSpecs of the current chart.Result and answers the
// questions a screen reader asks of a virtual view: which element is under
// this point, which elements are visible, what is this element called, and
// activate it. Node rectangles are stored in absolute screen pixels; the
// Mapper translates them into the panel's local pixels, where the chart
// bitmap is stretched to the panel width and centred vertically.
//
// Activation replays a tap on the app underneath through the host Tapper.
// Nothing in this package draws or speaks by itself; the host supplies a
// Tapper and an Announcer.
package a11y
