// Package gesture recognizes touch gestures and volume-key shortcuts.
//
// Machine consumes raw pointer events and emits taps, double taps, long
// presses, directional scrolls, N-finger swipes and N-finger double taps.
// Scrolls are reinterpreted as navigation commands; nothing underneath
// actually scrolls. KeyCombo watches the volume keys for the chart mode
// toggle.
//
// All timing is measured on event timestamps except the long-press timer,
// which runs through a Scheduler. VirtualClock replays recorded streams
// deterministically.
package gesture
