// Package ocr extracts the text printed inside a chart (title, axis labels,
// legend) so the accessibility layer can read a summary of it.
//
// The Tesseract recognizer wraps the native engine through gosseract/v2 and
// is only functional in cgo builds. Without cgo it compiles to a stub whose
// Recognize returns ErrUnavailable, and callers fall back to a summary built
// from detection labels alone.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Supported Languages
//
// The default language is English ("eng"). Other Tesseract language codes
// ("deu", "fra", "chi_sim", ...) can be configured; several can be combined
// with "+" (e.g. "eng+chi_sim").
package ocr
