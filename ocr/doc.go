package ocr

// Package ocr defines the contract between the processing engine and
// third-party text-recognition providers (for example, Tesseract). The
// interface is intentionally small and transport-agnostic so providers can be
// backed by native libraries, local binaries, or remote APIs without leaking
// provider-specific concerns into callers.
