// Package extract provides text extractors for the supported document
// formats. Each extractor reads a file from disk and returns its plain
// text, plus whatever metadata the format carries. The registry maps
// file extensions to extractors.
package extract
