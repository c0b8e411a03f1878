// Package normalisers extracts plain text from raw file bytes. Each
// sub-package handles a family of MIME types; the Registry in this package
// routes a RawDocument to the highest-priority normaliser for its type.
package normalisers
