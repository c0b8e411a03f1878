// Package html normalises HTML pages into readable text. Scripts, styles
// and document heads are dropped, block elements become line breaks and
// entities are decoded.
package html
