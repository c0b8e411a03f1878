// Package connectors holds the document sources that feed ingestion.
// The filesystem connector lists, loads and watches local files.
package connectors
