// Package tunein is a client for the TuneIn (RadioTime) OPML directory search.
package tunein
