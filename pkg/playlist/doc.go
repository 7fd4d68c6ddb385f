// Package playlist unwinds a station metadata URL into a playable stream URL.
//
// A metadata URL returns one stream URL per line. The first line is used:
//   - a line ending in .m3u has the extension stripped
//   - a line ending in .pls is fetched and its File1= entry returned
//   - anything else is returned unchanged
package playlist
