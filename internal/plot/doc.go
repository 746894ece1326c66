// Package plot renders abundance tracks, observations and DTD curves.
//
//   - [Abundance]: model tracks as lines, catalog stars as a scatter
//   - [DTD]: one delay-time-distribution curve against time in Gyr
//   - [ASCII], [TrackASCII]: terminal plots for the CLI and the browser
//
// Figures are PNG or SVG, chosen with [Format]. Every function writes to an
// io.Writer; [Save] picks the format from a file extension.
package plot
