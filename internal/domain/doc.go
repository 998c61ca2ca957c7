// Package domain models GEOFON moment-tensor bulletins and the catalog that
// lists them.
//
// # Data Source
//
// The GEOFON Global Seismic Monitor publishes an event list at
// http://geofon.gfz-potsdam.de/eqinfo/list.php. Queried with fmt=html, the
// list links every event that has a moment-tensor solution to a plain-text
// bulletin at <alert base>/<event id>/mt.txt. The catalog only carries
// moment tensors from January 2011 onwards, so earlier start dates are
// clamped to that epoch.
//
// # Bulletin Layout
//
// A bulletin is a short newline-delimited document. Fields sit at fixed
// line indices; values are located by whitespace-separated position:
//
//	0  GFZ Event gfz2011eetd              event id (last field is the alert token)
//	1  11/03/04 04:07:56.93               origin time, two-digit year
//	2  Solomon Islands                    region
//	3  Epicenter: -8.96 157.19            latitude, longitude
//	4  MW 5.6                             magnitude unit, magnitude
//	5
//	6  GFZ MOMENT TENSOR SOLUTION
//	7  Depth  10         No. of sta: 38   depth (km), station count (last field)
//	8  Moment Tensor;   Scale 10**16 Nm   power-of-ten exponent after "**"
//	9    Mrr= 0.94       Mtt=-0.38        tensor values, "=" treated as a separator
//
// Newer bulletins carry two centroid lines between the header and the
// depth line. They are recognised by the word "Centroid" on line 8 and shift
// the depth, exponent and tensor lines down by two. See [ReportParser].
//
// Tensor components are read from a single line: Mrr, Mpp and Mrp take the
// first value, Mtt, Mrt and Mtp the second. Each is multiplied by the
// decoded scale.
//
// # File Naming
//
// Fetched bulletins are stored as 20<line 1>.txt with spaces replaced by
// underscores and slashes by hyphens, e.g. 2011-03-04_04:07:56.93.txt.
// See [DocumentFilename].
package domain
