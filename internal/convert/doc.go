// Package convert runs image conversion requests end to end.
//
// A request is an Options value: the encoded source bytes plus the resize,
// crop, adjustment and output settings. Convert validates every option name
// before touching pixel data, then decodes under the request's memory
// budget, applies the transforms in a fixed order and encodes the result:
//
//  1. decode (srcFormat hint, maxMemory budget)
//  2. autoOrient
//  3. trim
//  4. blur, at source resolution
//  5. resize and crop, as planned by the geometry package
//  6. rotate, then flip and flop
//  7. brightness and contrast
//  8. background flatten
//  9. encode (format, quality, density, strip)
//
// Every canvas the pipeline allocates is checked against the memory budget
// and against MaxDimension before it is created.
//
// # Concurrency
//
// A Converter is safe for concurrent use. Pool runs conversions on a fixed
// number of workers and reports completion through a callback or a result
// channel. Defaults.MaxMemory is installed once as the limiter's baseline,
// so requests that do not set MaxMemory run concurrently under it. Requests
// that set MaxMemory are serialized with each other while their budget is in
// force.
//
// # Warnings
//
// Decode warnings fail the request unless IgnoreWarnings is set, in which
// case they are logged and returned in Result.Warnings.
package convert
