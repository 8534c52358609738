// Package geometry resolves how a source image is mapped into a requested
// target box.
//
// The package is pure: it never touches pixels, decodes or encodes. Given the
// natural size of a decoded image, a requested box and a fit policy, Resolve
// returns a Plan describing the resize dimensions and the optional canvas
// extent (crop) that the caller then applies with its imaging library.
//
// # Fit Policies
//
//   - Fill: distort to exactly the target box.
//   - AspectFit: keep the aspect ratio, fit entirely inside the box.
//   - AspectFill: keep the aspect ratio, cover the box and crop the overflow
//     on one axis. Gravity selects which part survives; GravityNone skips
//     the crop and returns the overflowing resize.
//   - Crop: no resampling, cut a box of the target size at an explicit offset.
//
// # Missing Dimensions
//
// A zero target width or height is replaced by the corresponding source
// dimension before any policy math. When both are zero the plan is the
// identity transform.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package geometry
