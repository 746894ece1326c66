// Package compare scores model abundance tracks against each other and
// against observed stars.
//
//   - [Resample]: linear interpolation of one series onto another's positions
//   - [Tracks]: RMS between two tracks on the first track's grid
//   - [Residual]: RMS between a track and a star catalog at the stars' [Fe/H]
//   - [DerivedRatio]: [A/B] from [A/C] and [B/C]
//   - [BestFit]: lowest RMS, first candidate wins ties
//
// # Extrapolation
//
// Positions outside the sampled range are never extrapolated. Under [Strict]
// (the default) they fail with [ErrOutOfRange]. Under [Overlap] they are
// dropped and the comparison is restricted to the shared domain.
package compare
