package quota

import "github.com/ja7ad/bgquota/pkg/system/util"

// nonNegative clamps NaN and negative values to zero. Defends the sort
// comparator and counter deltas against degenerate measurement input.
func nonNegative(x float64) float64 { return util.NonNegative(x) }

// safeDiv guards against division by a near-zero denominator.
func safeDiv(n, d float64) float64 { return util.SafeDiv(n, d) }

// clamp01 bounds a share/utilization fraction to [0,1], guarding NaN.
func clamp01(x float64) float64 { return util.Clamp01(x) }
