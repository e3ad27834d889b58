package optimizer

// VariantStat holds the running statistics for one (bucket, variant)
// cell of the performance model. Means are folded in incrementally so
// the model never stores raw samples.
type VariantStat struct {
	Samples       uint64
	MeanPrimary   float64
	MeanSecondary float64
	// Confidence in [0,1]; 0 until the variant has samples. It is
	// comparative, so the whole bucket row is recomputed after every
	// update (see recomputeConfidence).
	Confidence float64
}

// observe folds one cost sample into the running means.
func (s *VariantStat) observe(primary, secondary float64) {
	s.Samples++
	n := float64(s.Samples)
	s.MeanPrimary += (primary - s.MeanPrimary) / n
	s.MeanSecondary += (secondary - s.MeanSecondary) / n
}

// confidenceSaturation controls how quickly sample count alone can
// push confidence toward 1: n/(n+k).
const confidenceSaturation = 5.0

// recomputeConfidence rebuilds the Confidence field for every variant
// in a bucket row.
//
// Confidence = saturation * margin, where saturation = n/(n+k) grows
// monotonically with the variant's sample count, and margin is the
// relative gap between this variant's mean primary cost and the best
// competing sampled variant's, clamped to [0,1]. A variant that is
// slower than some competitor has margin 0; the sole sampled variant
// in a row has margin 1. Both factors are in [0,1], so confidence is,
// and it is non-decreasing in sample count and in the margin over the
// runner-up.
func recomputeConfidence(row []VariantStat) {
	for i := range row {
		if row[i].Samples == 0 {
			row[i].Confidence = 0
			continue
		}

		// Best competing mean among the other sampled variants.
		bestOther := -1.0
		for j := range row {
			if j == i || row[j].Samples == 0 {
				continue
			}
			if bestOther < 0 || row[j].MeanPrimary < bestOther {
				bestOther = row[j].MeanPrimary
			}
		}

		n := float64(row[i].Samples)
		saturation := n / (n + confidenceSaturation)

		margin := 1.0
		if bestOther >= 0 {
			mean := row[i].MeanPrimary
			switch {
			case mean >= bestOther && bestOther > 0:
				margin = 0
			case mean >= bestOther:
				// Competitor mean is zero and ours is not better.
				margin = 0
			case bestOther > 0:
				margin = (bestOther - mean) / bestOther
			}
			if margin < 0 {
				margin = 0
			} else if margin > 1 {
				margin = 1
			}
		}

		row[i].Confidence = saturation * margin
	}
}
