package reservation

// ApplyRating folds one more rating into a space's aggregate using the
// incremental mean, so submitting a review never rescans the review set.
func ApplyRating(avg float64, count int, rating int) (float64, int) {
	newCount := count + 1
	newAvg := (avg*float64(count) + float64(rating)) / float64(newCount)
	return newAvg, newCount
}

// RecomputeRating rebuilds the aggregate from the full rating set. It must
// agree with repeated ApplyRating up to floating-point rounding.
func RecomputeRating(ratings []int) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	var sum int
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings)), len(ratings)
}
