// Package bid implements client-side validation of bid candidates and the
// confirmation flow that gates a validated bid before it is submitted.
package bid

// Status classifies a bid candidate against the current auction price.
type Status string

const (
	// StatusEmpty means nothing usable was entered. Not an error.
	StatusEmpty Status = "empty"

	// StatusBelowMinimum means the candidate is below currentPrice + stepPrice.
	StatusBelowMinimum Status = "below-minimum"

	// StatusNotOnStep means the candidate is above the minimum but not a
	// whole number of steps over the current price.
	StatusNotOnStep Status = "not-on-step"

	// StatusValid means the candidate may be submitted.
	StatusValid Status = "valid"
)

// Evaluation is the result of validating one bid candidate.
type Evaluation struct {
	// MinBid is the lowest allowed bid: currentPrice + stepPrice.
	MinBid int64

	Status Status

	// Suggestions holds the two nearest valid amounts bracketing the
	// candidate when Status is StatusNotOnStep, and is empty otherwise.
	Suggestions []int64
}

// MinBid returns the lowest allowed bid for the given price and step.
func MinBid(currentPrice, stepPrice int64) int64 {
	return currentPrice + stepPrice
}

// Evaluate validates a candidate amount against the current price and step.
// stepPrice must be positive; product data with a non-positive step is a
// configuration error upstream of this package.
func Evaluate(currentPrice, stepPrice, candidate int64) Evaluation {
	eval := Evaluation{MinBid: MinBid(currentPrice, stepPrice)}

	switch {
	case candidate <= 0:
		eval.Status = StatusEmpty
	case candidate < eval.MinBid:
		eval.Status = StatusBelowMinimum
	default:
		diff := candidate - currentPrice
		if diff%stepPrice != 0 {
			eval.Status = StatusNotOnStep
			lowerSteps := diff / stepPrice
			eval.Suggestions = []int64{
				currentPrice + lowerSteps*stepPrice,
				currentPrice + (lowerSteps+1)*stepPrice,
			}
		} else {
			eval.Status = StatusValid
		}
	}

	return eval
}

// Increment returns the candidate raised by one step. A value below the
// minimum bid snaps up to it.
func Increment(value, currentPrice, stepPrice int64) int64 {
	min := MinBid(currentPrice, stepPrice)
	if value < min {
		return min
	}
	return value + stepPrice
}

// CanDecrement reports whether one step can be subtracted without dropping
// below the minimum bid. The decrement control is disabled when this is
// false rather than silently flooring.
func CanDecrement(value, currentPrice, stepPrice int64) bool {
	return value-stepPrice >= MinBid(currentPrice, stepPrice)
}

// Decrement returns the candidate lowered by one step, or unchanged when the
// result would fall below the minimum bid.
func Decrement(value, currentPrice, stepPrice int64) int64 {
	if !CanDecrement(value, currentPrice, stepPrice) {
		return value
	}
	return value - stepPrice
}
