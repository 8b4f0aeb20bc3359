package models

import (
	"errors"
	"fmt"
)

// TopicRating is the interest of the user in a topic.
type TopicRating struct {
	Topic  string `json:"topic"`
	Rating int    `json:"rating"`
}

// Profile is the ordered list of topics the user rated. The order is the one
// in which the topics were supplied, and it's preserved in the weights.
type Profile []TopicRating

// Topics() returns the topics of the profile, in order.
func (P Profile) Topics() []string {
	topics := make([]string, len(P))
	for i, tr := range P {
		topics[i] = tr.Topic
	}
	return topics
}

// Validate() returns the appropriate error if the profile is empty or
// if any rating is negative.
func (P Profile) Validate() error {
	if len(P) == 0 {
		return fmt.Errorf("%w: no topics", ErrDegenerateProfile)
	}

	for _, tr := range P {
		if tr.Rating < 0 {
			return fmt.Errorf("%w: topic %q has rating %d", ErrInvalidRating, tr.Topic, tr.Rating)
		}
	}
	return nil
}

// Weights() normalizes the ratings into weights that sum to 1, in the same order as the topics.
func (P Profile) Weights() ([]float64, error) {
	if err := P.Validate(); err != nil {
		return nil, err
	}

	total := 0
	for _, tr := range P {
		total += tr.Rating
	}

	if total == 0 {
		return nil, fmt.Errorf("%w: all ratings are zero", ErrDegenerateProfile)
	}

	weights := make([]float64, len(P))
	for i, tr := range P {
		weights[i] = float64(tr.Rating) / float64(total)
	}
	return weights, nil
}

//--------------------------ERROR-CODES--------------------------

var ErrDegenerateProfile = errors.New("degenerate profile")
var ErrInvalidRating = errors.New("rating should be non-negative")
