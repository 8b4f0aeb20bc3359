package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vertex-lab/topicrank/pkg/models"
)

// parseTopicFlag() parses a topic rating written as "topic=rating".
// The topic can contain '=', the rating is what follows the last one.
func parseTopicFlag(s string) (models.TopicRating, error) {
	i := strings.LastIndex(s, "=")
	if i < 0 {
		return models.TopicRating{}, fmt.Errorf("%w: %q should be topic=rating", ErrInvalidTopicFlag, s)
	}

	topic := strings.TrimSpace(s[:i])
	if topic == "" {
		return models.TopicRating{}, fmt.Errorf("%w: %q has an empty topic", ErrInvalidTopicFlag, s)
	}

	rating, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
	if err != nil {
		return models.TopicRating{}, fmt.Errorf("%w: %q: %v", ErrInvalidTopicFlag, s, err)
	}

	return models.TopicRating{Topic: topic, Rating: rating}, nil
}

// readProfileFile() reads a profile from a JSON array of {"topic", "rating"} objects.
func readProfileFile(path string) (models.Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file \"%v\": %w", path, err)
	}
	defer file.Close()

	var profile models.Profile
	if err := json.NewDecoder(file).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: profile %v: %v", models.ErrMalformedInput, path, err)
	}
	return profile, nil
}

// buildProfile() returns the profile from exactly one of the two sources: the
// topic flags (kept in order) or the profile file. Every rating must be in [min, max].
func buildProfile(topicFlags []string, path string, min, max int) (models.Profile, error) {
	var profile models.Profile
	var err error

	switch {
	case len(topicFlags) > 0 && path != "":
		return nil, ErrTooManyProfiles

	case len(topicFlags) > 0:
		profile = make(models.Profile, len(topicFlags))
		for i, flag := range topicFlags {
			profile[i], err = parseTopicFlag(flag)
			if err != nil {
				return nil, err
			}
		}

	case path != "":
		profile, err = readProfileFile(path)
		if err != nil {
			return nil, err
		}

	default:
		return nil, ErrNoProfile
	}

	for _, tr := range profile {
		if tr.Rating < min || tr.Rating > max {
			return nil, fmt.Errorf("%w: topic %q has rating %d, expected [%d, %d]",
				ErrRatingOutOfRange, tr.Topic, tr.Rating, min, max)
		}
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

//--------------------------ERROR-CODES--------------------------

var ErrInvalidTopicFlag = errors.New("invalid topic flag")
var ErrNoProfile = errors.New("no profile: use --topic or --profile")
var ErrTooManyProfiles = errors.New("use either --topic or --profile, not both")
var ErrRatingOutOfRange = errors.New("rating out of range")
