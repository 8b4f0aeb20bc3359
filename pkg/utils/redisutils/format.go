package redisutils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/vertex-lab/topicrank/pkg/models"
)

// FormatVector() formats a Vector into a string ready to be stored in Redis.
func FormatVector(v models.Vector) string {
	strVals := make([]string, len(v))
	for i, val := range v {
		strVals[i] = strconv.FormatFloat(val, 'g', -1, 64)
	}

	return strings.Join(strVals, ",")
}

// ParseVector() parses a string to a Vector.
func ParseVector(strVector string) (models.Vector, error) {
	if len(strVector) == 0 {
		return models.Vector{}, nil
	}

	strVals := strings.Split(strVector, ",")
	v := make(models.Vector, len(strVals))

	for i, str := range strVals {
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, err
		}
		v[i] = val
	}
	return v, nil
}

// FormatRanking() formats a Ranking into the members of a Redis sorted set.
func FormatRanking(ranking models.Ranking) []redis.Z {
	members := make([]redis.Z, len(ranking))
	for i, ns := range ranking {
		members[i] = redis.Z{Score: ns.Score, Member: ns.Node}
	}
	return members
}

// ParseRanking() parses the members of a Redis sorted set into a Ranking.
func ParseRanking(members []redis.Z) (models.Ranking, error) {
	ranking := make(models.Ranking, len(members))
	for i, z := range members {
		node, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected format for member: %v", z.Member)
		}
		ranking[i] = models.NodeScore{Node: node, Score: z.Score}
	}
	return ranking, nil
}
