package simulator

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"gopkg.in/yaml.v3"
)

// ArrivalDistribution selects how the time between process arrivals is drawn
type ArrivalDistribution int

const (
	ArrivalExponential ArrivalDistribution = iota // Poisson arrivals (default)
	ArrivalUniform
	ArrivalFixed
)

// String returns the string representation of ArrivalDistribution
func (ad ArrivalDistribution) String() string {
	switch ad {
	case ArrivalExponential:
		return "exponential"
	case ArrivalUniform:
		return "uniform"
	case ArrivalFixed:
		return "fixed"
	default:
		return fmt.Sprintf("unknown(%d)", int(ad))
	}
}

// ParseArrivalDistribution parses a string into an ArrivalDistribution
func ParseArrivalDistribution(s string) (ArrivalDistribution, error) {
	switch s {
	case "exponential", "":
		return ArrivalExponential, nil
	case "uniform":
		return ArrivalUniform, nil
	case "fixed":
		return ArrivalFixed, nil
	default:
		return ArrivalExponential, fmt.Errorf("invalid ArrivalDistribution: %s (must be 'exponential', 'uniform', or 'fixed')", s)
	}
}

// MarshalJSON implements json.Marshaler for ArrivalDistribution
func (ad ArrivalDistribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(ad.String())
}

// UnmarshalJSON implements json.Unmarshaler for ArrivalDistribution
func (ad *ArrivalDistribution) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseArrivalDistribution(s)
	if err != nil {
		return err
	}
	*ad = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler for ArrivalDistribution
func (ad ArrivalDistribution) MarshalYAML() (interface{}, error) {
	return ad.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler for ArrivalDistribution
func (ad *ArrivalDistribution) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseArrivalDistribution(s)
	if err != nil {
		return err
	}
	*ad = parsed
	return nil
}

// Sample draws an inter-arrival time with the given mean, at least 1
func (ad ArrivalDistribution) Sample(rng *rand.Rand, mean int64) int64 {
	var d int64
	switch ad {
	case ArrivalUniform:
		// 1..2*mean-1 averages to mean
		if mean > 1 {
			d = 1 + rng.Int63n(2*mean-1)
		}
	case ArrivalFixed:
		d = mean
	default:
		d = int64(rng.ExpFloat64() * float64(mean))
	}
	if d < 1 {
		return 1
	}
	return d
}
