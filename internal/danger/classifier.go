package danger

// Default thresholds for the built-in rules.
const (
	DefaultAltitudeThresholdM = 500.0
	DefaultSpeedThresholdMPS  = 10.0
)

// Classifier applies an ordered list of rules to a telemetry sample.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier from the given rules. Rule order is
// evaluation order and therefore reason order.
func NewClassifier(rules ...Rule) *Classifier {
	return &Classifier{rules: rules}
}

// NewDefaultClassifier returns the standard rule set: altitude, then
// speed, then geofence matches against the given zone source.
func NewDefaultClassifier(zones ZoneSource) *Classifier {
	return NewClassifier(
		AltitudeRule{ThresholdM: DefaultAltitudeThresholdM},
		SpeedRule{ThresholdMPS: DefaultSpeedThresholdMPS},
		GeofenceRule{Zones: zones},
	)
}

// Classify runs every rule against the sample and concatenates the
// reasons in rule order. An empty slice means the sample is safe.
// Missing optional fields are normal, never an error.
func (c *Classifier) Classify(sample Sample) []string {
	reasons := []string{}
	for _, rule := range c.rules {
		reasons = append(reasons, rule.Check(sample)...)
	}
	return reasons
}
