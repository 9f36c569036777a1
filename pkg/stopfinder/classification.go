package stopfinder

type Classification string

const (
	ClassificationAtStop Classification = "AT_STOP"

	ClassificationPilotNear     = "PILOT_NEAR"
	ClassificationLovesNear     = "LOVES_NEAR"
	ClassificationPilotExtended = "PILOT_EXTENDED"
	ClassificationLovesExtended = "LOVES_EXTENDED"
	ClassificationNearestParked = "NEAREST_PARKED"
	ClassificationNone          = "NONE"
)

func (c Classification) Describe() string {
	switch c {
	case ClassificationAtStop:
		return "Already at a fuel stop"
	case ClassificationPilotNear:
		return "Pilot/Flying J within the near radius"
	case ClassificationLovesNear:
		return "Love's within the near radius (no Pilot nearby)"
	case ClassificationPilotExtended:
		return "Pilot/Flying J within the extended radius"
	case ClassificationLovesExtended:
		return "Love's within the extended radius"
	case ClassificationNearestParked:
		return "Nearest stop (vehicle parked)"
	case ClassificationNone:
		return "No stop found within the extended radius"
	}

	return string(c)
}
