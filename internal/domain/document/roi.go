package document

// ROI is the derived return-on-investment readout for a value-summary
// draft. All numbers are computed from the draft's roi record on demand;
// nothing here is stored back into the draft.
type ROI struct {
	Investment     float64 `json:"investment"`
	ValueDelivered float64 `json:"value_delivered"`
	TargetValue    float64 `json:"target_value"`
	Multiple       float64 `json:"multiple"`
	PercentToGoal  float64 `json:"percent_to_goal"`
}

// ComputeROI derives the ROI readout from a value-summary document. A zero
// investment yields a zero multiple rather than dividing; percent-to-goal
// is capped at 100.
func ComputeROI(doc map[string]any) ROI {
	record, _ := doc["roi"].(map[string]any)

	out := ROI{
		Investment:     number(record["investment"]),
		ValueDelivered: number(record["value_delivered"]),
		TargetValue:    number(record["target_value"]),
	}

	if out.Investment > 0 {
		out.Multiple = out.ValueDelivered / out.Investment
	}
	if out.TargetValue > 0 {
		out.PercentToGoal = out.ValueDelivered / out.TargetValue * 100
		if out.PercentToGoal > 100 {
			out.PercentToGoal = 100
		}
	}
	return out
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}
