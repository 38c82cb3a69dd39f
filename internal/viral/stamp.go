package viral

// Cards derived at analysis time use RiskAwareStamp; stored records that
// carry no stamp fall back to ScoreOnlyStamp. The tables must stay
// separate: merging them changes the verdict for scores 40-44 and 70-74
// and for high risk at 70 and above.

// RiskAwareStamp is the rule set used when a card is first derived.
// High risk vetoes a green stamp.
func RiskAwareStamp(score int, risk Risk) Stamp {
	switch {
	case score >= 75 && risk != RiskHigh:
		return StampGreen
	case score >= 45 && score <= 74:
		return StampMixed
	default:
		return StampRed
	}
}

// ScoreOnlyStamp is the fallback used when rendering a stored record
// without a stamp.
func ScoreOnlyStamp(score int) Stamp {
	switch {
	case score < 40:
		return StampRed
	case score < 70:
		return StampMixed
	default:
		return StampGreen
	}
}
