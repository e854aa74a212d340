package analytics

import "math"

// pearson computes the Pearson correlation coefficient of two equal-length
// series. It returns (0, false) when fewer than two pairs exist or either
// series is constant.
func pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0, false
	}
	meanX, meanY := mean(xs), mean(ys)
	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varX*varY), true
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func interpretCorrelation(corr float64) string {
	switch {
	case corr >= 0.7:
		return "strong positive correlation: sentiment strongly predicts price increases"
	case corr >= 0.3:
		return "moderate positive correlation: sentiment somewhat predicts price increases"
	case corr >= -0.3:
		return "weak or no correlation: sentiment does not reliably predict price movement"
	case corr >= -0.7:
		return "moderate negative correlation: positive sentiment predicts price decreases"
	default:
		return "strong negative correlation: sentiment inversely predicts price movement"
	}
}

func interpretPrediction(prediction string, confidence float64) string {
	switch prediction {
	case "bullish":
		if confidence > 0.7 {
			return "strong bullish signal: high positive sentiment suggests a price increase is likely"
		}
		return "moderate bullish signal: positive sentiment with some uncertainty"
	case "bearish":
		if confidence > 0.7 {
			return "strong bearish signal: high negative sentiment suggests a price decrease is likely"
		}
		return "moderate bearish signal: negative sentiment with some uncertainty"
	case "neutral":
		return "neutral signal: sentiment is mixed or inconclusive"
	default:
		return "insufficient data for prediction"
	}
}
