package bayspecies

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// betaPmfSteps is the grid resolution used when a Beta distribution is
// discretized onto [0, 1].
const betaPmfSteps = 101

// makeBetaPmf discretizes a Beta distribution into a normalized Pmf
// over betaPmfSteps evenly spaced points on [0, 1]. The density is
// evaluated in log domain and shifted by its maximum before
// exponentiating: with large shape parameters (counts in the hundreds
// and beyond) the raw density underflows at every grid point. The
// normalizing constant cancels when the grid is renormalized.
func makeBetaPmf(beta distuv.Beta) (*Pmf[float64], error) {
	logs := make([]float64, betaPmfSteps)
	maxLog := math.Inf(-1)
	for i := range logs {
		x := float64(i) / float64(betaPmfSteps-1)
		logs[i] = betaLogPdf(x, beta.Alpha, beta.Beta)
		if logs[i] > maxLog {
			maxLog = logs[i]
		}
	}
	pmf := NewPmf[float64]()
	for i, ll := range logs {
		x := float64(i) / float64(betaPmfSteps-1)
		pmf.Set(x, math.Exp(ll-maxLog))
	}
	if _, err := pmf.Normalize(); err != nil {
		return nil, err
	}
	return pmf, nil
}

// betaLogPdf is the unnormalized log density. The shape terms are
// skipped when their exponent is zero so the grid endpoints stay
// finite: 0*log(0) would otherwise poison them with NaN.
func betaLogPdf(x, alpha, beta float64) float64 {
	ll := 0.0
	if alpha != 1 {
		ll += (alpha - 1) * math.Log(x)
	}
	if beta != 1 {
		ll += (beta - 1) * math.Log(1 - x)
	}
	return ll
}
