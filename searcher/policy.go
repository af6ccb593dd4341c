package searcher

import "math"

type uct struct {
	k       float64 // Exploration constant
	epsilon float64
	logN    float64
}

func newUCT(k, epsilon float64, parentVisits int) uct {
	return uct{k: k, epsilon: epsilon, logN: math.Log(float64(parentVisits) + 1)}
}

func (u uct) evaluate(value float64, visits int) float64 {
	// UCT = v/(n+ε) + K*sqrt(ln(N+1)/(n+ε))
	n := float64(visits) + u.epsilon
	return value/n + u.k*math.Sqrt(u.logN/n)
}

// noise scales v by a factor within 1±epsilon/2 drawn from random in [0, 1)
func noise(v, epsilon, random float64) float64 {
	return (v + epsilon) * (1 + epsilon*(random-0.5))
}
