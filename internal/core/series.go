package core

// ChartSeries is a labelled series of values. Labels and Values have equal
// length and are never nil.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// EmptySeries returns a series with empty, non-nil slices.
func EmptySeries() ChartSeries {
	return ChartSeries{Labels: []string{}, Values: []float64{}}
}

func (s ChartSeries) Len() int {
	return len(s.Labels)
}

func (s ChartSeries) Sum() float64 {
	var total float64
	for _, v := range s.Values {
		total += v
	}
	return total
}

// Equal is deep value equality. A nil slice equals an empty one.
func (s ChartSeries) Equal(other ChartSeries) bool {
	if len(s.Labels) != len(other.Labels) || len(s.Values) != len(other.Values) {
		return false
	}
	for i := range s.Labels {
		if s.Labels[i] != other.Labels[i] {
			return false
		}
	}
	for i := range s.Values {
		if s.Values[i] != other.Values[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no backing arrays with s.
func (s ChartSeries) Clone() ChartSeries {
	out := ChartSeries{
		Labels: make([]string, len(s.Labels)),
		Values: make([]float64, len(s.Values)),
	}
	copy(out.Labels, s.Labels)
	copy(out.Values, s.Values)
	return out
}
