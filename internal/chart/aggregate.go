// Package chart derives the per-day trend and ranked series for one month
// of expenses and republishes them when the data, month or chart type change.
package chart

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"

	"homemoney/internal/core"
	"homemoney/internal/log"
)

const dayKeyLayout = "2006-01-02"

// Aggregate sums amounts per calendar day for the records falling in month.
// trend lists days in ascending order; ranked lists the same days by
// descending sum, keeping day order on ties. Records with an unparseable
// time or a non-finite amount are skipped.
func Aggregate(records []core.ExpenseRecord, month core.MonthKey, logger *log.Logger) (trend, ranked core.ChartSeries) {
	sums := make(map[string]float64)
	for i, r := range records {
		t, err := core.ParseDate(r.Time)
		if err != nil {
			if logger != nil {
				logger.Warn("Skipping record with invalid time",
					log.FieldOperation, log.OpAggregate, "index", i, log.FieldTime, r.Time)
			}
			continue
		}
		if !month.Contains(t) {
			continue
		}
		if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
			if logger != nil {
				logger.Warn("Skipping record with invalid amount",
					log.FieldOperation, log.OpAggregate, "index", i, log.FieldAmount, r.Amount)
			}
			continue
		}
		sums[t.Format(dayKeyLayout)] += r.Amount
	}

	days := make([]string, 0, len(sums))
	for day := range sums {
		days = append(days, day)
	}
	sort.Strings(days)

	trend = seriesFor(days, sums)

	byValue := append([]string(nil), days...)
	sort.SliceStable(byValue, func(i, j int) bool {
		return sums[byValue[i]] > sums[byValue[j]]
	})
	ranked = seriesFor(byValue, sums)

	return trend, ranked
}

func seriesFor(days []string, sums map[string]float64) core.ChartSeries {
	s := core.ChartSeries{
		Labels: make([]string, 0, len(days)),
		Values: make([]float64, 0, len(days)),
	}
	for _, day := range days {
		// MM-DD
		s.Labels = append(s.Labels, day[5:])
		s.Values = append(s.Values, sums[day])
	}
	return s
}

// Fingerprint hashes the records of month in order. Two collections with the
// same fingerprint for a month aggregate to the same series.
func Fingerprint(records []core.ExpenseRecord, month core.MonthKey) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, r := range records {
		t, err := core.ParseDate(r.Time)
		if err != nil || !month.Contains(t) {
			continue
		}
		h.Write([]byte(t.Format(dayKeyLayout)))
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(r.Amount))
		h.Write(buf[:])
	}
	return h.Sum64()
}
