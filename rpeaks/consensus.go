package rpeaks

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/maastricht-university/ecg-pipeline/ecg"
)

// Consensus runs a Locator on every lead and keeps the beats seen on
// enough leads.
type Consensus struct {
	Locator     Locator
	ToleranceMs float64 // max spread of one beat across leads
	MinLeads    int     // 0: half of the leads, rounded up
}

// Result holds the merged sequence and the per-lead detections it was
// built from, index-aligned with the waveform's leads.
type Result struct {
	Peaks   []int   `json:"peaks"`
	PerLead [][]int `json:"per_lead"`
}

// Locate detects peaks lead by lead in parallel and merges them. It fails
// with ecg.ErrNoPeaksDetected when no beat reaches the lead quorum.
func (c Consensus) Locate(ctx context.Context, w ecg.Waveform) (Result, error) {
	if err := w.Validate(); err != nil {
		return Result{}, err
	}
	if c.Locator == nil {
		return Result{}, fmt.Errorf("consensus: no locator")
	}
	perLead := make([][]int, w.NumLeads())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, sig := range w.Signals {
		i, sig := i, sig
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := c.Locator.Locate(sig, w.Fs)
			if err != nil {
				return fmt.Errorf("lead %d: %w", i, err)
			}
			perLead[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	quorum := c.MinLeads
	if quorum <= 0 {
		quorum = (w.NumLeads() + 1) / 2
	}
	peaks := Merge(perLead, ecg.MsToSamples(c.ToleranceMs, w.Fs), quorum)
	if len(peaks) == 0 {
		return Result{PerLead: perLead}, fmt.Errorf("%w: no beat on %d of %d leads", ecg.ErrNoPeaksDetected, quorum, w.NumLeads())
	}
	return Result{Peaks: peaks, PerLead: perLead}, nil
}

type hit struct{ pos, lead int }

// Merge groups detections lying within tol samples of the first member of
// their group. A group backed by at least quorum distinct leads yields one
// peak at the median position.
func Merge(perLead [][]int, tol, quorum int) []int {
	var hits []hit
	for l, ps := range perLead {
		for _, p := range ps {
			hits = append(hits, hit{p, l})
		}
	}
	sort.Slice(hits, func(a, b int) bool { return hits[a].pos < hits[b].pos })

	var out []int
	for i := 0; i < len(hits); {
		j := i
		leads := map[int]bool{}
		for j < len(hits) && hits[j].pos-hits[i].pos <= tol {
			leads[hits[j].lead] = true
			j++
		}
		if len(leads) >= quorum {
			p := hits[i+(j-i)/2].pos
			if len(out) == 0 || p > out[len(out)-1] {
				out = append(out, p)
			}
		}
		i = j
	}
	return out
}
