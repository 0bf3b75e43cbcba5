// Package services provides domain-level computation services.
package services

import (
	"math"
	"strings"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/event"
	"github.com/beaconview/beaconview-go/internal/domain/visitor"
)

// highIntentKeywords flag page paths that signal buying intent.
var highIntentKeywords = []string{"contact", "pricing", "demo", "services", "consultation"}

// EngagementScorer computes the derived 0-100 engagement score for a
// visitor. The score is never authoritative state; it is recomputed from
// the visitor and its events on every ingestion.
type EngagementScorer struct{}

// NewEngagementScorer creates an engagement scorer.
func NewEngagementScorer() *EngagementScorer {
	return &EngagementScorer{}
}

// Score computes the engagement score for a visitor given that visitor's
// events, evaluated at the given time. Components are additive and the
// result is rounded and clamped to [0, 100]:
//
//	recency    max(0, 25 - hoursSinceLastSeen * 0.5)
//	frequency  min(25, totalSessions * 5)
//	depth      min(15, avgPageviewsPerSession * 3)
//	scroll     min(10, avgExitScrollDepth / 10)
//	intent     +15 when any event page matches a high-intent keyword
//	identified +10
func (s *EngagementScorer) Score(v *visitor.Visitor, events []*event.Event, now time.Time) int {
	score := 0.0

	hoursSinceLastSeen := now.Sub(v.LastSeen).Hours()
	if hoursSinceLastSeen < 0 {
		hoursSinceLastSeen = 0
	}
	score += math.Max(0, 25-hoursSinceLastSeen*0.5)

	score += math.Min(25, float64(v.TotalSessions)*5)

	if v.TotalSessions > 0 {
		avgPageviews := float64(v.TotalPageviews) / float64(v.TotalSessions)
		score += math.Min(15, avgPageviews*3)
	}

	if avg, ok := averageExitScrollDepth(events); ok {
		score += math.Min(10, avg/10)
	}

	if hasHighIntentPage(events) {
		score += 15
	}

	if v.Identified {
		score += 10
	}

	final := int(math.Round(score))
	if final > 100 {
		final = 100
	}
	if final < 0 {
		final = 0
	}
	return final
}

// averageExitScrollDepth averages the scroll-depth values carried by the
// visitor's exit events. Exit events without a scroll depth are ignored.
func averageExitScrollDepth(events []*event.Event) (float64, bool) {
	total := 0.0
	count := 0
	for _, e := range events {
		if e.Type != event.TypeExit {
			continue
		}
		if depth, ok := e.ScrollDepth(); ok {
			total += depth
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return total / float64(count), true
}

func hasHighIntentPage(events []*event.Event) bool {
	for _, e := range events {
		page := strings.ToLower(e.Page())
		if page == "" {
			continue
		}
		for _, keyword := range highIntentKeywords {
			if strings.Contains(page, keyword) {
				return true
			}
		}
	}
	return false
}
