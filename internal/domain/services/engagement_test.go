package services

import (
	"testing"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/event"
	"github.com/beaconview/beaconview-go/internal/domain/visitor"
	"github.com/stretchr/testify/assert"
)

func testVisitor(lastSeen time.Time, sessions, pageviews int) *visitor.Visitor {
	return &visitor.Visitor{
		VisitorID:      "v1",
		LastSeen:       lastSeen,
		TotalSessions:  sessions,
		TotalPageviews: pageviews,
	}
}

func TestScoreFreshSingleSessionVisitor(t *testing.T) {
	scorer := NewEngagementScorer()
	now := time.Now().UTC()

	// Seen just now, one session, one pageview, no exits, no intent.
	// recency 25 + frequency 5 + depth 3 = 33
	v := testVisitor(now, 1, 1)
	score := scorer.Score(v, nil, now)
	assert.Equal(t, 33, score)
}

func TestScoreRecencyDecays(t *testing.T) {
	scorer := NewEngagementScorer()
	now := time.Now().UTC()

	// 20 hours ago: recency 25 - 20*0.5 = 15
	v := testVisitor(now.Add(-20*time.Hour), 1, 1)
	assert.Equal(t, 23, scorer.Score(v, nil, now))

	// 50+ hours ago the recency component bottoms out at zero.
	stale := testVisitor(now.Add(-72*time.Hour), 1, 1)
	assert.Equal(t, 8, scorer.Score(stale, nil, now))
}

func TestScoreFutureLastSeenDoesNotInflate(t *testing.T) {
	scorer := NewEngagementScorer()
	now := time.Now().UTC()

	// A clock-skewed lastSeen in the future is treated as "just now".
	v := testVisitor(now.Add(10*time.Hour), 1, 1)
	assert.Equal(t, 33, scorer.Score(v, nil, now))
}

func TestScoreFrequencyAndDepthCap(t *testing.T) {
	scorer := NewEngagementScorer()
	now := time.Now().UTC()

	// 10 sessions caps frequency at 25; 100 pageviews over 10 sessions
	// caps depth at 15. recency 25 + 25 + 15 = 65
	v := testVisitor(now, 10, 100)
	assert.Equal(t, 65, scorer.Score(v, nil, now))
}

func TestScoreScrollComponent(t *testing.T) {
	scorer := NewEngagementScorer()
	now := time.Now().UTC()
	v := testVisitor(now, 1, 1)

	events := []*event.Event{
		event.New("s1", "v1", "sess1", event.TypeExit, now, map[string]any{"scrollDepth": 80.0}),
		event.New("s1", "v1", "sess1", event.TypeExit, now, map[string]any{"scrollDepth": 40.0}),
		// Exit without depth is excluded from the average.
		event.New("s1", "v1", "sess1", event.TypeExit, now, nil),
	}

	// base 33 + avg(80,40)/10 = 33 + 6
	assert.Equal(t, 39, scorer.Score(v, events, now))
}

func TestScoreHighIntentPage(t *testing.T) {
	scorer := NewEngagementScorer()
	now := time.Now().UTC()
	v := testVisitor(now, 1, 1)

	events := []*event.Event{
		event.New("s1", "v1", "sess1", event.TypePageview, now, map[string]any{"page": "/Pricing/plans"}),
	}

	// base 33 + intent 15; keyword match is case-insensitive.
	assert.Equal(t, 48, scorer.Score(v, events, now))
}

func TestScoreIdentifiedBonus(t *testing.T) {
	scorer := NewEngagementScorer()
	now := time.Now().UTC()
	v := testVisitor(now, 1, 1)
	v.Identified = true

	assert.Equal(t, 43, scorer.Score(v, nil, now))
}

func TestScoreClampsAtHundred(t *testing.T) {
	scorer := NewEngagementScorer()
	now := time.Now().UTC()

	v := testVisitor(now, 20, 500)
	v.Identified = true
	events := []*event.Event{
		event.New("s1", "v1", "sess1", event.TypePageview, now, map[string]any{"page": "/contact"}),
		event.New("s1", "v1", "sess1", event.TypeExit, now, map[string]any{"scrollDepth": 100.0}),
	}

	// 25 + 25 + 15 + 10 + 15 + 10 = 100; nothing can exceed it.
	assert.Equal(t, 100, scorer.Score(v, events, now))
}
