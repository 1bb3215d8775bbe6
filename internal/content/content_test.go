package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tatianab/campus-life/internal/models"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, c.Statuses)
	assert.NotEmpty(t, c.Talents)
	assert.NotEmpty(t, c.Items)
	assert.NotEmpty(t, c.Clubs)
	assert.NotEmpty(t, c.Activities)
	assert.NotEmpty(t, c.Achievements)
	assert.NotEmpty(t, c.Pools.Summer)
	assert.NotEmpty(t, c.Pools.FlavorGood)
	assert.NotEmpty(t, c.Pools.FlavorBad)
	assert.Len(t, c.OIProblems[models.PhaseCSP], 4)
	assert.Len(t, c.OIProblems[models.PhaseNOIP], 4)

	for _, phase := range []models.Phase{models.PhaseSummer, models.PhaseMilitary, models.PhaseSemester} {
		assert.NotEmpty(t, c.EventsFor(phase), "phase %s has no events", phase)
	}
}

func TestDefaultIsShared(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestStatusTicks(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	cases := map[string]models.GeneralStats{
		"anxious":       {Mindset: -1.5},
		"exhausted":     {Health: -1.5},
		"focused":       {Efficiency: 0.5},
		"in_love":       {Mindset: 2},
		"debt":          {Mindset: -2, Romance: -0.5},
		"crush_pending": {Luck: 0.5, Experience: 0.5},
		"crush":         {Efficiency: -0.4, Romance: 0.5},
	}
	for id, want := range cases {
		st, ok := c.Status(id)
		require.True(t, ok, id)
		assert.Equal(t, want, st.Tick, id)
	}

	for _, id := range []string{"debt_1", "debt_2", "debt_3", "debt_4", "debt_5"} {
		_, ok := c.Status(id)
		assert.True(t, ok, id)
	}

	debt, _ := c.Status("debt")
	assert.Equal(t, 1, debt.DefaultDuration)
}

func TestEventLinksResolve(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	check := func(ev models.GameEvent) {
		assert.NotEmpty(t, ev.Choices, "event %s has no choices", ev.ID)
		for _, ch := range ev.Choices {
			if ch.NextEventID == "" {
				continue
			}
			_, ok := c.Event(ch.NextEventID)
			assert.True(t, ok, "event %s chains to unknown %s", ev.ID, ch.NextEventID)
		}
		for _, g := range ev.Choices {
			for _, grant := range g.Effect.Statuses {
				_, ok := c.Status(grant.ID)
				assert.True(t, ok, "event %s grants unknown status %s", ev.ID, grant.ID)
			}
		}
	}
	for _, list := range c.PhaseEvents {
		for _, ev := range list {
			check(ev)
		}
	}
	for _, ev := range c.Chains {
		check(ev)
	}
	for _, ev := range c.Base {
		check(ev)
	}

	for _, id := range []string{"debt_collection", "exam_fail_talk"} {
		_, ok := c.Event(id)
		assert.True(t, ok, id)
	}
}

func TestEventReturnsCopy(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	ev, ok := c.Event("debt_collection")
	require.True(t, ok)
	ev.Choices[0].Text = "changed"

	again, _ := c.Event("debt_collection")
	assert.NotEqual(t, "changed", again.Choices[0].Text)
}

func TestLookups(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, ok := c.Talent("genius")
	assert.True(t, ok)
	_, ok = c.Item("lucky_charm")
	assert.True(t, ok)
	_, ok = c.Club("robotics")
	assert.True(t, ok)
	_, ok = c.Activity("date")
	assert.True(t, ok)
	_, ok = c.Achievement("oi_legend")
	assert.True(t, ok)

	_, ok = c.Club("chess")
	assert.False(t, ok)
	_, ok = c.Event("nope")
	assert.False(t, ok)
}
