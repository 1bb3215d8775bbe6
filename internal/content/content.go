// Package content loads the static tables the engine plays from: statuses,
// talents, shop items, clubs, weekend activities, achievements, events and
// contest problems. Tables are embedded yaml and read-only once loaded.
package content

import (
	"embed"
	"fmt"
	"sync"

	"github.com/tatianab/campus-life/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Catalog is the parsed set of content tables.
type Catalog struct {
	Statuses     []models.StatusTemplate
	Talents      []models.Talent
	Items        []models.Item
	Clubs        []models.Club
	Activities   []models.WeekendActivity
	Achievements []models.Achievement

	PhaseEvents map[models.Phase][]models.GameEvent
	Chains      []models.GameEvent
	Base        []models.GameEvent

	Pools      Pools
	OIProblems map[models.Phase][]models.OIProblem

	statusIndex map[string]models.StatusTemplate
	eventIndex  map[string]models.GameEvent
}

// Pools are the template tables the event generators draw from.
type Pools struct {
	Summer     []models.GameEvent `yaml:"summer"`
	FlavorGood []models.GameEvent `yaml:"flavor_good"`
	FlavorBad  []models.GameEvent `yaml:"flavor_bad"`
}

type eventFile struct {
	Phases map[models.Phase][]models.GameEvent `yaml:"phases"`
	Chains []models.GameEvent                  `yaml:"chains"`
	Base   []models.GameEvent                  `yaml:"base"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog, parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load()
	})
	return defaultCatalog, defaultErr
}

// Load parses the embedded tables into a new Catalog.
func Load() (*Catalog, error) {
	c := &Catalog{}
	files := []struct {
		name string
		dst  any
	}{
		{"statuses.yaml", &c.Statuses},
		{"talents.yaml", &c.Talents},
		{"items.yaml", &c.Items},
		{"clubs.yaml", &c.Clubs},
		{"activities.yaml", &c.Activities},
		{"achievements.yaml", &c.Achievements},
		{"pools.yaml", &c.Pools},
		{"oi_problems.yaml", &c.OIProblems},
	}
	for _, f := range files {
		if err := decode(f.name, f.dst); err != nil {
			return nil, err
		}
	}

	var events eventFile
	if err := decode("events.yaml", &events); err != nil {
		return nil, err
	}
	c.PhaseEvents = events.Phases
	c.Chains = events.Chains
	c.Base = events.Base

	if err := c.index(); err != nil {
		return nil, err
	}
	return c, nil
}

func decode(name string, dst any) error {
	data, err := dataFS.ReadFile("data/" + name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (c *Catalog) index() error {
	c.statusIndex = make(map[string]models.StatusTemplate, len(c.Statuses))
	for _, st := range c.Statuses {
		c.statusIndex[st.ID] = st
	}

	c.eventIndex = make(map[string]models.GameEvent)
	add := func(ev models.GameEvent) error {
		if ev.ID == "" {
			return fmt.Errorf("event %q has no id", ev.Title)
		}
		if _, dup := c.eventIndex[ev.ID]; dup {
			return fmt.Errorf("duplicate event id %q", ev.ID)
		}
		c.eventIndex[ev.ID] = ev
		return nil
	}
	for _, list := range c.PhaseEvents {
		for _, ev := range list {
			if err := add(ev); err != nil {
				return err
			}
		}
	}
	for _, ev := range c.Chains {
		if err := add(ev); err != nil {
			return err
		}
	}
	for _, ev := range c.Base {
		if err := add(ev); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) Status(id string) (models.StatusTemplate, bool) {
	st, ok := c.statusIndex[id]
	return st, ok
}

// Event looks an event id up across the phase, chain and base tables.
func (c *Catalog) Event(id string) (models.GameEvent, bool) {
	ev, ok := c.eventIndex[id]
	if !ok {
		return models.GameEvent{}, false
	}
	return ev.Clone(), true
}

func (c *Catalog) EventsFor(phase models.Phase) []models.GameEvent {
	return c.PhaseEvents[phase]
}

func (c *Catalog) Talent(id string) (models.Talent, bool) {
	for _, t := range c.Talents {
		if t.ID == id {
			return t, true
		}
	}
	return models.Talent{}, false
}

func (c *Catalog) Item(id string) (models.Item, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return models.Item{}, false
}

func (c *Catalog) Club(id string) (models.Club, bool) {
	for _, cl := range c.Clubs {
		if cl.ID == id {
			return cl, true
		}
	}
	return models.Club{}, false
}

func (c *Catalog) Activity(id string) (models.WeekendActivity, bool) {
	for _, a := range c.Activities {
		if a.ID == id {
			return a, true
		}
	}
	return models.WeekendActivity{}, false
}

func (c *Catalog) Achievement(id string) (models.Achievement, bool) {
	for _, a := range c.Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return models.Achievement{}, false
}
