package models

// Effect is the data form of a state change. Numeric fields are additive
// deltas. Variant names one of the few effects that need randomness or
// branching; the engine owns their implementations.
type Effect struct {
	General      GeneralStats        `yaml:"general,omitempty" json:"general,omitempty"`
	Subjects     map[Subject]float64 `yaml:"subjects,omitempty" json:"subjects,omitempty"`
	AllSubjects  float64             `yaml:"all_subjects,omitempty" json:"all_subjects,omitempty"`
	Aptitude     map[Subject]float64 `yaml:"aptitude,omitempty" json:"aptitude,omitempty"`
	AllAptitude  float64             `yaml:"all_aptitude,omitempty" json:"all_aptitude,omitempty"`
	OI           OIStats             `yaml:"oi,omitempty" json:"oi,omitempty"`
	Statuses     []StatusGrant       `yaml:"statuses,omitempty" json:"statuses,omitempty"`
	Cure         []string            `yaml:"cure,omitempty" json:"cure,omitempty"`
	Items        []string            `yaml:"items,omitempty" json:"items,omitempty"`
	Partner      string              `yaml:"partner,omitempty" json:"partner,omitempty"`
	ClearPartner bool                `yaml:"clear_partner,omitempty" json:"clear_partner,omitempty"`
	Message      string              `yaml:"message,omitempty" json:"message,omitempty"`
	Variant      string              `yaml:"variant,omitempty" json:"variant,omitempty"`
}

// StatusGrant applies a status; a zero Duration uses the template default.
type StatusGrant struct {
	ID       string `yaml:"id" json:"id"`
	Duration int    `yaml:"duration,omitempty" json:"duration,omitempty"`
}

func (e Effect) Clone() Effect {
	c := e
	if e.Subjects != nil {
		c.Subjects = make(map[Subject]float64, len(e.Subjects))
		for k, v := range e.Subjects {
			c.Subjects[k] = v
		}
	}
	if e.Aptitude != nil {
		c.Aptitude = make(map[Subject]float64, len(e.Aptitude))
		for k, v := range e.Aptitude {
			c.Aptitude[k] = v
		}
	}
	c.Statuses = append([]StatusGrant(nil), e.Statuses...)
	c.Cure = append([]string(nil), e.Cure...)
	c.Items = append([]string(nil), e.Items...)
	return c
}
