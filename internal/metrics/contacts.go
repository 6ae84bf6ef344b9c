package metrics

import "github.com/san-kum/ballpit/internal/dynamo"

// Contacts counts constraint corrections over a run.
type Contacts struct {
	name  string
	total int
}

func NewContacts() *Contacts {
	return &Contacts{name: "contacts"}
}

func (c *Contacts) Name() string { return c.name }

func (c *Contacts) Observe(w dynamo.WorldView, s dynamo.StepStats) {
	c.total += s.Contacts
}

func (c *Contacts) Value() float64 { return float64(c.total) }

func (c *Contacts) Reset() { c.total = 0 }
