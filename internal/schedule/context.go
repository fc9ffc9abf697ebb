package schedule

import "time"

// Context is handed to a running action. It is only meaningful while the
// action runs; repeat requests made after it returns are ignored.
type Context struct {
	s        *Scheduler
	t        *task
	repeated bool
	done     bool
}

func (c *Context) Scheduler() *Scheduler { return c.s }
func (c *Context) Group() Group          { return c.t.group }
func (c *Context) ID() TaskID            { return c.t.id }

// Repeated reports whether a repeat was already requested for this run.
func (c *Context) Repeated() bool { return c.repeated }

// Repeat re-enqueues the task with a fresh sample of its original delay.
func (c *Context) Repeat() { c.requeueOnce(c.t.delay) }

// RepeatAfter re-enqueues the task d after its due time, for this cycle only.
func (c *Context) RepeatAfter(d time.Duration) { c.requeueOnce(Fixed(d)) }

func (c *Context) RepeatBetween(min, max time.Duration) { c.requeueOnce(Between(min, max)) }

func (c *Context) requeueOnce(r Range) {
	if c.repeated || c.done {
		return
	}
	c.requeue(r)
}

// requeue measures from the previous due time so cadence does not drift
// with tick granularity.
func (c *Context) requeue(r Range) {
	c.repeated = true
	t := c.t
	c.s.insert(&task{
		due:    t.due + r.sample(c.s.rng),
		delay:  t.delay,
		repeat: t.repeat,
		action: t.action,
		group:  t.group,
		id:     t.id,
	})
}

func (c *Context) Schedule(delay time.Duration, fn Action, opts ...TaskOption) *Context {
	c.s.Schedule(delay, fn, opts...)
	return c
}

func (c *Context) ScheduleBetween(min, max time.Duration, fn Action, opts ...TaskOption) *Context {
	c.s.ScheduleBetween(min, max, fn, opts...)
	return c
}
