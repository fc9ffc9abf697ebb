package schedule

import (
	"cmp"
	"slices"
	"sort"
	"time"

	"raidscript/internal/util"
)

type (
	Group  uint32
	TaskID uint32
	Action func(*Context)
)

// Range is an inclusive delay interval. Min > Max collapses to Min.
type Range struct {
	Min time.Duration
	Max time.Duration
}

func Fixed(d time.Duration) Range { return Range{Min: d, Max: d} }

func Between(min, max time.Duration) Range {
	if max < min {
		max = min
	}
	return Range{Min: min, Max: max}
}

func (r Range) sample(src util.Source) time.Duration {
	return util.Between(src, r.Min, r.Max)
}

type task struct {
	due    time.Duration
	seq    uint64
	pass   uint64
	delay  Range
	repeat *Range
	action Action
	group  Group
	id     TaskID
}

type taskOptions struct {
	group  Group
	id     TaskID
	unique bool
	repeat *Range
}

type TaskOption func(*taskOptions)

func InGroup(g Group) TaskOption { return func(o *taskOptions) { o.group = g } }

// WithID tags the task. Several pending tasks may share an id.
func WithID(id TaskID) TaskOption { return func(o *taskOptions) { o.id = id } }

// Unique tags the task and cancels every pending task with the same id first.
func Unique(id TaskID) TaskOption {
	return func(o *taskOptions) {
		o.id = id
		o.unique = true
	}
}

// RepeatEvery re-enqueues the task after each run unless the action
// requested its own repeat.
func RepeatEvery(d time.Duration) TaskOption {
	return func(o *taskOptions) {
		r := Fixed(d)
		o.repeat = &r
	}
}

func RepeatBetween(min, max time.Duration) TaskOption {
	return func(o *taskOptions) {
		r := Between(min, max)
		o.repeat = &r
	}
}

// Scheduler is a deterministic task queue driven by Update.
// Pending tasks are ordered by due time, ties by insertion order.
type Scheduler struct {
	now       time.Duration
	seq       uint64
	pass      uint64
	tasks     []*task
	validator func() bool
	rng       util.Source
}

func New(rng util.Source) *Scheduler {
	if rng == nil {
		rng = util.New(1)
	}
	return &Scheduler{rng: rng}
}

func (s *Scheduler) Now() time.Duration { return s.now }
func (s *Scheduler) Len() int           { return len(s.tasks) }
func (s *Scheduler) Empty() bool        { return len(s.tasks) == 0 }

// SetValidator installs a predicate consulted before each task runs.
// While it returns false nothing executes and due tasks stay pending.
func (s *Scheduler) SetValidator(fn func() bool) *Scheduler {
	s.validator = fn
	return s
}

func (s *Scheduler) Schedule(delay time.Duration, fn Action, opts ...TaskOption) *Scheduler {
	return s.schedule(Fixed(delay), fn, opts)
}

func (s *Scheduler) ScheduleBetween(min, max time.Duration, fn Action, opts ...TaskOption) *Scheduler {
	return s.schedule(Between(min, max), fn, opts)
}

func (s *Scheduler) schedule(delay Range, fn Action, opts []TaskOption) *Scheduler {
	if fn == nil {
		return s
	}
	var o taskOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.unique && o.id != 0 {
		s.CancelID(o.id)
	}
	s.insert(&task{
		due:    s.now + delay.sample(s.rng),
		delay:  delay,
		repeat: o.repeat,
		action: fn,
		group:  o.group,
		id:     o.id,
	})
	return s
}

func (s *Scheduler) insert(t *task) {
	s.seq++
	t.seq = s.seq
	t.pass = s.pass
	i := sort.Search(len(s.tasks), func(i int) bool { return taskLess(t, s.tasks[i]) })
	s.tasks = slices.Insert(s.tasks, i, t)
}

func taskLess(a, b *task) bool {
	if a.due != b.due {
		return a.due < b.due
	}
	return a.seq < b.seq
}

func taskCmp(a, b *task) int {
	if c := cmp.Compare(a.due, b.due); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

// Update advances the clock by diff and runs every due task in order.
// Tasks added while Update is running wait for the next call, even when
// their due time has already passed. A panicking action aborts the pass
// and is reported as *TaskError.
func (s *Scheduler) Update(diff time.Duration) error {
	if diff > 0 {
		s.now += diff
	}
	s.pass++
	pass := s.pass
	for {
		if s.validator != nil && !s.validator() {
			return nil
		}
		i := s.nextDue(pass)
		if i < 0 {
			return nil
		}
		t := s.tasks[i]
		s.tasks = slices.Delete(s.tasks, i, i+1)
		if err := s.run(t); err != nil {
			return err
		}
	}
}

func (s *Scheduler) nextDue(pass uint64) int {
	for i, t := range s.tasks {
		if t.due > s.now {
			return -1
		}
		if t.pass < pass {
			return i
		}
	}
	return -1
}

func (s *Scheduler) run(t *task) (err error) {
	ctx := &Context{s: s, t: t}
	defer func() {
		ctx.done = true
		if r := recover(); r != nil {
			err = &TaskError{Group: t.group, ID: t.id, Due: t.due, Value: r}
		}
	}()
	t.action(ctx)
	if !ctx.repeated && t.repeat != nil {
		ctx.requeue(*t.repeat)
	}
	return nil
}

func (s *Scheduler) CancelAll() { s.tasks = s.tasks[:0] }

func (s *Scheduler) CancelGroup(g Group) {
	s.tasks = slices.DeleteFunc(s.tasks, func(t *task) bool { return t.group == g })
}

func (s *Scheduler) CancelID(id TaskID) {
	s.tasks = slices.DeleteFunc(s.tasks, func(t *task) bool { return t.id == id })
}

// DelayAll pushes every pending task back by d. Relative order is kept.
func (s *Scheduler) DelayAll(d time.Duration) {
	for _, t := range s.tasks {
		t.due += d
	}
}

func (s *Scheduler) DelayGroup(g Group, d time.Duration) {
	s.shift(func(t *task) bool { return t.group == g }, func(t *task) { t.due += d })
}

func (s *Scheduler) DelayID(id TaskID, d time.Duration) {
	s.shift(func(t *task) bool { return t.id == id }, func(t *task) { t.due += d })
}

// RescheduleGroup sets the remaining time of every task in g to d.
func (s *Scheduler) RescheduleGroup(g Group, d time.Duration) {
	s.shift(func(t *task) bool { return t.group == g }, func(t *task) { t.due = s.now + d })
}

func (s *Scheduler) shift(match func(*task) bool, apply func(*task)) {
	changed := false
	for _, t := range s.tasks {
		if match(t) {
			apply(t)
			changed = true
		}
	}
	if changed {
		slices.SortFunc(s.tasks, taskCmp)
	}
}

func (s *Scheduler) IsGroupScheduled(g Group) bool {
	return slices.ContainsFunc(s.tasks, func(t *task) bool { return t.group == g })
}

// NextDue reports the time left until the earliest pending task with id.
func (s *Scheduler) NextDue(id TaskID) (time.Duration, bool) {
	for _, t := range s.tasks {
		if t.id == id {
			return max(t.due-s.now, 0), true
		}
	}
	return 0, false
}

// Reset drops every task and rewinds the clock. The validator is kept.
func (s *Scheduler) Reset() {
	s.tasks = s.tasks[:0]
	s.now = 0
}
