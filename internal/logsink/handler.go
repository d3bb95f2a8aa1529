package logsink

import (
	"context"
	"log/slog"
)

// StackKey is the attribute key whose value is stored as the entry stack.
const StackKey = "stack"

// Handler forwards every record to next and copies records at or above
// level into the sink.
type Handler struct {
	next   slog.Handler
	sink   *Sink
	level  slog.Leveler
	attrs  []groupedAttr
	groups []string
}

// groupedAttr is an attribute together with the groups open when it was
// added.
type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

func NewHandler(next slog.Handler, sink *Sink, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}

	return &Handler{next: next, sink: sink, level: level}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level) || level >= h.level.Level()
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level.Level() {
		h.sink.Enqueue(h.entry(r))
	}

	if !h.next.Enabled(ctx, r.Level) {
		return nil
	}

	return h.next.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	c.next = h.next.WithAttrs(attrs)

	for _, a := range attrs {
		c.attrs = append(c.attrs, groupedAttr{groups: h.groups, attr: a})
	}

	return c
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := h.clone()
	c.next = h.next.WithGroup(name)
	c.groups = append(c.groups, name)

	return c
}

func (h *Handler) clone() *Handler {
	return &Handler{
		next:   h.next,
		sink:   h.sink,
		level:  h.level,
		attrs:  append([]groupedAttr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *Handler) entry(r slog.Record) Entry {
	e := Entry{
		Level:     r.Level.String(),
		Message:   r.Message,
		CreatedAt: r.Time,
	}

	fields := make(map[string]any, len(h.attrs)+r.NumAttrs())

	add := func(groups []string, a slog.Attr) {
		if a.Key == StackKey && len(groups) == 0 {
			e.Stack = a.Value.String()
			return
		}

		put(fields, groups, a)
	}

	for _, ga := range h.attrs {
		add(ga.groups, ga.attr)
	}

	r.Attrs(func(a slog.Attr) bool {
		add(h.groups, a)
		return true
	})

	if len(fields) > 0 {
		e.Context = fields
	}

	return e
}

// put stores a in m under the nested maps named by groups, merging with
// whatever those maps already hold.
func put(m map[string]any, groups []string, a slog.Attr) {
	for _, g := range groups {
		sub, ok := m[g].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			m[g] = sub
		}

		m = sub
	}

	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		if a.Key != "" {
			m[a.Key] = value(v)
		}

		return
	}

	// Inline groups with an empty key, as slog does.
	if a.Key == "" {
		for _, ga := range v.Group() {
			put(m, nil, ga)
		}

		return
	}

	for _, ga := range v.Group() {
		put(m, []string{a.Key}, ga)
	}
}

func value(v slog.Value) any {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindGroup:
		m := make(map[string]any)
		for _, a := range v.Group() {
			m[a.Key] = value(a.Value)
		}

		return m
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}

		return v.Any()
	case slog.KindTime:
		return v.Time()
	case slog.KindDuration:
		return v.Duration().String()
	default:
		return v.Any()
	}
}
