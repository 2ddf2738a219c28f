package logger

import (
	"context"
	"errors"
	log "log/slog"
)

// TeeHandler 同一条记录写给多个下游，某个下游失败不影响其余
type TeeHandler struct {
	handlers []log.Handler
}

func (s *TeeHandler) Enabled(ctx context.Context, level log.Level) bool {
	for _, h := range s.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (s *TeeHandler) Handle(ctx context.Context, r log.Record) error {
	var errs []error
	for _, h := range s.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *TeeHandler) WithAttrs(attrs []log.Attr) log.Handler {
	return &TeeHandler{handlers: s.each(func(h log.Handler) log.Handler { return h.WithAttrs(attrs) })}
}

func (s *TeeHandler) WithGroup(name string) log.Handler {
	return &TeeHandler{handlers: s.each(func(h log.Handler) log.Handler { return h.WithGroup(name) })}
}

func (s *TeeHandler) each(fn func(log.Handler) log.Handler) []log.Handler {
	res := make([]log.Handler, len(s.handlers))
	for i, h := range s.handlers {
		res[i] = fn(h)
	}
	return res
}

// RemoteFilterHandler 只上报带 trace_id 的记录和 Error 级别记录，启动期的噪音留在 stdout
type RemoteFilterHandler struct {
	next   log.Handler
	traced bool
}

func (s *RemoteFilterHandler) Enabled(ctx context.Context, level log.Level) bool {
	return s.next.Enabled(ctx, level)
}

func (s *RemoteFilterHandler) Handle(ctx context.Context, r log.Record) error {
	if s.traced || r.Level >= log.LevelError || recordHasTrace(r) {
		return s.next.Handle(ctx, r)
	}
	return nil
}

func (s *RemoteFilterHandler) WithAttrs(attrs []log.Attr) log.Handler {
	traced := s.traced
	for _, a := range attrs {
		if isTraceAttr(a) {
			traced = true
		}
	}
	return &RemoteFilterHandler{next: s.next.WithAttrs(attrs), traced: traced}
}

func (s *RemoteFilterHandler) WithGroup(name string) log.Handler {
	return &RemoteFilterHandler{next: s.next.WithGroup(name), traced: s.traced}
}

func recordHasTrace(r log.Record) bool {
	found := false
	r.Attrs(func(a log.Attr) bool {
		found = isTraceAttr(a)
		return !found
	})
	return found
}

func isTraceAttr(a log.Attr) bool {
	return a.Key == TraceIDKey && a.Value.String() != ""
}
