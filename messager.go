package eo3

// Messager creates messages that all share one context and counts the
// error-level messages it has produced.
//
// A Messager is not safe for concurrent use; give each validation run its own.
type Messager struct {
	context map[string]string
	errors  int
}

// NewMessager returns a Messager tagging messages with a copy of context.
func NewMessager(context map[string]string) *Messager {
	m := &Messager{context: map[string]string{}}
	for k, v := range context {
		m.context[k] = v
	}
	return m
}

// Context returns a copy of the shared context.
func (m *Messager) Context() map[string]string {
	out := make(map[string]string, len(m.context))
	for k, v := range m.context {
		out[k] = v
	}
	return out
}

// Get returns one context value.
func (m *Messager) Get(key string) string { return m.context[key] }

// Set updates one context value. Messages created earlier are unaffected.
func (m *Messager) Set(key, value string) { m.context[key] = value }

func (m *Messager) Info(code, reason string, hint ...string) Message {
	return m.build(Info, code, reason, hint)
}

func (m *Messager) Warning(code, reason string, hint ...string) Message {
	return m.build(Warning, code, reason, hint)
}

func (m *Messager) Error(code, reason string, hint ...string) Message {
	m.errors++
	return m.build(Error, code, reason, hint)
}

// ErrorCount is the number of error messages created so far.
func (m *Messager) ErrorCount() int { return m.errors }

// Sub returns a fresh Messager whose context extends this one with the
// given key/value pairs. Its error count starts at zero.
func (m *Messager) Sub(kv ...string) *Messager {
	sub := NewMessager(m.context)
	for i := 0; i+1 < len(kv); i += 2 {
		sub.context[kv[i]] = kv[i+1]
	}
	return sub
}

func (m *Messager) build(l Level, code, reason string, hint []string) Message {
	msg := NewMessage(l, code, reason, hint...)
	msg.Context = m.Context()
	return msg
}
