package base

// ContextDefaultName is the name given to an auto-created context when a
// caller invokes Entry without one (§6).
const ContextDefaultName = `sentinel_default_context`

// Context is a per-logical-invocation container: a name, an origin (the
// caller's identity), an origin statistics node, and the current (top of
// stack) entry. It must not be used concurrently by more than one
// goroutine — callers own a Context for the lifetime of one logical
// invocation, the same way a context.Context is threaded explicitly
// through a call rather than recovered from goroutine-local state.
type Context struct {
	name       string
	origin     string
	originNode StatNode
	cur        *SentinelEntry
	null       bool
}

// NewContext constructs a Context for a logical invocation identified by
// name, attributed to the given origin (caller identity), consulting
// originNode for DIRECT rules whose limitApp matches the origin (§4.B).
func NewContext(name, origin string, originNode StatNode) *Context {
	return &Context{name: name, origin: origin, originNode: originNode}
}

// NewDefaultContext constructs the context auto-created when a caller
// invokes Entry without supplying one (§4.D step 2).
func NewDefaultContext() *Context {
	return &Context{name: ContextDefaultName}
}

// NullContext disables all rule checking for every Entry obtained while
// it is in effect, while still returning a well-formed, chain-less entry
// (§3 "Context"). It is a shared, immutable sentinel value: callers pass
// it explicitly rather than relying on ambient/goroutine-local state.
var NullContext = &Context{name: `sentinel_null_context`, null: true}

// IsNull reports whether this is the null-context sentinel.
func (c *Context) IsNull() bool { return c != nil && c.null }

// Name returns the context's name.
func (c *Context) Name() string { return c.name }

// Origin returns the caller identity attributed to this context.
func (c *Context) Origin() string { return c.origin }

// OriginNode returns the statistics node for this context's origin, or
// nil if none was supplied.
func (c *Context) OriginNode() StatNode { return c.originNode }

// CurEntry returns the entry currently on top of this context's call
// stack, or nil if the stack is empty.
func (c *Context) CurEntry() *SentinelEntry { return c.cur }
