package base

import (
	"strconv"

	"github.com/joeycumines/go-utilpkg/jsonenc"
)

// TrafficType describes which side of a call a resource represents.
type TrafficType int32

const (
	// Outbound marks a resource as a call this process makes to something
	// else (a downstream dependency).
	Outbound TrafficType = iota
	// Inbound marks a resource as a call this process receives.
	Inbound
)

func (t TrafficType) String() string {
	switch t {
	case Inbound:
		return `Inbound`
	case Outbound:
		return `Outbound`
	default:
		return `Unknown`
	}
}

// ResourceKind distinguishes a free-form resource name from one derived
// from a fully qualified method descriptor.
type ResourceKind int32

const (
	// KindString is a plain, user supplied resource name.
	KindString ResourceKind = iota
	// KindMethod is a resource name derived from a method descriptor, e.g.
	// a gRPC full method name.
	KindMethod
)

// ResourceWrapper is an immutable resource identifier. Two wrappers are
// equal, and hash identically as map keys, iff all three fields match —
// this equality is what the slot-chain registry (ChainRegistry) keys on.
type ResourceWrapper struct {
	name string
	typ  TrafficType
	kind ResourceKind
}

// NewResource constructs a ResourceWrapper for a plain, user supplied name.
func NewResource(name string, typ TrafficType) ResourceWrapper {
	return ResourceWrapper{name: name, typ: typ, kind: KindString}
}

// NewMethodResource constructs a ResourceWrapper for a fully qualified
// method descriptor (e.g. "/pkg.Service/Method").
func NewMethodResource(descriptor string, typ TrafficType) ResourceWrapper {
	return ResourceWrapper{name: descriptor, typ: typ, kind: KindMethod}
}

// Name returns the resource's name (or method descriptor).
func (r ResourceWrapper) Name() string { return r.name }

// TrafficType returns whether this is an inbound or outbound resource.
func (r ResourceWrapper) TrafficType() TrafficType { return r.typ }

// Kind returns whether the name is a plain string or a method descriptor.
func (r ResourceWrapper) Kind() ResourceKind { return r.kind }

// String renders a human-readable form, used in logs and error messages.
func (r ResourceWrapper) String() string {
	return r.name + `{type=` + r.typ.String() + `, kind=` + strconv.Itoa(int(r.kind)) + `}`
}

// MarshalJSON renders the resource for structured logging (internal/xlog)
// and diagnostics, using the corpus's jsonenc helper to escape the name
// rather than hand-rolling escaping; the numeric fields are written with
// strconv.
func (r ResourceWrapper) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, len(r.name)+48)
	buf = append(buf, `{"name":`...)
	buf = jsonenc.AppendString(buf, r.name)
	buf = append(buf, `,"type":`...)
	buf = strconv.AppendInt(buf, int64(r.typ), 10)
	buf = append(buf, `,"kind":`...)
	buf = strconv.AppendInt(buf, int64(r.kind), 10)
	buf = append(buf, '}')
	return buf, nil
}
