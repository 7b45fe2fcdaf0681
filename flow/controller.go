package flow

import "github.com/Allchin/Sentinel/base"

// Controller is the admission decision procedure associated with a rule's
// control behavior (§9 "Polymorphic controller"). A closed set of
// implementations back it — Default, Warm-Up, and the out-of-scope-but-
// wire-compatible Rate-Limiter stub — so no class hierarchy is needed.
type Controller interface {
	// CanPass reports whether acquireCount further units of capacity may
	// be admitted right now, against node's observed traffic.
	CanPass(node base.StatNode, acquireCount int64) bool
}
