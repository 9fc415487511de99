// Package privilege probes whether the current process may write to
// protected system locations and register OS services.
//
// The probe is evaluated fresh on every call: privileges can change
// between runs and must never be cached across invocations. Inability
// to determine the answer counts as "not elevated" — the pipeline
// degrades to a partial install rather than risking a half-privileged
// one.
package privilege

// Elevated reports whether the process can write protected paths. The
// probe never mutates anything.
func Elevated() bool {
	return elevated()
}
