package exporter

// State tracks where a single pipeline run is in its lifecycle:
//
//	Idle → Connecting → Extracting → Transforming → Loading
//	     → {Committed | Skipped} → Disconnected
//
// Any stage may transition directly to Failed, which still passes through
// Disconnected so the store connection is always released.
type State string

const (
	StateIdle         State = "IDLE"
	StateConnecting   State = "CONNECTING"
	StateExtracting   State = "EXTRACTING"
	StateTransforming State = "TRANSFORMING"
	StateLoading      State = "LOADING"
	StateCommitted    State = "COMMITTED"
	StateSkipped      State = "SKIPPED"
	StateFailed       State = "FAILED"
	StateDisconnected State = "DISCONNECTED"
)

// IsTerminal returns true for the three outcomes a run can end in.
func (s State) IsTerminal() bool {
	return s == StateCommitted || s == StateSkipped || s == StateFailed
}
