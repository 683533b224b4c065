package events

// Event type constants for kelindar/event.
const (
	TypeCCSent uint32 = iota + 1
	TypeCCReceived
	TypeCCDropped
	TypeTrackCount
	TypeEnabledChanged
	TypeControlError
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// CCSentEvent is published for every control change sent to the host.
type CCSentEvent struct {
	Control string
	CC      uint8
	Value   uint8
}

// Type returns the event type identifier for CCSentEvent.
func (e CCSentEvent) Type() uint32 { return TypeCCSent }

// CCReceivedEvent is published for every inbound control change that was
// routed, including track-count updates.
type CCReceivedEvent struct {
	CC    uint8
	Value uint8
	// Matched is false when no control owns the CC.
	Matched bool
}

// Type returns the event type identifier for CCReceivedEvent.
func (e CCReceivedEvent) Type() uint32 { return TypeCCReceived }

// CCDroppedEvent is published when an inbound message could not be queued.
type CCDroppedEvent struct {
	CC     uint8
	Value  uint8
	Reason string
}

// Type returns the event type identifier for CCDroppedEvent.
func (e CCDroppedEvent) Type() uint32 { return TypeCCDropped }

// TrackCountEvent is published after a track-count broadcast is applied.
type TrackCountEvent struct {
	Count   uint8
	Enabled int
	Ignored bool
}

// Type returns the event type identifier for TrackCountEvent.
func (e TrackCountEvent) Type() uint32 { return TypeTrackCount }

// EnabledChangedEvent is published when a control actually changes state.
type EnabledChangedEvent struct {
	Control string
	Track   uint8
	Enabled bool
}

// Type returns the event type identifier for EnabledChangedEvent.
func (e EnabledChangedEvent) Type() uint32 { return TypeEnabledChanged }

// ControlErrorEvent is published when a control's hardware access fails.
type ControlErrorEvent struct {
	Control string
	Op      string
	Err     string
}

// Type returns the event type identifier for ControlErrorEvent.
func (e ControlErrorEvent) Type() uint32 { return TypeControlError }
