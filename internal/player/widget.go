// Package player drives an embedded video widget from custom transport
// controls and keeps an optimistic timeline over the widget's lagging clock.
package player

// State mirrors the embedded widget's playback states.
type State int

const (
	StateUnstarted State = -1
	StateEnded     State = 0
	StatePlaying   State = 1
	StatePaused    State = 2
	StateBuffering State = 3
	StateCued      State = 5
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	}
	return "unknown"
}

// Widget is the subset of the embed API the controller needs.
type Widget interface {
	Play()
	Pause()
	Stop()
	SeekTo(seconds float64)
	Cue(videoID string, startSeconds float64)
	CurrentTime() float64
	Duration() float64
	State() State
}

// VolumeController is implemented by widgets that expose volume control.
type VolumeController interface {
	SetVolume(volume int)
	Mute()
	Unmute()
}

// RateController is implemented by widgets that support playback speed.
type RateController interface {
	SetPlaybackRate(rate float64)
}

// QualityController is implemented by widgets that expose quality levels.
type QualityController interface {
	AvailableQualities() []string
	SetQuality(level string)
}

// Events are delivered asynchronously, never from inside a Widget or
// API.NewWidget call.
type Events struct {
	OnReady         func()
	OnStateChange   func(State)
	OnQualityChange func(level string)
}

type WidgetOptions struct {
	Mount        string
	VideoID      string
	StartSeconds float64
	Autoplay     bool
	Controls     bool
	Quality      string
}

// API is the embed library loaded into the page.
type API interface {
	// Available reports whether the widget constructor has loaded.
	Available() bool
	NewWidget(opts WidgetOptions, events Events) (Widget, error)
}
