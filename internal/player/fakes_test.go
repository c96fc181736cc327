package player

import (
	"sync"
)

type fakeWidget struct {
	mu        sync.Mutex
	state     State
	current   float64
	duration  float64
	seeks     []float64
	cues      []string
	plays     int
	pauses    int
	stops     int
	volume    int
	muted     bool
	rate      float64
	available []string
	qualities []string
}

func (w *fakeWidget) Play() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.plays++
	w.state = StatePlaying
}

func (w *fakeWidget) Pause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pauses++
	w.state = StatePaused
}

func (w *fakeWidget) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stops++
	w.state = StateUnstarted
}

func (w *fakeWidget) SeekTo(s float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seeks = append(w.seeks, s)
}

func (w *fakeWidget) Cue(id string, start float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cues = append(w.cues, id)
	w.current = start
	w.state = StateCued
}

func (w *fakeWidget) CurrentTime() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *fakeWidget) Duration() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.duration
}

func (w *fakeWidget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *fakeWidget) SetVolume(v int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.volume = v
}

func (w *fakeWidget) Mute() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.muted = true
}

func (w *fakeWidget) Unmute() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.muted = false
}

func (w *fakeWidget) SetPlaybackRate(r float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rate = r
}

func (w *fakeWidget) AvailableQualities() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.available
}

func (w *fakeWidget) SetQuality(level string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.qualities = append(w.qualities, level)
}

func (w *fakeWidget) set(state State, current float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = state
	w.current = current
}

type fakeAPI struct {
	mu        sync.Mutex
	available bool
	probes    int
	widget    *fakeWidget
	opts      []WidgetOptions
	events    Events
}

func (a *fakeAPI) Available() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.probes++
	return a.available
}

func (a *fakeAPI) NewWidget(opts WidgetOptions, ev Events) (Widget, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.opts = append(a.opts, opts)
	a.events = ev
	return a.widget, nil
}

func (a *fakeAPI) setAvailable(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.available = v
}

type fakeView struct {
	mu         sync.Mutex
	episode    Episode
	timeline   Timeline
	timelines  int
	playing    bool
	volume     int
	muted      bool
	rate       float64
	fullscreen bool
	mode       Mode
}

func (v *fakeView) ShowEpisode(e Episode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.episode = e
}

func (v *fakeView) SetTimeline(t Timeline) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timeline = t
	v.timelines++
}

func (v *fakeView) SetPlaying(p bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = p
}

func (v *fakeView) SetVolume(vol int, muted bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.volume, v.muted = vol, muted
}

func (v *fakeView) SetRate(r float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rate = r
}

func (v *fakeView) SetFullscreen(a bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fullscreen = a
}

func (v *fakeView) SetMode(m Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = m
}

func (v *fakeView) current() Timeline {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.timeline
}

type fakeFullscreen struct {
	active bool
	enters int
	exits  int
}

func (f *fakeFullscreen) Active() bool { return f.active }

func (f *fakeFullscreen) Enter() error {
	f.enters++
	f.active = true
	return nil
}

func (f *fakeFullscreen) Exit() error {
	f.exits++
	f.active = false
	return nil
}
