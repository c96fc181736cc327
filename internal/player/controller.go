package player

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/educheia/educheia/internal/clock"
	"github.com/educheia/educheia/internal/mathutil"
	"github.com/educheia/educheia/internal/timefmt"
)

const (
	UITickInterval = 250 * time.Millisecond
	SeekStep       = 10.0

	DefaultVolume = 100
	DefaultRate   = 1.0
	MinRate       = 0.25
	MaxRate       = 2.0

	defaultMount = "youtube-player-container"
)

type Status int

const (
	Closed Status = iota
	Loading
	Ready
	Playing
	Paused
	Ended
)

func (s Status) String() string {
	return [...]string{"closed", "loading", "ready", "playing", "paused", "ended"}[s]
}

type Mode string

const (
	ModeVideo Mode = "video"
	ModeAudio Mode = "audio"
)

// Episode is the metadata shown in the player.
type Episode struct {
	ID          string
	VideoID     string
	Title       string
	Description string
	Date        string
	Number      int
	Cover       string
	Duration    float64
}

type Timeline struct {
	Current       float64
	Duration      float64
	CurrentLabel  string
	DurationLabel string
}

func newTimeline(current, duration float64) Timeline {
	return Timeline{
		Current:       current,
		Duration:      duration,
		CurrentLabel:  timefmt.Clock(current),
		DurationLabel: timefmt.Clock(duration),
	}
}

// View renders the controller's state.
type View interface {
	ShowEpisode(e Episode)
	SetTimeline(t Timeline)
	SetPlaying(playing bool)
	SetVolume(volume int, muted bool)
	SetRate(rate float64)
	SetFullscreen(active bool)
	SetMode(mode Mode)
}

// Fullscreen is the browser fullscreen API scoped to the player stage.
type Fullscreen interface {
	Active() bool
	Enter() error
	Exit() error
}

type PositionStore interface {
	Load(ctx context.Context, episodeID string) int
	Save(ctx context.Context, episodeID string, seconds float64)
}

type Config struct {
	API        API
	View       View
	Positions  PositionStore
	Fullscreen Fullscreen
	Clock      clock.Clock
	Mount      string
	Quality    []string
}

type Controller struct {
	api        API
	view       View
	positions  PositionStore
	fullscreen Fullscreen
	clk        clock.Clock
	mount      string
	quality    []string

	apiReady *Future
	timeline *Reconciler

	mu          sync.Mutex
	status      Status
	episode     Episode
	gen         uint64
	widget      Widget
	widgetReady bool
	loadedVideo string
	pendingSeek float64
	duration    float64
	scrubbing   bool
	volume      int
	lastVolume  int
	muted       bool
	rate        float64
	mode        Mode
	ticker      *clock.Repeater
	lastTick    time.Time
	enforcers   []clock.Timer
	preferred   string
}

func NewController(cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Mount == "" {
		cfg.Mount = defaultMount
	}
	if cfg.Quality == nil {
		cfg.Quality = QualityPriority
	}
	return &Controller{
		api:        cfg.API,
		view:       cfg.View,
		positions:  cfg.Positions,
		fullscreen: cfg.Fullscreen,
		clk:        cfg.Clock,
		mount:      cfg.Mount,
		quality:    cfg.Quality,
		timeline:   NewReconciler(),
		status:     Closed,
		volume:     DefaultVolume,
		lastVolume: DefaultVolume,
		rate:       DefaultRate,
		mode:       ModeVideo,
	}
}

// Open shows e and asks the widget to load it, resuming at the stored
// position.
func (c *Controller) Open(ctx context.Context, e Episode) {
	if e.VideoID == "" {
		e.VideoID = e.ID
	}
	start := 0
	if c.positions != nil {
		start = c.positions.Load(ctx, e.ID)
	}

	c.mu.Lock()
	c.stopTimersLocked()
	c.gen++
	c.episode = e
	c.status = Loading
	c.pendingSeek = float64(start)
	c.duration = e.Duration
	c.scrubbing = false
	c.timeline.Reset(c.pendingSeek)
	c.showLocked()

	reuse := c.widget != nil && c.widgetReady
	if reuse {
		c.cueLocked()
	}
	gen := c.gen
	needWidget := c.widget == nil
	if c.apiReady == nil && needWidget {
		c.apiReady = AwaitAPI(c.clk, c.api, APIPollInterval, APIPollAttempts)
	}
	future := c.apiReady
	c.mu.Unlock()

	if needWidget {
		future.Then(func(err error) {
			c.onAPI(gen, err)
		})
	}
}

func (c *Controller) showLocked() {
	if c.view == nil {
		return
	}
	c.view.ShowEpisode(c.episode)
	c.view.SetTimeline(newTimeline(c.pendingSeek, c.duration))
	c.view.SetPlaying(false)
	c.view.SetVolume(c.volume, c.muted)
	c.view.SetRate(c.rate)
	c.view.SetMode(c.mode)
}

func (c *Controller) onAPI(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.apiReady = nil
		if gen == c.gen {
			slog.Warn("player: giving up on widget", "episode_id", c.episode.ID, "error", err)
		}
		return
	}
	if gen != c.gen || c.status == Closed || c.widget != nil {
		return
	}

	c.preferred = PreferredQuality(c.quality, nil)
	w, err := c.api.NewWidget(WidgetOptions{
		Mount:        c.mount,
		VideoID:      c.episode.VideoID,
		StartSeconds: c.pendingSeek,
		Autoplay:     false,
		Controls:     false,
		Quality:      c.preferred,
	}, Events{
		OnReady:         c.onReady,
		OnStateChange:   c.onStateChange,
		OnQualityChange: c.onQualityChange,
	})
	if err != nil {
		slog.Warn("player: widget construction failed", "episode_id", c.episode.ID, "error", err)
		return
	}
	c.widget = w
	c.loadedVideo = c.episode.VideoID
}

func (c *Controller) onReady() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.widget == nil {
		return
	}
	c.widgetReady = true
	c.applySettingsLocked()
	if c.status == Closed {
		return
	}
	if c.loadedVideo != c.episode.VideoID {
		c.cueLocked()
		return
	}
	if c.pendingSeek > 0 {
		c.widget.SeekTo(c.pendingSeek)
		c.timeline.Seek(c.pendingSeek)
	}
	c.becomeReadyLocked()
}

func (c *Controller) cueLocked() {
	c.widget.Cue(c.episode.VideoID, c.pendingSeek)
	c.loadedVideo = c.episode.VideoID
	if c.pendingSeek > 0 {
		c.timeline.Seek(c.pendingSeek)
	}
	c.applySettingsLocked()
	c.becomeReadyLocked()
}

func (c *Controller) becomeReadyLocked() {
	c.status = Ready
	c.pendingSeek = 0
	c.startTickLocked()
	c.scheduleQualityLocked()
}

func (c *Controller) applySettingsLocked() {
	if vc, ok := c.widget.(VolumeController); ok {
		vc.SetVolume(c.volume)
		if c.muted {
			vc.Mute()
		} else {
			vc.Unmute()
		}
	}
	if rc, ok := c.widget.(RateController); ok {
		rc.SetPlaybackRate(c.rate)
	}
}

func (c *Controller) startTickLocked() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
	gen := c.gen
	c.lastTick = c.clk.Now()
	c.ticker = clock.Every(c.clk, UITickInterval, func() {
		c.tick(gen)
	})
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.readyLocked() {
		c.mu.Unlock()
		return
	}
	now := c.clk.Now()
	dt := now.Sub(c.lastTick).Seconds()
	c.lastTick = now

	state := c.widget.State()
	c.timeline.Observe(c.widget.CurrentTime(), state == StateEnded || state == StatePaused)
	c.timeline.Advance(dt, c.rate, state == StatePlaying)
	if d := c.widget.Duration(); d > 0 {
		c.duration = d
	}
	current := c.timeline.Effective()
	if !c.scrubbing && c.view != nil {
		c.view.SetTimeline(newTimeline(current, c.duration))
	}
	id := c.episode.ID
	c.mu.Unlock()

	if c.positions != nil {
		c.positions.Save(context.Background(), id, current)
	}
}

func (c *Controller) onStateChange(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == Closed || !c.widgetReady {
		return
	}
	switch s {
	case StatePlaying:
		c.status = Playing
	case StatePaused:
		c.status = Paused
		c.timeline.Observe(c.widget.CurrentTime(), true)
	case StateEnded:
		c.status = Ended
		c.timeline.Observe(c.widget.CurrentTime(), true)
	case StateCued:
		c.status = Ready
	}
	if c.view != nil {
		c.view.SetPlaying(s == StatePlaying)
	}
}

func (c *Controller) onQualityChange(level string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == Closed || !c.widgetReady || level == c.preferred {
		return
	}
	slog.Debug("player: quality changed, re-applying preference", "level", level, "preferred", c.preferred)
	c.scheduleQualityLocked()
}

func (c *Controller) scheduleQualityLocked() {
	c.stopEnforcersLocked()
	if _, ok := c.widget.(QualityController); !ok {
		return
	}
	gen := c.gen
	for _, d := range QualityEnforcementDelays {
		c.enforcers = append(c.enforcers, c.clk.AfterFunc(d, func() {
			c.enforceQuality(gen)
		}))
	}
}

func (c *Controller) enforceQuality(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || !c.readyLocked() {
		return
	}
	qc, ok := c.widget.(QualityController)
	if !ok {
		return
	}
	level := PreferredQuality(c.quality, qc.AvailableQualities())
	if level == "" {
		return
	}
	c.preferred = level
	qc.SetQuality(level)
}

func (c *Controller) stopEnforcersLocked() {
	for _, t := range c.enforcers {
		t.Stop()
	}
	c.enforcers = nil
}

func (c *Controller) stopTimersLocked() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	c.stopEnforcersLocked()
}

func (c *Controller) readyLocked() bool {
	return c.widget != nil && c.widgetReady && c.status != Closed && c.status != Loading
}

// TogglePlay plays or pauses based on the widget's reported state.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.readyLocked() {
		return
	}
	playing := c.widget.State() == StatePlaying
	if playing {
		c.widget.Pause()
	} else {
		c.widget.Play()
	}
	if c.view != nil {
		c.view.SetPlaying(!playing)
	}
}

// SeekRelative moves by delta seconds, clamped to [0, duration].
func (c *Controller) SeekRelative(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.readyLocked() {
		return
	}
	c.seekLocked(c.timeline.Effective() + delta)
}

func (c *Controller) SeekTo(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.readyLocked() {
		return
	}
	c.seekLocked(seconds)
}

func (c *Controller) seekLocked(target float64) {
	if d := c.widget.Duration(); d > 0 {
		c.duration = d
	}
	target = c.clampLocked(target)
	c.widget.SeekTo(target)
	c.timeline.Seek(target)
	if c.view != nil {
		c.view.SetTimeline(newTimeline(target, c.duration))
	}
}

// BeginScrub suppresses widget-driven timeline updates while the user drags
// the range control.
func (c *Controller) BeginScrub() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scrubbing = true
}

// Scrub previews seconds without seeking.
func (c *Controller) Scrub(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.scrubbing || c.view == nil {
		return
	}
	c.view.SetTimeline(newTimeline(c.clampLocked(seconds), c.duration))
}

// clampLocked bounds seconds to [0, duration], or to >= 0 while the duration
// is unknown.
func (c *Controller) clampLocked(seconds float64) float64 {
	if c.duration > 0 {
		return mathutil.Clamp(seconds, 0, c.duration)
	}
	if !(seconds > 0) {
		return 0
	}
	return seconds
}

// CommitScrub ends the drag and seeks to seconds.
func (c *Controller) CommitScrub(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scrubbing = false
	if !c.readyLocked() {
		return
	}
	c.seekLocked(seconds)
}

// SetVolume clamps to [0, 100] and mutes at zero.
func (c *Controller) SetVolume(volume int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	volume = int(mathutil.Clamp(float64(volume), 0, 100))
	c.volume = volume
	c.muted = volume == 0
	if volume > 0 {
		c.lastVolume = volume
	}
	c.applyVolumeLocked()
}

func (c *Controller) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.muted {
		c.muted = false
		if c.volume == 0 {
			c.volume = c.lastVolume
		}
	} else {
		c.muted = true
	}
	c.applyVolumeLocked()
}

func (c *Controller) applyVolumeLocked() {
	if c.view != nil {
		c.view.SetVolume(c.volume, c.muted)
	}
	if !c.readyLocked() {
		return
	}
	if vc, ok := c.widget.(VolumeController); ok {
		vc.SetVolume(c.volume)
		if c.muted {
			vc.Mute()
		} else {
			vc.Unmute()
		}
	}
}

// SetRate clamps to [MinRate, MaxRate].
func (c *Controller) SetRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !(rate > 0) {
		rate = DefaultRate
	}
	c.rate = mathutil.Clamp(rate, MinRate, MaxRate)
	if c.view != nil {
		c.view.SetRate(c.rate)
	}
	if !c.readyLocked() {
		return
	}
	if rc, ok := c.widget.(RateController); ok {
		rc.SetPlaybackRate(c.rate)
	}
}

func (c *Controller) ToggleFullscreen() {
	if c.fullscreen == nil {
		return
	}
	var err error
	if c.fullscreen.Active() {
		err = c.fullscreen.Exit()
	} else {
		err = c.fullscreen.Enter()
	}
	if err != nil {
		slog.Debug("player: fullscreen toggle failed", "error", err)
	}
}

// OnFullscreenChange mirrors the browser's fullscreen state.
func (c *Controller) OnFullscreenChange(active bool) {
	if c.view != nil {
		c.view.SetFullscreen(active)
	}
}

// SetMode switches between video and the audio visualizer overlay. The
// widget keeps rendering underneath so audio continues.
func (c *Controller) SetMode(mode Mode) {
	if mode != ModeAudio {
		mode = ModeVideo
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
	if c.view != nil {
		c.view.SetMode(mode)
	}
}

// Close persists the position and stops playback. It returns the closed
// episode's id, or "" when nothing was open.
func (c *Controller) Close(ctx context.Context) string {
	c.mu.Lock()
	if c.status == Closed {
		c.mu.Unlock()
		return ""
	}
	id := c.episode.ID
	current := c.timeline.Effective()
	if c.readyLocked() {
		c.widget.Stop()
	}
	c.stopTimersLocked()
	c.gen++
	c.status = Closed
	c.scrubbing = false
	c.pendingSeek = 0
	c.episode = Episode{}
	c.mu.Unlock()

	if c.positions != nil {
		c.positions.Save(ctx, id, current)
	}
	if c.fullscreen != nil && c.fullscreen.Active() {
		if err := c.fullscreen.Exit(); err != nil {
			slog.Debug("player: exit fullscreen failed", "error", err)
		}
	}
	return id
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) Episode() (Episode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.episode, c.status != Closed
}

// CurrentTime is the displayed playback position.
func (c *Controller) CurrentTime() float64 {
	return c.timeline.Effective()
}

func (c *Controller) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

func (c *Controller) Volume() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume, c.muted
}

func (c *Controller) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}
