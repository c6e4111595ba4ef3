// Package listener orchestrates push-to-talk capture: it owns the
// hotkey registration, the recording session, the VAD gate and the
// transcription pipeline, and publishes its lifecycle as events.
package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"murmur/audio"
	"murmur/hook"
	"murmur/key"
	"murmur/log"
	"murmur/store"
	"murmur/transcriber"
	"murmur/vad"
)

// Cue plays audible feedback. All methods are fire-and-forget.
type Cue interface {
	PlayStart()
	PlayEnd()
	PlayError()
}

type cmdType int

const (
	cmdPress cmdType = iota
	cmdRelease
	cmdForceStop
)

const hotkeyID = "record"

type Listener struct {
	cfg     Config
	hooks   *hook.Service
	capture audio.CaptureDevice
	gate    vad.Gate
	trans   transcriber.Transcriber
	store   *store.Store // nil disables auto-save
	cue     Cue          // nil disables cues

	bus eventBus

	stateMu sync.Mutex
	state   State

	comboMu sync.Mutex
	combo   key.Combination

	sessionMu sync.Mutex
	session   *Session

	commands chan cmdType
	quit     chan struct{}
	runDone  chan struct{}

	startMu sync.Mutex
	started bool
	stopped sync.Once

	// per-recording plumbing, owned by the run goroutine
	recStop  chan struct{}
	recDone  chan struct{}
	stopOnce *sync.Once

	transMu   sync.Mutex
	transDone chan struct{}
}

func New(cfg Config, hooks *hook.Service, capture audio.CaptureDevice, gate vad.Gate,
	trans transcriber.Transcriber, st *store.Store, cue Cue, combo key.Combination) *Listener {
	return &Listener{
		cfg:      cfg,
		hooks:    hooks,
		capture:  capture,
		gate:     gate,
		trans:    trans,
		store:    st,
		cue:      cue,
		combo:    combo,
		state:    Idle,
		commands: make(chan cmdType, 16),
		quit:     make(chan struct{}),
		runDone:  make(chan struct{}),
	}
}

func (l *Listener) Subscribe(buffer int) <-chan Event { return l.bus.Subscribe(buffer) }
func (l *Listener) Unsubscribe(ch <-chan Event)       { l.bus.Unsubscribe(ch) }

func (l *Listener) State() State {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.state
}

func (l *Listener) IsRecording() bool { return l.State() == Recording }

// CurrentSession returns a snapshot of the active session, or nil.
func (l *Listener) CurrentSession() *Session {
	l.sessionMu.Lock()
	defer l.sessionMu.Unlock()
	if l.session == nil {
		return nil
	}
	snap := l.session.Snapshot()
	return &snap
}

func (l *Listener) Hotkey() key.Combination {
	l.comboMu.Lock()
	defer l.comboMu.Unlock()
	return l.combo
}

// SetHotkey swaps the active combination. Safe while running; the next
// press is matched against the new chord.
func (l *Listener) SetHotkey(combo key.Combination) error {
	l.startMu.Lock()
	started := l.started
	l.startMu.Unlock()
	if started {
		if err := l.hooks.Register(hotkeyID, combo, l.handler()); err != nil {
			return err
		}
	} else if !combo.ValidForRecording() {
		return fmt.Errorf("%w: %q", hook.ErrInvalidCombination, combo.String())
	}
	l.comboMu.Lock()
	l.combo = combo
	l.comboMu.Unlock()
	return nil
}

func (l *Listener) handler() hook.Handler {
	return hook.HandlerFuncs{
		Pressed:  func(key.Combination) { l.enqueue(cmdPress) },
		Released: func(key.Combination) { l.enqueue(cmdRelease) },
	}
}

// enqueue never blocks: it runs on the OS hook callback.
func (l *Listener) enqueue(c cmdType) {
	select {
	case l.commands <- c:
	default:
		log.Warnf("listener command queue full, dropping %d", c)
	}
}

// Start registers the hotkey, installs the keyboard hook and spawns
// the run loop. On hook failure the listener stays Idle and unhooked.
func (l *Listener) Start() error {
	l.startMu.Lock()
	defer l.startMu.Unlock()
	if l.started {
		return fmt.Errorf("listener already started")
	}

	if err := l.hooks.Register(hotkeyID, l.Hotkey(), l.handler()); err != nil {
		return err
	}
	if err := l.hooks.StartHook(); err != nil {
		l.hooks.Unregister(hotkeyID)
		return err
	}

	l.started = true
	go l.run()
	log.SessionStart(l.trans.Name(), l.Hotkey().String())
	return nil
}

func (l *Listener) run() {
	defer close(l.runDone)
	for {
		select {
		case <-l.quit:
			return
		case c := <-l.commands:
			switch c {
			case cmdPress:
				l.bus.emit(Event{Type: HotkeyPressed})
				l.guard("start recording", l.startRecording)
			case cmdRelease:
				l.bus.emit(Event{Type: HotkeyReleased})
				l.guard("stop recording", l.stopRecording)
			case cmdForceStop:
				l.guard("force stop", l.stopRecording)
			}
		}
	}
}

// guard isolates one orchestration step: a panic is logged, reported
// as an event, and the listener is forced back to Idle so no
// transitional state dangles.
func (l *Listener) guard(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%s panic: %v", name, r)
			log.Errorf("%v", err)
			l.bus.emit(Event{Type: ErrorOccurred, Err: err})
			l.stateMu.Lock()
			if l.state == Recording || l.state == Processing || l.state == Transcribing {
				from := l.state
				l.state = Idle
				l.stateMu.Unlock()
				l.bus.emit(Event{Type: StateChanged, From: from, To: Idle})
				return
			}
			l.stateMu.Unlock()
		}
	}()
	fn()
}

// transitionFrom moves from→to atomically; a mismatch means another
// path won the race and the caller must back off.
func (l *Listener) transitionFrom(from, to State) bool {
	l.stateMu.Lock()
	if l.state != from {
		l.stateMu.Unlock()
		return false
	}
	l.state = to
	l.stateMu.Unlock()
	log.StateChange(from.String(), to.String())
	l.bus.emit(Event{Type: StateChanged, From: from, To: to})
	return true
}

func (l *Listener) transition(to State) {
	l.stateMu.Lock()
	from := l.state
	if from == to {
		l.stateMu.Unlock()
		return
	}
	l.state = to
	l.stateMu.Unlock()
	log.StateChange(from.String(), to.String())
	l.bus.emit(Event{Type: StateChanged, From: from, To: to})
}

func (l *Listener) fail(sessionID string, err error) {
	log.Errorf("%v", err)
	l.bus.emit(Event{Type: ErrorOccurred, SessionID: sessionID, Err: err})
	if l.cue != nil {
		go l.cue.PlayError()
	}
}

func (l *Listener) startRecording() {
	if !l.transitionFrom(Idle, Recording) {
		// Pressed while busy (or a second chord press raced a release):
		// ignore, the active flow owns the device.
		return
	}

	sess := NewSession(l.cfg.SampleRate, l.cfg.Channels)
	l.sessionMu.Lock()
	l.session = sess
	l.sessionMu.Unlock()

	if l.cue != nil && l.cfg.EnableStartSound {
		go l.cue.PlayStart()
	}

	chunks := make(chan []byte, l.cfg.ChunkBuffer)
	stop := make(chan struct{})
	done := make(chan struct{})
	once := &sync.Once{}

	l.capture.SetCallback(func(data []byte, _ uint32) {
		if len(data) == 0 {
			return
		}
		pcm := make([]byte, len(data))
		copy(pcm, data)
		select {
		case chunks <- pcm:
		default:
			// Device outpacing the drain loop; dropping beats blocking
			// the audio callback.
		}
	})

	if err := l.capture.Start(); err != nil {
		l.capture.ClearCallback()
		l.fail(sess.ID, fmt.Errorf("starting capture: %w", err))
		l.transition(Error)
		return
	}
	l.recStop, l.recDone, l.stopOnce = stop, done, once

	go func() {
		defer close(done)
		ceiling := time.NewTimer(l.cfg.MaxRecordingDuration)
		defer ceiling.Stop()
		for {
			select {
			case chunk := <-chunks:
				l.sessionMu.Lock()
				sess.AddChunk(chunk)
				l.sessionMu.Unlock()
			case <-stop:
				// Drain whatever the callback already queued.
				for {
					select {
					case chunk := <-chunks:
						l.sessionMu.Lock()
						sess.AddChunk(chunk)
						l.sessionMu.Unlock()
					default:
						return
					}
				}
			case <-ceiling.C:
				// Stuck-key ceiling: stop ourselves and let the normal
				// stop path run.
				log.Warnf("recording hit max duration %s, forcing stop", l.cfg.MaxRecordingDuration)
				once.Do(func() { close(stop) })
				l.enqueue(cmdForceStop)
			}
		}
	}()

	l.bus.emit(Event{Type: RecordingStarted, SessionID: sess.ID})
	log.Infof("recording started (session %s)", sess.ID)
}

func (l *Listener) stopRecording() {
	if !l.transitionFrom(Recording, Processing) {
		return
	}

	l.stopOnce.Do(func() { close(l.recStop) })
	select {
	case <-l.recDone:
	case <-time.After(l.cfg.StopJoinTimeout):
		log.Warnf("recording goroutine did not stop within %s", l.cfg.StopJoinTimeout)
	}

	l.capture.Stop()
	l.capture.ClearCallback()

	l.sessionMu.Lock()
	sess := l.session
	l.sessionMu.Unlock()

	if l.cue != nil {
		go l.cue.PlayEnd()
	}
	l.bus.emit(Event{Type: RecordingStopped, SessionID: sess.ID})
	log.Recording(sess.ID, sess.Duration, sess.ChunkCount())

	l.process(sess)
}

func (l *Listener) process(sess *Session) {
	l.sessionMu.Lock()
	snap := sess.Snapshot()
	l.sessionMu.Unlock()

	if snap.Duration < l.cfg.MinRecordingDuration.Seconds() {
		l.fail(snap.ID, fmt.Errorf("recording too short (%.2fs < %.2fs)",
			snap.Duration, l.cfg.MinRecordingDuration.Seconds()))
		l.transition(Idle)
		return
	}

	pcm := snap.Combined()
	if pcm == nil {
		l.fail(snap.ID, fmt.Errorf("no audio captured"))
		l.transition(Idle)
		return
	}

	if l.cfg.EnableVAD && l.gate != nil && !l.gate.HasSpeech(pcm) {
		l.fail(snap.ID, fmt.Errorf("no speech detected"))
		l.transition(Idle)
		return
	}

	if l.cfg.AutoSave && l.store != nil {
		if _, _, err := l.store.Save(snap.ID, pcm); err != nil {
			// Non-fatal: the clip still goes to the transcriber.
			l.bus.emit(Event{Type: ErrorOccurred, SessionID: snap.ID,
				Err: fmt.Errorf("auto-save failed: %w", err)})
		}
	}

	l.startTranscription(snap.ID, pcm)
}

func (l *Listener) startTranscription(sessionID string, pcm []byte) {
	l.transition(Transcribing)
	l.bus.emit(Event{Type: TranscriptionStarted, SessionID: sessionID})

	done := make(chan struct{})
	l.transMu.Lock()
	l.transDone = done
	l.transMu.Unlock()

	audioS := float64(len(pcm)) / 2 / float64(l.cfg.SampleRate*l.cfg.Channels)

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("transcription panic: %v", r)
				log.Errorf("%v", err)
				l.bus.emit(Event{Type: ErrorOccurred, SessionID: sessionID, Err: err})
				l.transitionFrom(Transcribing, Idle)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), l.cfg.TranscriptionTimeout)
		defer cancel()

		start := time.Now()
		res, err := l.trans.Transcribe(ctx, pcm)
		if err != nil {
			l.fail(sessionID, fmt.Errorf("transcription failed: %w", err))
			l.transitionFrom(Transcribing, Idle)
			return
		}

		log.Transcription(sessionID, l.trans.Name(), audioS,
			float64(time.Since(start).Milliseconds()), res.Confidence)
		log.TranscriptionText(res.Text)
		l.bus.emit(Event{Type: TranscriptionCompleted, SessionID: sessionID, Text: res.Text})
		l.transitionFrom(Transcribing, Idle)
	}()
}

// ForceStopRecording ends the active recording as if the hotkey had
// been released. A no-op in any other state.
func (l *Listener) ForceStopRecording() {
	l.enqueue(cmdForceStop)
}

// Stop shuts the listener down: force-stops any recording, removes the
// hook, waits (bounded) for an in-flight transcription and lands in
// Shutdown. Cleanup failures are logged but never prevent shutdown.
func (l *Listener) Stop() {
	l.stopped.Do(func() {
		l.transition(ShuttingDown)
		close(l.quit)
		l.startMu.Lock()
		started := l.started
		l.startMu.Unlock()
		if started {
			<-l.runDone
		}

		// Recording in flight when the quit signal won the race: stop
		// the capture directly, the clip is discarded.
		if l.stopOnce != nil {
			l.stopOnce.Do(func() { close(l.recStop) })
			select {
			case <-l.recDone:
			case <-time.After(l.cfg.StopJoinTimeout):
			}
			l.capture.Stop()
			l.capture.ClearCallback()
		}

		l.hooks.Unregister(hotkeyID)
		if err := l.hooks.StopHook(); err != nil && err != hook.ErrNotHooked {
			log.Warnf("stopping hook: %v", err)
		}

		l.transMu.Lock()
		done := l.transDone
		l.transMu.Unlock()
		if done != nil {
			select {
			case <-done:
			case <-time.After(l.cfg.TranscriptionTimeout):
				log.Warn("transcription still running at shutdown, abandoning")
			}
		}

		l.transition(Shutdown)
		l.bus.closeAll()
	})
}
