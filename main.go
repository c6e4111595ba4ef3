package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/clipboard"
	"murmur/config"
	"murmur/encoder"
	"murmur/hook"
	"murmur/key"
	"murmur/listener"
	"murmur/log"
	"murmur/shutdown"
	"murmur/store"
	"murmur/transcriber"
	"murmur/vad"
)

var version = "dev"

var shutdownOnce sync.Once

func gracefulShutdown(l *listener.Listener) {
	shutdownOnce.Do(func() {
		if l != nil {
			l.Stop()
		}
		log.Close()
		os.Exit(0)
	})
}

// cues adapts the beep package to the listener's cue interface.
type cues struct{}

func (cues) PlayStart() { beep.PlayStart() }
func (cues) PlayEnd()   { beep.PlayEnd() }
func (cues) PlayError() { beep.PlayError() }

func run() {
	configFlag := flag.String("config", "", "Path to murmur.yaml (default: working dir, ~/.config/murmur)")
	hotkeyFlag := flag.String("hotkey", "", "Override hotkey combination (e.g. CTRL+SHIFT+R)")
	langFlag := flag.String("lang", "", "Language code for transcription (e.g. en, de). Empty = auto-detect")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	testFlag := flag.String("test", "", "Test mode: headless, stdin-driven, capture from WAV file")
	noPasteFlag := flag.Bool("nopaste", false, "Disable auto-paste of transcripts")
	autosaveFlag := flag.Bool("autosave", false, "Save every recording to the recordings directory")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *hotkeyFlag != "" {
		cfg.Hotkey = *hotkeyFlag
	}
	if *langFlag != "" {
		cfg.Language = *langFlag
	}
	if *noPasteFlag {
		cfg.Paste.Enabled = false
	}
	if *autosaveFlag {
		cfg.Save.Enabled = true
	}

	reg := key.NewRegistry()
	if err := cfg.Validate(reg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	combo, _ := key.ParseCombination(reg, cfg.Hotkey)

	apiKey := os.Getenv("GROQ_API_KEY")
	var trans transcriber.Transcriber
	if *testFlag != "" && apiKey == "" {
		trans = transcriber.NewFake("test transcript", nil)
	} else {
		if apiKey == "" {
			fmt.Fprintln(os.Stderr, "Error: GROQ_API_KEY not set")
			os.Exit(1)
		}
		trans = transcriber.NewHTTP(cfg.Provider.Endpoint, cfg.Provider.Model, apiKey)
	}
	if cfg.Language != "" {
		trans.SetLanguage(cfg.Language)
	}

	if *testFlag != "" {
		runTestMode(*testFlag, cfg, reg, combo, trans)
		return
	}

	if cfg.Paste.Enabled {
		if err := clipboard.InitPaste(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: paste init failed: %v\n", err)
			fmt.Fprintln(os.Stderr, "Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
			cfg.Paste.Enabled = false
		}
	}
	if !cfg.Sound.Enabled {
		beep.Disable()
	}
	go beep.Init()

	ctx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if cfg.Audio.Device != "" {
		if devices, err := ctx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == cfg.Audio.Device {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			log.Warnf("configured device %q not found, using default", cfg.Audio.Device)
		}
	}

	capture, err := ctx.NewCapture(selectedDevice, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()
	log.Info("recording_device: " + capture.DeviceName())

	hooks := hook.NewService(hook.NewGohook(), reg)

	lcfg := listenerConfig(cfg)
	var st *store.Store
	if cfg.Save.Enabled {
		format, _ := store.ParseFormat(cfg.Save.Format)
		st = store.New(cfg.Save.Dir, format)
	}

	l := listener.New(lcfg, hooks, capture, vad.WebRTC{}, trans, st, cues{}, combo)

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown(l)
	}()

	if err := l.Start(); err != nil {
		log.Errorf("listener start error: %v", err)
		fmt.Fprintf(os.Stderr, "Error starting listener: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("murmur %s | hold %s to dictate (ctrl+c to quit)\n", version, combo.String())

	eventLoop(l, cfg)
}

func listenerConfig(cfg *config.Config) listener.Config {
	lcfg := listener.DefaultConfig()
	lcfg.MinRecordingDuration = cfg.Audio.MinDuration
	lcfg.MaxRecordingDuration = cfg.Audio.MaxDuration
	lcfg.EnableVAD = cfg.Audio.VAD
	lcfg.EnableStartSound = cfg.Sound.Enabled
	lcfg.AutoSave = cfg.Save.Enabled
	lcfg.Language = cfg.Language
	return lcfg
}

// eventLoop consumes listener events until shutdown, delivering
// completed transcripts to the clipboard and the focused window.
func eventLoop(l *listener.Listener, cfg *config.Config) {
	events := l.Subscribe(64)
	for ev := range events {
		switch ev.Type {
		case listener.RecordingStarted:
			fmt.Println("● recording...")
		case listener.TranscriptionCompleted:
			deliver(ev.Text, cfg)
		case listener.ErrorOccurred:
			fmt.Printf("error: %v\n", ev.Err)
		case listener.StateChanged:
			if ev.To == listener.Shutdown {
				return
			}
		}
	}
}

func deliver(text string, cfg *config.Config) {
	if text == "" {
		fmt.Println("(no text)")
		return
	}
	fmt.Println(text)
	if err := clipboard.Copy(text); err != nil {
		log.Warnf("clipboard copy failed: %v", err)
		return
	}
	if cfg.Paste.Enabled {
		if err := clipboard.Paste(); err != nil {
			log.Warnf("paste failed: %v", err)
		}
	}
}

func main() {
	run()
}
