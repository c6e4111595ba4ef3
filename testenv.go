package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/config"
	"murmur/encoder"
	"murmur/hook"
	"murmur/key"
	"murmur/listener"
	"murmur/log"
	"murmur/transcriber"
	"murmur/vad"
)

// runTestMode drives the whole pipeline headlessly: a fake keyboard
// backend, audio from a WAV file, stdin commands instead of an OS hook.
func runTestMode(wavPath string, cfg *config.Config, reg *key.Registry,
	combo key.Combination, trans transcriber.Transcriber) {
	beep.Disable()
	defer log.Close()

	fakeCtx, err := audio.NewFakeContext(wavPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}
	capture, err := fakeCtx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: encoder.SampleRate, Channels: encoder.Channels,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()
	fakeCapture := capture.(*audio.FakeCapture)

	backend := hook.NewFake()
	hooks := hook.NewService(backend, reg)

	var gate vad.Gate = vad.Fake{Speech: true}
	if cfg.Audio.VAD {
		gate = vad.WebRTC{}
	}

	l := listener.New(listenerConfig(cfg), hooks, capture, gate, trans, nil, nil, combo)
	if err := l.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting listener: %v\n", err)
		os.Exit(1)
	}

	events := l.Subscribe(64)
	cycleDone := make(chan struct{}, 1)
	go func() {
		for ev := range events {
			switch ev.Type {
			case listener.TranscriptionCompleted:
				fmt.Printf("TEXT: %s\n", ev.Text)
			case listener.ErrorOccurred:
				fmt.Printf("ERROR: %v\n", ev.Err)
			default:
				continue
			}
			select {
			case cycleDone <- struct{}{}:
			default:
			}
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "PRESS":
			if len(fields) > 1 {
				backend.Press(fields[1])
			}
		case "RELEASE":
			if len(fields) > 1 {
				backend.Release(fields[1])
			}
		case "WAIT":
			<-cycleDone
		case "WAIT_AUDIO_DONE":
			<-fakeCapture.AudioDone()
		case "SLEEP":
			if len(fields) > 1 {
				if ms, err := strconv.Atoi(fields[1]); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			}
		case "QUIT":
			l.Stop()
			os.Exit(0)
		}
	}
	l.Stop()
}
