package listener

import "time"

type Config struct {
	SampleRate int
	Channels   int

	MinRecordingDuration time.Duration
	MaxRecordingDuration time.Duration
	PollInterval         time.Duration
	StopJoinTimeout      time.Duration
	TranscriptionTimeout time.Duration

	// ChunkBuffer bounds the capture-to-session channel; when full the
	// capture callback drops the chunk rather than block the device.
	ChunkBuffer int

	EnableVAD        bool
	EnableStartSound bool
	AutoSave         bool
	Language         string
}

func DefaultConfig() Config {
	return Config{
		SampleRate:           16000,
		Channels:             1,
		MinRecordingDuration: 500 * time.Millisecond,
		MaxRecordingDuration: 300 * time.Second,
		PollInterval:         10 * time.Millisecond,
		StopJoinTimeout:      time.Second,
		TranscriptionTimeout: 30 * time.Second,
		ChunkBuffer:          64,
		EnableVAD:            true,
		EnableStartSound:     true,
		AutoSave:             false,
		Language:             "",
	}
}
