package polly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
)

type synthClient interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

type Config struct {
	Region  string
	VoiceID string // used when the caller passes none
	Engine  string // "neural" or "standard"
	Timeout time.Duration
}

// Synthesizer renders speech with Amazon Polly
type Synthesizer struct {
	mu     sync.Mutex
	client synthClient
	cfg    Config
}

func NewSynthesizer(cfg Config) *Synthesizer {
	return NewSynthesizerWithClient(cfg, nil)
}

func NewSynthesizerWithClient(cfg Config, client synthClient) *Synthesizer {
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	if strings.TrimSpace(cfg.VoiceID) == "" {
		cfg.VoiceID = "Joanna"
	}
	if strings.TrimSpace(cfg.Engine) == "" {
		cfg.Engine = "neural"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Synthesizer{client: client, cfg: cfg}
}

func (s *Synthesizer) Synthesize(ctx context.Context, text, voiceID, languageCode string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("polly: empty text")
	}
	client, err := s.resolveClient(ctx)
	if err != nil {
		return nil, err
	}

	if voiceID == "" {
		voiceID = s.cfg.VoiceID
	}
	engine := pollytypes.EngineStandard
	if strings.EqualFold(s.cfg.Engine, "neural") {
		engine = pollytypes.EngineNeural
	}

	input := &polly.SynthesizeSpeechInput{
		Engine:       engine,
		OutputFormat: pollytypes.OutputFormatMp3,
		Text:         &text,
		TextType:     pollytypes.TextTypeText,
		VoiceId:      pollytypes.VoiceId(voiceID),
	}
	if languageCode != "" {
		input.LanguageCode = pollytypes.LanguageCode(languageCode)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	output, err := client.SynthesizeSpeech(ctx, input)
	if err != nil {
		return nil, describe(err)
	}
	if output == nil || output.AudioStream == nil {
		return nil, errors.New("polly: empty audio stream")
	}
	defer output.AudioStream.Close()

	audio, err := io.ReadAll(output.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("polly: read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("polly: empty audio stream")
	}
	return audio, nil
}

func describe(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("polly %s: %s: %w", apiErr.ErrorCode(), apiErr.ErrorMessage(), err)
	}
	return fmt.Errorf("polly: %w", err)
}

func (s *Synthesizer) resolveClient(ctx context.Context) (synthClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s.cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	s.client = polly.NewFromConfig(awsCfg)
	return s.client, nil
}
