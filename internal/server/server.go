// Package server exposes the streaming detector over a WebSocket surface
// for recording sessions.
//
// One WebSocket connection carries one recording session. The client opens
// the session with a JSON "start" control message naming either a phrase
// from a loaded inventory or an explicit target transcription, then streams
// binary audio fragments. Detector events travel back as JSON messages as
// they fire; a "finalize" control message forces the closing decode and
// returns the final result.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soundslike/pronounce/internal/decoder"
	"github.com/soundslike/pronounce/internal/detect"
	"github.com/soundslike/pronounce/internal/health"
	"github.com/soundslike/pronounce/internal/observe"
	"github.com/soundslike/pronounce/internal/phrase"
	"github.com/soundslike/pronounce/internal/score"
	"github.com/soundslike/pronounce/pkg/audio"
	"github.com/soundslike/pronounce/pkg/provider/acoustic"
)

// Config holds the server's dependencies and detection defaults.
type Config struct {
	// Extractor, Model, and Decoder are the shared collaborators injected
	// into every detection session. All required.
	Extractor acoustic.FeatureExtractor
	Model     acoustic.Model
	Decoder   *decoder.Decoder

	// Inventories maps language tags to loaded phrase inventories. May be
	// empty; sessions must then supply explicit targets.
	Inventories map[string]*phrase.Inventory

	// Detector carries the per-session detection defaults applied when the
	// start message leaves a knob unset.
	Detector detect.Config

	// Metrics records server instrumentation. When nil,
	// [observe.DefaultMetrics] is used.
	Metrics *observe.Metrics
}

// Server handles recording-session WebSocket connections.
type Server struct {
	cfg     Config
	metrics *observe.Metrics
}

// New creates a Server. Returns an error when a required collaborator is
// missing.
func New(cfg Config) (*Server, error) {
	if cfg.Extractor == nil || cfg.Model == nil || cfg.Decoder == nil {
		return nil, fmt.Errorf("server: extractor, model, and decoder are required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	return &Server{cfg: cfg, metrics: cfg.Metrics}, nil
}

// Handler returns the server's HTTP routes: the /session WebSocket
// endpoint, health probes, and the Prometheus /metrics endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	h := health.New(
		health.Checker{
			Name: "model",
			Check: func(ctx context.Context) error {
				// A zero-frame inference doubles as a model liveness probe.
				_, err := s.cfg.Model.Infer(ctx, nil, 0)
				return err
			},
		},
		health.Checker{
			Name: "phrases",
			Check: func(context.Context) error {
				// No inventories is a valid deployment (explicit targets
				// only); a loaded inventory without entries is not.
				for lang, inv := range s.cfg.Inventories {
					if inv.Len() == 0 {
						return fmt.Errorf("inventory %q has no phrases", lang)
					}
				}
				return nil
			},
		},
	)
	h.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/session", s.handleSession)

	return mux
}

// startMessage opens a session. Exactly one of Phrase or Target/Targets
// must identify what the speaker is practising.
type startMessage struct {
	Type     string   `json:"type"`
	Phrase   string   `json:"phrase,omitempty"`
	Target   string   `json:"target,omitempty"`
	Targets  []string `json:"targets,omitempty"`
	Language string   `json:"language,omitempty"`

	// SampleRate and Channels describe the client's PCM format. Zero values
	// mean the audio already arrives in the model format (16 kHz mono).
	SampleRate int `json:"sample_rate,omitempty"`
	Channels   int `json:"channels,omitempty"`
}

// event is the server → client message envelope.
type event struct {
	Type       string        `json:"type"`
	SessionID  string        `json:"session_id,omitempty"`
	Phonemes   string        `json:"phonemes,omitempty"`
	Similarity float64       `json:"similarity,omitempty"`
	Result     *score.Result `json:"result,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// session is the per-connection state.
type session struct {
	id        string
	conn      *websocket.Conn
	writeMu   sync.Mutex
	detector  *detect.Detector
	converter *audio.FormatConverter
	targets   []string
	language  string
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "err", err)
		return
	}

	sess := &session{
		id:   uuid.NewString(),
		conn: conn,
	}
	ctx := r.Context()

	s.metrics.ActiveSessions.Add(ctx, 1)
	defer s.metrics.ActiveSessions.Add(ctx, -1)
	defer conn.Close(websocket.StatusNormalClosure, "session closed")

	slog.Info("recording session opened", "session_id", sess.id)
	defer slog.Info("recording session closed", "session_id", sess.id)

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		switch msgType {
		case websocket.MessageBinary:
			if sess.detector == nil {
				sess.send(ctx, event{Type: "error", Error: "audio before start message"})
				continue
			}
			sess.detector.AddChunk(sess.converter.Convert(data))

		case websocket.MessageText:
			if done := s.handleControl(ctx, sess, data); done {
				return
			}
		}
	}
}

// handleControl dispatches one JSON control message. It reports true when
// the session should end.
func (s *Server) handleControl(ctx context.Context, sess *session, data []byte) bool {
	var msg startMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		sess.send(ctx, event{Type: "error", Error: "malformed control message"})
		return false
	}

	switch msg.Type {
	case "start":
		if err := s.startSession(sess, msg); err != nil {
			sess.send(ctx, event{Type: "error", Error: err.Error()})
			return false
		}
		sess.send(ctx, event{Type: "started", SessionID: sess.id})

	case "finalize":
		if sess.detector == nil {
			sess.send(ctx, event{Type: "error", Error: "finalize before start"})
			return false
		}
		if err := sess.detector.Finalize(ctx); err != nil {
			sess.send(ctx, event{Type: "error", Error: err.Error()})
			return true
		}
		sess.send(ctx, s.finalEvent(sess))
		return true

	case "reset":
		if sess.detector != nil {
			sess.detector.Reset()
		}

	default:
		sess.send(ctx, event{Type: "error", Error: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
	return false
}

// startSession resolves the target transcriptions and builds the session's
// detector.
func (s *Server) startSession(sess *session, msg startMessage) error {
	targets := msg.Targets
	if msg.Target != "" {
		targets = append([]string{msg.Target}, targets...)
	}
	if msg.Phrase != "" {
		inv, ok := s.cfg.Inventories[msg.Language]
		if !ok {
			return fmt.Errorf("no phrase inventory for language %q", msg.Language)
		}
		entry, _, found := inv.FuzzyLookup(msg.Phrase)
		if !found {
			return fmt.Errorf("unknown phrase %q", msg.Phrase)
		}
		targets = append(targets, entry.Targets()...)
	}
	if len(targets) == 0 {
		return fmt.Errorf("start message names no target transcription")
	}

	cfg := s.cfg.Detector
	cfg.TargetIPA = targets[0]
	cfg.Language = msg.Language

	// Event context deliberately outlives the request: callbacks may fire
	// from a processing attempt racing connection shutdown.
	evCtx := context.Background()
	det, err := detect.New(detect.Deps{
		Extractor: s.cfg.Extractor,
		Model:     s.cfg.Model,
		Decoder:   s.cfg.Decoder,
		Metrics:   s.metrics,
		Sink: detect.SinkFuncs{
			PhonemeUpdate: func(phonemes string, similarity float64) {
				sess.send(evCtx, event{Type: "phonemes", Phonemes: phonemes, Similarity: similarity})
			},
			TargetMatched: func(phonemes string, similarity float64) {
				sess.send(evCtx, event{Type: "matched", Phonemes: phonemes, Similarity: similarity})
			},
			Silence: func() {
				sess.send(evCtx, event{Type: "silence"})
			},
			BlankTrail: func() {
				sess.send(evCtx, event{Type: "blank_trail"})
			},
		},
	}, cfg)
	if err != nil {
		return err
	}

	source := audio.Format{SampleRate: msg.SampleRate, Channels: msg.Channels}
	if source.SampleRate == 0 {
		source.SampleRate = audio.ModelSampleRate
	}
	if source.Channels == 0 {
		source.Channels = 1
	}

	sess.detector = det
	sess.converter = &audio.FormatConverter{Source: source}
	sess.targets = targets
	sess.language = msg.Language
	return nil
}

// finalEvent builds the closing result message. With multiple acceptable
// targets the final similarity is re-scored against all of them and the
// best alignment is reported.
func (s *Server) finalEvent(sess *session) event {
	ev := event{
		Type:       "final",
		SessionID:  sess.id,
		Phonemes:   sess.detector.LastPhonemes(),
		Similarity: sess.detector.LastSimilarity(),
	}
	result, err := score.ScoreBest(sess.targets, ev.Phonemes, sess.language)
	if err != nil {
		slog.Warn("final scoring failed", "session_id", sess.id, "err", err)
		return ev
	}
	ev.Result = result
	if result.Similarity > ev.Similarity {
		ev.Similarity = result.Similarity
	}
	return ev
}

// send writes one JSON event, serialising concurrent writers. Write errors
// are logged and otherwise ignored: a dropped event must not break the
// detection session.
func (sess *session) send(ctx context.Context, ev event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("marshal event", "err", err)
		return
	}
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	if err := sess.conn.Write(ctx, websocket.MessageText, payload); err != nil {
		slog.Debug("event write failed", "session_id", sess.id, "type", ev.Type, "err", err)
	}
}
