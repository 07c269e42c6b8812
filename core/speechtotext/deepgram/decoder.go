package deepgram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-dialogue/core/speechtotext"
)

var listenEndpoint = "wss://api.deepgram.com/v1/listen"

const keepAliveInterval = 5 * time.Second

// Decoder streams audio to the Deepgram live transcription API and surfaces
// endpointed utterances through the [speechtotext.Decoder] interface.
//
// Audio is written synchronously from AcceptWaveform; transcripts arrive on a
// background reader and are picked up by the next AcceptWaveform call.
type Decoder struct {
	conn      *websocket.Conn
	connMu    sync.Mutex
	lastMsgTs time.Time

	finals  chan string
	readErr atomic.Pointer[error]
	result  string

	// segmentMu guards the segment being assembled by the reader goroutine
	// and the hand-off of finished segments to finals.
	segmentMu             sync.Mutex
	accumulatedTranscript string
	unendedSegment        bool

	cancel    context.CancelFunc
	closeOnce sync.Once
}

var _ speechtotext.Decoder = (*Decoder)(nil)

// NewDecoder opens a live transcription socket. If apiKey is empty the
// DEEPGRAM_API_KEY environment variable is used.
func NewDecoder(ctx context.Context, apiKey string, opts ...speechtotext.DecoderOption) (*Decoder, error) {
	if apiKey == "" {
		if apiKey = os.Getenv("DEEPGRAM_API_KEY"); apiKey == "" {
			return nil, fmt.Errorf("deepgram api key not found")
		}
	}

	options := speechtotext.DefaultDecoderOptions()
	for _, opt := range opts {
		opt(&options)
	}

	encoding, sampleRate, err := listenEncoding(options.EncodingInfo)
	if err != nil {
		return nil, fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := connectWebsocket(ctx, apiKey, connectionOptions{
		sampleRate:     sampleRate,
		encoding:       encoding,
		model:          options.Model,
		language:       options.Language,
		endpointingMs:  options.EndpointingMs,
		utteranceEndMs: options.UtteranceEndMs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}

	d := newDecoder()
	d.conn = conn
	d.lastMsgTs = time.Now()

	var keepAliveCtx context.Context
	keepAliveCtx, d.cancel = context.WithCancel(context.WithoutCancel(ctx))
	go d.readMessages(conn)
	go d.keepAlive(keepAliveCtx)

	return d, nil
}

func newDecoder() *Decoder {
	return &Decoder{finals: make(chan string, 8)}
}

type connectionOptions struct {
	sampleRate int
	encoding   string

	model          string
	language       string
	endpointingMs  int
	utteranceEndMs int
}

func connectWebsocket(ctx context.Context, apiKey string, options connectionOptions) (*websocket.Conn, error) {
	listenUrl, err := url.Parse(listenEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid listen endpoint: %w", err)
	}
	queryParams := listenUrl.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", options.model)
	queryParams.Set("language", options.language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", strconv.Itoa(options.utteranceEndMs))
	queryParams.Set("endpointing", strconv.Itoa(options.endpointingMs))
	queryParams.Set("vad_events", "true")

	listenUrl.RawQuery = queryParams.Encode()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenUrl.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

// AcceptWaveform sends one frame of audio and reports whether an utterance
// was finalized since the previous call.
func (d *Decoder) AcceptWaveform(frame []byte) (bool, error) {
	if err := d.err(); err != nil {
		return false, err
	}

	d.connMu.Lock()
	d.lastMsgTs = time.Now()
	err := d.conn.WriteMessage(websocket.BinaryMessage, frame)
	d.connMu.Unlock()
	if err != nil {
		if readErr := d.err(); readErr != nil {
			return false, readErr
		}
		return false, fmt.Errorf("%w: failed to write to deepgram client: %w", speechtotext.ErrDecoderClosed, err)
	}

	select {
	case text := <-d.finals:
		d.result = text
		return true, nil
	default:
		return false, nil
	}
}

func (d *Decoder) Result() string {
	return d.result
}

// Reset discards utterances that were finalized but never collected, e.g.
// ones that ended while capture was paused, along with any partly assembled
// segment so it cannot leak into the next utterance.
func (d *Decoder) Reset() {
	d.segmentMu.Lock()
	defer d.segmentMu.Unlock()

	d.accumulatedTranscript = ""
	d.unendedSegment = false
	d.result = ""
	for {
		select {
		case <-d.finals:
		default:
			return
		}
	}
}

// Close asks the server to flush and close the stream, then drops the
// connection.
func (d *Decoder) Close() error {
	var closeErr error
	d.closeOnce.Do(func() {
		if d.cancel != nil {
			d.cancel()
		}

		d.connMu.Lock()
		defer d.connMu.Unlock()
		if d.conn == nil {
			return
		}
		if err := d.conn.WriteJSON(struct {
			Type string `json:"type"`
		}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
			logger.Debug("failed to send close stream message", "error", err)
		}
		if err := d.conn.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close deepgram websocket: %w", err)
		}
	})
	return closeErr
}

func (d *Decoder) err() error {
	if err := d.readErr.Load(); err != nil {
		return *err
	}
	return nil
}

func (d *Decoder) readMessages(conn *websocket.Conn) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			closeErr := speechtotext.ErrDecoderClosed
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, net.ErrClosed) {
				logger.Error("Failed to read deepgram websocket message", "error", err)
				closeErr = fmt.Errorf("%w: %w", speechtotext.ErrDecoderClosed, err)
			}
			d.readErr.Store(&closeErr)
			return
		}
		if msgType != websocket.BinaryMessage {
			d.processMessage(msg)
		}
	}
}

func (d *Decoder) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.connMu.Lock()
			if time.Since(d.lastMsgTs) >= keepAliveInterval {
				d.lastMsgTs = time.Now()
				if err := d.conn.WriteJSON(struct {
					Type string `json:"type"`
				}{Type: "KeepAlive"}); err != nil {
					logger.Warn("Failed to send keepalive to deepgram", "error", err)
				}
			}
			d.connMu.Unlock()
		}
	}
}
