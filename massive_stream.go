package main

import (
	"context"
	"strings"
	"time"

	massivews "github.com/massive-com/client-go/v2/websocket"
	"github.com/massive-com/client-go/v2/websocket/models"
)

type MassiveStreamConfig struct {
	APIKey  string
	FeedURL string // optional base feed override (e.g. wss://socket.massive.com)
	Pairs   []string
	Log     *Logger
}

// MassiveStream feeds live crypto trades into the board.
type MassiveStream struct {
	cfg     MassiveStreamConfig
	board   *Board
	metrics *Metrics
}

func NewMassiveStream(cfg MassiveStreamConfig, b *Board, m *Metrics) *MassiveStream {
	return &MassiveStream{cfg: cfg, board: b, metrics: m}
}

// NormalizeWSFeed accepts either the base feed host or a full /crypto URL.
// The client appends the market itself.
func NormalizeWSFeed(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return ""
	}
	in = strings.TrimRight(in, "/")
	if strings.HasSuffix(strings.ToLower(in), "/crypto") {
		in = in[:len(in)-len("/crypto")]
	}
	return in
}

// feedPair maps "ABC/USDT" to the feed's "ABC-USDT".
func feedPair(pair string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(pair)), "/", "-")
}

// boardPair maps "ABC-USDT" back to "ABC/USDT".
func boardPair(p string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(p)), "-", "/")
}

func (s *MassiveStream) Run(ctx context.Context) {
	defer s.board.SetConnected(false)

	pairs := make([]string, 0, len(s.cfg.Pairs))
	for _, p := range s.cfg.Pairs {
		pairs = append(pairs, feedPair(p))
	}

	// The client reconnects and resubscribes on its own; it is only
	// recreated after a fatal error on c.Error().
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cfg := massivews.Config{
			APIKey: s.cfg.APIKey,
			Feed:   massivews.RealTime,
			Market: massivews.Crypto,
			Log:    s.cfg.Log, // satisfies massivews.Logger (Debugf/Infof/Errorf)
			ReconnectCallback: func(err error) {
				if err != nil {
					s.metrics.ReconnectAttemptFailed()
					s.board.SetConnected(false)
					return
				}
				s.metrics.ReconnectSucceeded()
				s.board.SetConnected(true)
			},
		}
		if s.cfg.FeedURL != "" {
			cfg.Feed = massivews.Feed(s.cfg.FeedURL)
		}

		c, err := massivews.New(cfg)
		if err != nil {
			s.cfg.Log.Errorf("massivews.New failed: %v", err)
			if !sleepCtx(ctx, 2*time.Second) {
				return
			}
			continue
		}

		// subscribe before Connect so reconnects resubscribe
		if err := subscribeInChunks(c, massivews.CryptoTrades, pairs, 100); err != nil {
			s.cfg.Log.Errorf("subscribe trades failed: %v", err)
			c.Close()
			if !sleepCtx(ctx, 2*time.Second) {
				return
			}
			continue
		}

		if err := c.Connect(); err != nil {
			s.cfg.Log.Errorf("massivews connect failed: %v", err)
			c.Close()
			if !sleepCtx(ctx, 2*time.Second) {
				return
			}
			continue
		}
		s.board.SetConnected(true)
		s.cfg.Log.Infof("massive websocket connected (pairs=%d)", len(pairs))

		runOK := s.runClientLoop(ctx, c)
		c.Close()
		s.board.SetConnected(false)

		if runOK {
			return
		}
		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

func (s *MassiveStream) runClientLoop(ctx context.Context, c *massivews.Client) bool {
	for {
		select {
		case <-ctx.Done():
			return true

		case err, ok := <-c.Error():
			if ok && err != nil {
				s.cfg.Log.Errorf("massive fatal error: %v", err)
			}
			return false

		case out, ok := <-c.Output():
			if !ok {
				return false
			}
			switch msg := out.(type) {
			case models.CryptoTrade:
				u := PriceUpdate{
					Pair:   boardPair(msg.Pair),
					Price:  msg.Price,
					TsMs:   msg.Timestamp,
					Source: "massive",
				}
				if open, ok := s.board.Open(u.Pair); ok {
					u.Change24h = f64(ChangePct(open, u.Price))
				}
				s.board.ApplyPrice(u)
			case models.ControlMessage:
				s.cfg.Log.Debugf("massive control: %s %s", msg.Status, msg.Message)
			default:
			}
		}
	}
}

func subscribeInChunks(c *massivews.Client, topic massivews.Topic, pairs []string, chunk int) error {
	if chunk <= 0 {
		chunk = 100
	}
	for i := 0; i < len(pairs); i += chunk {
		j := min(i+chunk, len(pairs))
		if err := c.Subscribe(topic, pairs[i:j]...); err != nil {
			return err
		}
	}
	return nil
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
