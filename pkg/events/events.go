package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	VideoUploaded = "video.uploaded"
	LikeCreated   = "like.created"
	LikeDeleted   = "like.deleted"
)

type VideoUploadedEvent struct {
	VideoID   string    `json:"video_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type LikeEvent struct {
	VideoID   string    `json:"video_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Publisher interface {
	Publish(subject string, event interface{}) error
	Close()
}

type natsPublisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

// Connect returns a NATS-backed publisher that reconnects on its own.
func Connect(url string, log *zap.Logger) (Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("campustube"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &natsPublisher{conn: conn, log: log}, nil
}

func (p *natsPublisher) Publish(subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return err
	}
	p.log.Debug("published event", zap.String("subject", subject))
	return nil
}

func (p *natsPublisher) Close() {
	p.conn.Close()
}

type nop struct{}

// Nop drops every event; used when no broker is configured.
func Nop() Publisher { return nop{} }

func (nop) Publish(string, interface{}) error { return nil }
func (nop) Close()                            {}
