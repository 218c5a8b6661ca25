package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/scinfra-pro/tg-webhook/internal/stop"
)

// endpointState is shared by every request for the lifetime of the server.
type endpointState struct {
	sender      *ClosableSender
	flag        stop.Flag
	secret      []byte
	hasSecret   bool
	maxBodySize int64
	logger      *zap.SugaredLogger
}

func newEndpointState(sender *ClosableSender, flag stop.Flag, opts Options, logger *zap.SugaredLogger) *endpointState {
	return &endpointState{
		sender:      sender,
		flag:        flag,
		secret:      []byte(opts.SecretToken),
		hasSecret:   opts.SecretToken != "",
		maxBodySize: opts.MaxBodySize,
		logger:      logger,
	}
}

// handleUpdate handles update deliveries from Telegram
func (s *endpointState) handleUpdate(w http.ResponseWriter, r *http.Request) {
	header, present := takeSecretHeader(r)
	switch VerifySecret(header, present, s.secret, s.hasSecret) {
	case Malformed:
		s.logger.Warnw("webhook secret header malformed", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusBadRequest)
		return
	case Mismatch:
		s.logger.Warnw("webhook unauthorized", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	producer := s.sender.Get()
	if producer == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	defer producer.Release()

	// Updates are refused after stop even while the server keeps running.
	if s.flag.IsStopped() {
		s.sender.Close()
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.logger.Warnw("webhook payload too large", "limit", tooLarge.Limit)
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		s.logger.Warnw("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	update, err := decodeUpdate(body)
	if err != nil {
		// Telegram would redeliver the same payload forever; acknowledge it.
		s.logger.Errorw("cannot parse an update",
			"error", err,
			"value", string(body),
		)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := producer.Send(update); err != nil {
		panic(fmt.Sprintf("cannot send an incoming update from the webhook: %v", err))
	}

	w.WriteHeader(http.StatusOK)
}

// handleHealth returns 200 OK while updates are accepted
func (s *endpointState) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.flag.IsStopped() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("STOPPING"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// takeSecretHeader removes the secret header from r and returns its value.
func takeSecretHeader(r *http.Request) ([]byte, bool) {
	values := r.Header.Values(SecretHeader)
	if len(values) == 0 {
		return nil, false
	}
	r.Header.Del(SecretHeader)
	return []byte(values[0]), true
}

var errNoUpdateID = errors.New("missing update_id")

// decodeUpdate parses body as an Update. The object must carry a non-null
// update_id key spelled exactly.
func decodeUpdate(body []byte) (tgbotapi.Update, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return tgbotapi.Update{}, err
	}
	if id, ok := fields["update_id"]; !ok || string(id) == "null" {
		return tgbotapi.Update{}, errNoUpdateID
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return tgbotapi.Update{}, err
	}
	return update, nil
}
