package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
)

// CookieName holds the queue between requests.
const CookieName = "gb_flash"

// maxStored caps how many messages survive a round trip.
const maxStored = 10

// Encode serializes the most recent messages into a cookie value.
func Encode(messages []Message) (string, error) {
	if len(messages) > maxStored {
		messages = messages[len(messages)-maxStored:]
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode parses a cookie value. Anything unreadable yields no messages.
func Decode(value string) []Message {
	if value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var messages []Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil
	}
	valid := messages[:0]
	for _, m := range messages {
		if m.ID != "" && m.Message != "" {
			valid = append(valid, m)
		}
	}
	return valid
}

// Options configures Middleware.
type Options struct {
	Secure bool
	// OnSend observes every queued message.
	OnSend func(Level)
}

// Middleware loads the viewer's queue from its cookie, exposes it through
// the request context and writes it back before the response starts.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var stored []Message
			if c, err := r.Cookie(CookieName); err == nil {
				stored = Decode(c.Value)
			}
			q := NewQueue(stored)
			q.onSend = opts.OnSend

			fw := &writer{ResponseWriter: w, queue: q, secure: opts.Secure}
			next.ServeHTTP(fw, r.WithContext(WithQueue(r.Context(), q)))
			fw.persist()
		})
	}
}

type writer struct {
	http.ResponseWriter
	queue  *Queue
	secure bool
	once   sync.Once
}

func (w *writer) persist() {
	w.once.Do(func() {
		if !w.queue.Changed() {
			return
		}
		c := &http.Cookie{
			Name:     CookieName,
			Path:     "/",
			HttpOnly: true,
			Secure:   w.secure,
			SameSite: http.SameSiteLaxMode,
		}
		messages := w.queue.Messages()
		value, err := Encode(messages)
		if err != nil || len(messages) == 0 {
			c.MaxAge = -1
		} else {
			c.Value = value
		}
		http.SetCookie(w.ResponseWriter, c)
	})
}

func (w *writer) WriteHeader(status int) {
	w.persist()
	w.ResponseWriter.WriteHeader(status)
}

func (w *writer) Write(b []byte) (int, error) {
	w.persist()
	return w.ResponseWriter.Write(b)
}

func (w *writer) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
