package memstore

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/jhoicas/rebate-api/internal/application/events"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
)

// Publisher registra los eventos publicados.
type Publisher struct {
	mu     sync.Mutex
	Events []events.Envelope
}

// Publish implementa ports.EventPublisher.
func (p *Publisher) Publish(_ context.Context, _ events.Stream, env events.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, env)
}

// Types tipos publicados en orden.
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.EventType)
	}
	return out
}

// Storage guarda archivos en memoria y devuelve /uploads/<name>.
type Storage struct {
	mu    sync.Mutex
	Files map[string][]byte
}

// Save implementa ports.FileStorage.
func (s *Storage) Save(_ context.Context, name string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, content); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Files == nil {
		s.Files = map[string][]byte{}
	}
	s.Files[name] = buf.Bytes()
	return "/uploads/" + name, nil
}

// Delete implementa ports.FileStorage.
func (s *Storage) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Files, name)
	return nil
}

// Sender recuerda el último código enviado por destino.
type Sender struct {
	mu    sync.Mutex
	Codes map[string]string
}

// SendCode implementa ports.CodeSender.
func (s *Sender) SendCode(_ context.Context, destination, _ string, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Codes == nil {
		s.Codes = map[string]string{}
	}
	s.Codes[destination] = code
	return nil
}

// PDF generador trivial.
type PDF struct{}

// GenerateOrderPDF devuelve un documento mínimo con el número de pedido.
func (PDF) GenerateOrderPDF(_ context.Context, o *entity.Order, _ []*entity.OrderItem, _ *entity.User) ([]byte, error) {
	return []byte("%PDF-1.4 " + o.OrderNumber), nil
}
