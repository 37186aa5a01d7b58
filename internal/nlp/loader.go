package nlp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Models es el par de clasificadores disponible tras una carga exitosa.
// ZeroShot puede ser nil cuando solo cargó un modelo de sentimiento.
type Models struct {
	Name      string
	Sentiment SentimentClassifier
	ZeroShot  ZeroShotClassifier
}

// Candidate es un conjunto de modelos que se prueba como unidad.
type Candidate struct {
	Name      string
	Sentiment SentimentClassifier
	ZeroShot  ZeroShotClassifier
}

// Loader carga perezosamente el primer candidato que responde.
// Un intento recorre todos los candidatos en orden; si ninguno responde,
// no se reintenta hasta que pase retryAfter (0 = nunca).
// Las pruebas de red corren fuera de mu: una carga lenta no bloquea Status
// y cada llamador espera a lo sumo lo que permita su ctx.
type Loader struct {
	candidates []Candidate
	retryAfter time.Duration
	logger     *zap.Logger
	now        func() time.Time
	flight     singleflight.Group

	mu         sync.Mutex
	models     *Models
	attempted  bool
	lastFailAt time.Time
	lastErr    error
}

func NewLoader(candidates []Candidate, retryAfter time.Duration, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		candidates: candidates,
		retryAfter: retryAfter,
		logger:     logger,
		now:        time.Now,
	}
}

// Get devuelve los modelos cargados, intentando la carga si corresponde.
// Los llamadores concurrentes comparten una sola carga en curso.
func (l *Loader) Get(ctx context.Context) (Models, bool) {
	l.mu.Lock()
	if l.models != nil {
		models := *l.models
		l.mu.Unlock()
		return models, true
	}
	blocked := l.attempted && (l.retryAfter <= 0 || l.now().Sub(l.lastFailAt) < l.retryAfter)
	l.mu.Unlock()
	if blocked {
		return Models{}, false
	}

	// La carga sobrevive al ctx de quien la inicia: su resultado sirve a todos.
	loadCtx := context.WithoutCancel(ctx)
	ch := l.flight.DoChan("load", func() (interface{}, error) {
		return l.load(loadCtx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Models{}, false
		}
		return res.Val.(Models), true
	case <-ctx.Done():
		return Models{}, false
	}
}

func (l *Loader) load(ctx context.Context) (Models, error) {
	var errs []error
	for _, c := range l.candidates {
		if err := probeCandidate(ctx, c); err != nil {
			l.logger.Warn("inference models unavailable", zap.String("candidate", c.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			continue
		}
		models := Models{Name: c.Name, Sentiment: c.Sentiment, ZeroShot: c.ZeroShot}
		l.mu.Lock()
		l.models = &models
		l.attempted = true
		l.lastErr = nil
		l.mu.Unlock()
		l.logger.Info("inference models loaded", zap.String("candidate", c.Name))
		return models, nil
	}

	err := errors.Join(errs...)
	if err == nil {
		err = errors.New("no inference candidates configured")
	}
	l.mu.Lock()
	l.attempted = true
	l.lastFailAt = l.now()
	l.lastErr = err
	l.mu.Unlock()
	return Models{}, err
}

// Status informa el candidato cargado o el último error de carga.
func (l *Loader) Status() (name string, loaded bool, lastErr error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.models != nil {
		return l.models.Name, true, nil
	}
	return "", false, l.lastErr
}

func probeCandidate(ctx context.Context, c Candidate) error {
	if c.Sentiment == nil && c.ZeroShot == nil {
		return errors.New("empty candidate")
	}
	if p, ok := c.Sentiment.(Prober); ok {
		if err := p.Probe(ctx); err != nil {
			return fmt.Errorf("sentiment: %w", err)
		}
	}
	if p, ok := c.ZeroShot.(Prober); ok {
		if err := p.Probe(ctx); err != nil {
			return fmt.Errorf("zero-shot: %w", err)
		}
	}
	return nil
}
