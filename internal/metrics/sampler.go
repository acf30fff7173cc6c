package metrics

import (
	"context"
	"time"

	"github.com/Croco1609/collectorPerso/internal/logger"
)

// Counter cuenta los artículos persistidos; *articles.Repository lo implementa.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Sampler actualiza catalog_articles_total cada intervalo.
type Sampler struct {
	counter  Counter
	metrics  *Metrics
	interval time.Duration
	log      logger.Logger
}

// NewSampler crea el sampler; interval debe ser positivo.
func NewSampler(counter Counter, metrics *Metrics, interval time.Duration, log logger.Logger) *Sampler {
	return &Sampler{counter: counter, metrics: metrics, interval: interval, log: log}
}

// Run muestrea enseguida y después en cada tick hasta que ctx termina.
// Un error de conteo se loguea y no corta el loop.
func (sampler *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(sampler.interval)
	defer ticker.Stop()

	sampler.sample(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sampler.sample(ctx)
		}
	}
}

func (sampler *Sampler) sample(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sampler.interval)
	defer cancel()

	total, err := sampler.counter.Count(ctx)
	if err != nil {
		sampler.log.Warnw("article count sample failed", "error", err)
		return
	}
	sampler.metrics.SetArticles(total)
}
