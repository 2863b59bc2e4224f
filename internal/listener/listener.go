package listener

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"customer-insights-engine/internal/dataset"
	"customer-insights-engine/internal/storage"
)

// ListenAndReload blocks on Postgres notifications for the given channel and
// forces a dataset reload on each one, so the cached snapshot tracks writes
// made behind the service's back. Returns when ctx is cancelled.
func ListenAndReload(ctx context.Context, st *storage.Store, ld *dataset.Loader, channel string, baseBackoff time.Duration) {
	conn, err := st.PgxPool().Acquire(ctx)
	if err != nil {
		log.Error().Err(err).Msg("acquire conn for listen")
		return
	}
	defer conn.Release()

	if _, err = conn.Exec(ctx, "LISTEN "+channel); err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("listen")
		return
	}
	log.Info().Str("channel", channel).Msg("listening for dataset changes")

	var lastReload time.Time
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener stopped")
			return
		default:
			ntf, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					log.Info().Msg("listener stopped")
					return
				}
				backoff := jitter(baseBackoff)
				log.Error().Err(err).Dur("retry_in", backoff).Msg("notify wait error")
				time.Sleep(backoff)
				continue
			}
			if time.Since(lastReload) < 200*time.Millisecond {
				continue // debounce burst of notifications
			}
			lastReload = time.Now()
			log.Info().Str("channel", ntf.Channel).Msg("dataset changed; reloading snapshot")
			if cs, err := ld.ReloadCustomers(ctx); err != nil {
				log.Error().Err(err).Msg("reload snapshot error")
			} else {
				log.Info().Int("customers", len(cs)).Msg("snapshot reloaded")
			}
		}
	}
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	factor := 0.5 + rand.Float64() // 0.5x-1.5x
	return time.Duration(float64(base) * factor)
}
