package costs

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// PricingWatcher reloads a pricing override file when it changes.
// It watches the parent directory since fsnotify cannot watch a file that
// is replaced atomically (write-to-temp then rename).
type PricingWatcher struct {
	path     string
	pricing  *Pricing
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// NewPricingWatcher creates a watcher for the given pricing file.
func NewPricingWatcher(path string, pricing *Pricing) (*PricingWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return &PricingWatcher{
		path:     path,
		pricing:  pricing,
		watcher:  fsw,
		debounce: 100 * time.Millisecond,
	}, nil
}

// Run watches for changes until the context is canceled. Reload failures are
// logged and the previous table stays in effect.
func (w *PricingWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Debounce: editors fire several events per save.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			if err := w.pricing.LoadFile(w.path); err != nil {
				log.Warn().Err(err).Str("path", w.path).Msg("Pricing reload failed, keeping previous table")
				continue
			}
			log.Info().Str("path", w.path).Msg("Pricing table reloaded")

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Pricing watcher error")
		}
	}
}
