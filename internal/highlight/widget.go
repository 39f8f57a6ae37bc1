package highlight

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/relationships/internal/metrics"
	"github.com/raphaelgruber/relationships/internal/models"
	"github.com/raphaelgruber/relationships/internal/relation"
)

// Widget owns one configuration and its relationship index.
// A Widget belongs to a single caller and is not safe for concurrent use;
// separate widgets share no mutable state.
type Widget struct {
	id      string
	cfg     Config
	idx     *relation.Index
	logger  *slog.Logger
	metrics *metrics.Collector
}

// Option configures a Widget.
type Option func(*Widget)

// WithLogger sets the widget logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Widget) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithCollector records operation timings into c.
func WithCollector(c *metrics.Collector) Option {
	return func(w *Widget) {
		w.metrics = c
	}
}

// WithID sets the widget id used in logs. Defaults to a random UUID.
func WithID(id string) Option {
	return func(w *Widget) {
		if id != "" {
			w.id = id
		}
	}
}

// NewWidget validates cfg and builds its relationship index.
func NewWidget(cfg Config, opts ...Option) (*Widget, error) {
	w := &Widget{
		id:     uuid.New().String(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("widget", w.id)

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	idx, err := w.buildIndex(cfg)
	if err != nil {
		return nil, err
	}

	w.cfg = cfg
	w.idx = idx
	w.logger.Debug("widget created",
		"set_a", cfg.SetA.Len(),
		"set_b", cfg.SetB.Len(),
		"links", len(cfg.Links),
		"mode", cfg.Mode,
	)
	return w, nil
}

// ID returns the widget id.
func (w *Widget) ID() string {
	return w.id
}

// Config returns the current configuration.
func (w *Widget) Config() Config {
	return w.cfg
}

// Index returns the current relationship index.
func (w *Widget) Index() *relation.Index {
	return w.idx
}

// Hover resolves a transient selection. Leaving an item is Hover(None()).
func (w *Widget) Hover(sel models.Selection) (models.HighlightDecision, error) {
	start := time.Now()
	decision, err := Resolve(w.cfg, w.idx, sel)
	w.metrics.RecordTiming(metrics.OpResolve, time.Since(start), err)
	if err != nil {
		w.logger.Debug("hover rejected", "selection", sel, "error", err)
		return models.HighlightDecision{}, err
	}
	return decision, nil
}

// Leave clears the selection. It cannot fail for a constructed widget.
func (w *Widget) Leave() models.HighlightDecision {
	decision, _ := w.Hover(models.None())
	return decision
}

// Select resolves a discrete select action and then notifies the
// configured OnSelect callback with the resolved description.
func (w *Widget) Select(set models.SetID, index int) (models.HighlightDecision, error) {
	sel := models.Select(set, index)

	start := time.Now()
	var decision models.HighlightDecision
	var err error
	if set.Valid() {
		decision, err = Resolve(w.cfg, w.idx, sel)
	} else {
		err = fmt.Errorf("%w: select requires set a or b", models.ErrInvalidSelection)
	}
	w.metrics.RecordTiming(metrics.OpSelect, time.Since(start), err)
	if err != nil {
		w.logger.Debug("select rejected", "selection", sel, "error", err)
		return models.HighlightDecision{}, err
	}

	w.logger.Debug("item selected", "selection", sel, "text", decision.Text)
	if w.cfg.OnSelect != nil {
		w.cfg.OnSelect(set, index, decision.Text)
	}
	return decision, nil
}

// Reconfigure applies a partial update. The index is rebuilt only when the
// update replaces a set, the links or the link mode. On error the widget
// keeps its previous configuration.
func (w *Widget) Reconfigure(u Update) (err error) {
	start := time.Now()
	defer func() {
		w.metrics.RecordTiming(metrics.OpReconfigure, time.Since(start), err)
	}()

	cfg := w.cfg.Merge(u)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("reconfigure: %w", err)
	}

	idx := w.idx
	if u.TouchesIndex() {
		idx, err = w.buildIndex(cfg)
		if err != nil {
			return fmt.Errorf("reconfigure: %w", err)
		}
	}

	w.cfg = cfg
	w.idx = idx
	w.logger.Info("widget reconfigured", "rebuilt_index", u.TouchesIndex(), "links", len(cfg.Links))
	return nil
}

func (w *Widget) buildIndex(cfg Config) (*relation.Index, error) {
	start := time.Now()
	idx, err := relation.Build(cfg.Links, cfg.SetA.Len(), cfg.SetB.Len(), cfg.Mode)
	w.metrics.RecordTiming(metrics.OpIndexBuild, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	for _, s := range idx.Skipped() {
		w.logger.Warn("link ignored: endpoint out of range",
			"position", s.Position,
			"link", s.Link.String(),
		)
	}
	return idx, nil
}
