// Package dictionary 在查找树之上提供自动补全字典：词条既是键也是值。
package dictionary

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wyfcoding/autocomplete/algorithm/structures"
	"github.com/wyfcoding/autocomplete/logging"
	"github.com/wyfcoding/autocomplete/metrics"
	"github.com/wyfcoding/autocomplete/xerrors"
)

// Completion 是一次补全的结果。
type Completion struct {
	Prefix     string   `json:"prefix"`
	Completion string   `json:"completion"` // 沿无分叉路径延伸后的键
	Terms      []string `json:"terms"`
}

// Dictionary 是并发安全的自动补全字典。
type Dictionary struct {
	root    *structures.LookupNode[string]
	size    atomic.Int64
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option 配置 Dictionary。
type Option func(*Dictionary)

// WithLogger 设置日志记录器。
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dictionary) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics 设置指标采集器。
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dictionary) {
		d.metrics = m
	}
}

// New 创建一个空字典。
func New(opts ...Option) *Dictionary {
	d := &Dictionary{
		root:   structures.NewLookupNode[string](),
		logger: logging.Default().With("dictionary").Logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Add 插入一个词条，空词条返回 xerrors.ErrEmptyTerm。
func (d *Dictionary) Add(term string) error {
	if term == "" {
		d.countAdded(metrics.StatusRejected)
		return xerrors.ErrEmptyTerm
	}

	_, replaced, err := d.root.Put(term, term)
	if err != nil {
		d.countAdded(metrics.StatusRejected)
		return err
	}

	if replaced {
		d.countAdded(metrics.StatusReplaced)
		return nil
	}

	n := d.size.Add(1)
	d.countAdded(metrics.StatusAdded)
	if d.metrics != nil {
		d.metrics.DictionaryTerms.Set(float64(n))
	}
	return nil
}

// AddAll 按顺序插入 terms，跳过非法词条并返回合并后的错误，返回新增的词条数。
func (d *Dictionary) AddAll(terms []string) (int, error) {
	before := d.size.Load()

	var errs []error
	for i, term := range terms {
		if err := d.Add(term); err != nil {
			errs = append(errs, fmt.Errorf("term #%d: %w", i, err))
		}
	}
	added := int(d.size.Load() - before)

	if len(errs) > 0 {
		d.logger.Warn("some terms were rejected", "rejected", len(errs), "total", len(terms))
	}
	d.logger.Debug("terms added", "added", added, "total", len(terms))
	return added, errors.Join(errs...)
}

// Lookup 返回所有以 prefix 开头的词条，从不返回错误：空前缀或无匹配时返回空集合。
func (d *Dictionary) Lookup(prefix string) *structures.ValueSet[string] {
	_, terms := d.resolve("lookup", prefix)
	return terms
}

// Complete 与 Lookup 相同，额外返回沿唯一路径延伸后的键。无匹配时返回 false。
func (d *Dictionary) Complete(prefix string) (Completion, bool) {
	key, terms := d.resolve("complete", prefix)
	if terms.IsEmpty() {
		return Completion{Prefix: prefix, Terms: []string{}}, false
	}
	return Completion{Prefix: prefix, Completion: key, Terms: terms.Values()}, true
}

func (d *Dictionary) resolve(op, prefix string) (string, *structures.ValueSet[string]) {
	start := time.Now()
	defer d.observe(op, start)

	if prefix == "" {
		d.countLookup(metrics.ResultMiss)
		return "", structures.EmptyValueSet[string]()
	}

	res, err := d.root.Resolve(prefix, true)
	if err != nil || res == nil {
		d.countLookup(metrics.ResultMiss)
		return "", structures.EmptyValueSet[string]()
	}

	if res.Key() != prefix {
		d.countLookup(metrics.ResultPartial)
	} else {
		d.countLookup(metrics.ResultHit)
	}
	return res.Key(), res.Node().PossibleValues()
}

// Contains 判断 term 是否作为完整词条存在。
func (d *Dictionary) Contains(term string) bool {
	if term == "" {
		return false
	}
	res, err := d.root.Resolve(term, false)
	return err == nil && res != nil
}

// Len 返回不同词条的数量。
func (d *Dictionary) Len() int {
	return int(d.size.Load())
}

func (d *Dictionary) countAdded(status string) {
	if d.metrics != nil {
		d.metrics.DictionaryTermsAdded.WithLabelValues(status).Inc()
	}
}

func (d *Dictionary) countLookup(result string) {
	if d.metrics != nil {
		d.metrics.DictionaryLookups.WithLabelValues(result).Inc()
	}
}

func (d *Dictionary) observe(op string, start time.Time) {
	if d.metrics != nil {
		d.metrics.DictionaryLookupDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
