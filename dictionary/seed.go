package dictionary

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/wyfcoding/autocomplete/source"
	"github.com/wyfcoding/autocomplete/xerrors"
)

// Seed 并发读取全部来源并写入字典，返回新增的词条数。
// 某个来源失败不会中断其他来源，所有错误被合并返回。
func (d *Dictionary) Seed(ctx context.Context, sources ...source.Source) (int, error) {
	var total atomic.Int64
	p := pool.New().WithErrors().WithContext(ctx)

	for _, src := range sources {
		p.Go(func(ctx context.Context) error {
			terms, err := src.Terms(ctx)
			if err != nil {
				d.logger.ErrorContext(ctx, "failed to read seed source", "source", src.Name(), "error", err)
				return fmt.Errorf("seed from %s: %w: %w", src.Name(), xerrors.ErrSourceUnavailable, err)
			}

			added, err := d.AddAll(terms)
			total.Add(int64(added))
			d.logger.InfoContext(ctx, "seed source loaded", "source", src.Name(), "terms", len(terms), "added", added)
			if err != nil {
				return fmt.Errorf("seed from %s: %w", src.Name(), err)
			}
			return nil
		})
	}

	err := p.Wait()
	return int(total.Load()), err
}
