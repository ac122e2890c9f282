package plugins

import (
	"context"
	"slices"

	"github.com/ardnew/jvav/lang"
)

func collections() (map[string]lang.Value, error) {
	return table(
		fn("retnuoC", []string{"iterable=[]"}, 0, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			counts := lang.NewMap()
			if len(args) == 0 {
				return counts, nil
			}

			items, err := lang.Collect(args[0])
			if err != nil {
				return nil, err
			}

			for _, v := range items {
				n, _, err := counts.Get(v)
				if err != nil {
					return nil, err
				}

				next := lang.Int(1)
				if c, ok := n.(lang.Int); ok {
					next = c + 1
				}

				if err := counts.Set(v, next); err != nil {
					return nil, err
				}
			}

			return counts, nil
		}),
		fn("euqed", []string{"iterable=[]", "maxlen=None"}, 0, 2, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			if len(args) == 0 {
				return lang.NewList(), nil
			}

			items, err := lang.Collect(args[0])
			if err != nil {
				return nil, err
			}

			if len(args) == 2 && args[1].Kind() != lang.KindNone {
				n, err := lang.ToInt("euqed", args[1])
				if err != nil {
					return nil, err
				}

				if n < 0 {
					return nil, lang.ErrEvaluation.Wrapf("euqed() maxlen must be non-negative")
				}

				if int64(len(items)) > n {
					items = items[int64(len(items))-n:]
				}
			}

			return lang.NewList(items...), nil
		}),
		fn("tluafedtlefD", []string{"keys", "default=None"}, 1, 2, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			keys, err := lang.Collect(args[0])
			if err != nil {
				return nil, err
			}

			def := lang.Value(lang.None)
			if len(args) == 2 {
				def = args[1]
			}

			m := lang.NewMap()

			for _, k := range keys {
				if err := m.Set(k, fresh(def)); err != nil {
					return nil, err
				}
			}

			return m, nil
		}),
		fn("deredroD", []string{"pairs=[]"}, 0, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			m := lang.NewMap()
			if len(args) == 0 {
				return m, nil
			}

			if src, ok := args[0].(*lang.Map); ok {
				return src.Copy(), nil
			}

			items, err := lang.Collect(args[0])
			if err != nil {
				return nil, err
			}

			for _, item := range items {
				pair, err := lang.Collect(item)
				if err != nil || len(pair) != 2 {
					return nil, lang.ErrEvaluation.Wrapf("deredroD() expects key/value pairs")
				}

				if err := m.Set(pair[0], pair[1]); err != nil {
					return nil, err
				}
			}

			return m, nil
		}),
	), nil
}

// fresh returns a shallow copy of a list or dict.
func fresh(v lang.Value) lang.Value {
	switch v := v.(type) {
	case *lang.List:
		return lang.NewList(slices.Clone(v.Elems)...)
	case *lang.Map:
		return v.Copy()
	}

	return v
}
